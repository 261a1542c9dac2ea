package app

import "github.com/shopspring/decimal"

// CreateUserRequest is the input for creating a new user.
type CreateUserRequest struct {
	Username string
	Password string
	Role     string
}

// CreateItemRequest is the input for creating a catalog item.
type CreateItemRequest struct {
	SKU          string
	Name         string
	Kind         string
	MinStock     decimal.Decimal
	UnitCost     decimal.Decimal
	UnitPrice    decimal.Decimal
	IsSerialized bool
}

// CreateLocationRequest is the input for creating a location.
type CreateLocationRequest struct {
	Code      string
	Name      string
	Kind      string // empty means STANDARD
	IsDefault bool
}

// SetBOMRequest replaces the BOM of SKU.
type SetBOMRequest struct {
	SKU        string
	Components []BOMComponentInput
}

// BOMComponentInput is one component line of a SetBOMRequest.
type BOMComponentInput struct {
	SKU   string
	Ratio decimal.Decimal
}

// Stock adjustment modes understood by AdjustStock.
const (
	AdjustSet       = "set"
	AdjustIncrement = "increment"
	AdjustDecrement = "decrement"
	AdjustAggregate = "aggregate" // overwrite the aggregate only; no location
	AdjustReconcile = "reconcile" // recompute the aggregate from detail rows
)

// AdjustStockRequest is the input for AdjustStock. LocationCode is ignored for the
// aggregate and reconcile modes and required for the others.
type AdjustStockRequest struct {
	SKU          string
	LocationCode string
	Mode         string
	Quantity     decimal.Decimal
}

// RunProductionRequest is the input for RunProduction. LocationCode is optional.
type RunProductionRequest struct {
	SKU          string
	Quantity     decimal.Decimal
	Serials      []string
	LocationCode string
}

// UpdateProductionRunRequest changes the quantity of a past run.
type UpdateProductionRunRequest struct {
	RunID    int
	Quantity decimal.Decimal
}

// CreateTransferRequest is the input for creating a DRAFT transfer.
type CreateTransferRequest struct {
	FromLocation string
	ToLocation   string
	Notes        string
	Packages     []TransferPackageInput
}

// TransferPackageInput is one package of a transfer.
type TransferPackageInput struct {
	Label string
	Lines []TransferLineInput
}

// TransferLineInput is one item line inside a package.
type TransferLineInput struct {
	SKU      string
	Quantity decimal.Decimal
}

// CreatePurchaseOrderRequest is the input for creating a purchase order.
type CreatePurchaseOrderRequest struct {
	Reference string
	Supplier  string
	Notes     string
	Lines     []POLineInput
}

// POLineInput is a single line within a CreatePurchaseOrderRequest.
type POLineInput struct {
	SKU      string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// ReceivePORequest records goods received against a purchase order.
type ReceivePORequest struct {
	OrderID      int
	LocationCode string
	Lines        []ReceivedLineInput
}

// ReceivedLineInput is one line being received.
type ReceivedLineInput struct {
	POLineID    int
	QtyReceived decimal.Decimal
}
