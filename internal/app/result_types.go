package app

import (
	"time"

	"inventory-ledger/internal/core"
)

// UserSession is returned by AuthenticateUser and carried in the auth token.
type UserSession struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Actor returns the identity the session acts as.
func (s *UserSession) Actor() core.Actor {
	return core.Actor{UserID: s.UserID, Role: core.Role(s.Role)}
}

// UserResult is returned by user lookups and CreateUser.
type UserResult struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemResult is returned by single-item operations.
type ItemResult struct {
	Item core.ItemView `json:"item"`
}

// ItemListResult is returned by ListItems.
type ItemListResult struct {
	Items []core.ItemView `json:"items"`
}

// LocationResult is returned by CreateLocation.
type LocationResult struct {
	Location LocationView `json:"location"`
}

// LocationListResult is returned by ListLocations.
type LocationListResult struct {
	Locations []LocationView `json:"locations"`
}

// LocationView is the read projection of a location.
type LocationView struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	IsDefault bool   `json:"is_default"`
}

// BOMResult is returned by GetBOM and SetBOM.
type BOMResult struct {
	SKU        string             `json:"sku"`
	Components []BOMComponentView `json:"components"`
}

// BOMComponentView is one component of a BOM.
type BOMComponentView struct {
	SKU   string  `json:"sku"`
	Ratio float64 `json:"ratio"`
}

// StockResult is returned by GetStock. Cached is true when the value came from the
// stock cache rather than the database.
type StockResult struct {
	SKU       string  `json:"sku"`
	Aggregate float64 `json:"aggregate"`
	Cached    bool    `json:"cached"`
}

// StockDetailResult is returned by GetStockDetails.
type StockDetailResult struct {
	SKU       string            `json:"sku"`
	Aggregate float64           `json:"aggregate"`
	Locations []StockDetailView `json:"locations"`
}

// StockDetailView is one per-location row.
type StockDetailView struct {
	LocationCode string  `json:"location_code"`
	Quantity     float64 `json:"quantity"`
}

// StockLevelsResult is returned by GetStockLevels.
type StockLevelsResult struct {
	Levels []core.StockLevelView `json:"levels"`
}

// StockChangeResult is returned by AdjustStock.
type StockChangeResult struct {
	SKU          string  `json:"sku"`
	LocationCode string  `json:"location_code,omitempty"`
	Detail       float64 `json:"detail"`
	Aggregate    float64 `json:"aggregate"`
}

// ProductionRunResult is returned by production operations.
type ProductionRunResult struct {
	ID           int       `json:"id"`
	SKU          string    `json:"sku"`
	LocationCode string    `json:"location_code,omitempty"`
	Quantity     float64   `json:"quantity"`
	Status       string    `json:"status"`
	Serials      []string  `json:"serials,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductionRunListResult is returned by ListProductionRuns.
type ProductionRunListResult struct {
	Runs []ProductionRunResult `json:"runs"`
}

// ShipmentResult is returned by transfer operations.
type ShipmentResult struct {
	ID           int           `json:"id"`
	Kind         string        `json:"kind"`
	Status       string        `json:"status"`
	FromLocation string        `json:"from_location,omitempty"`
	ToLocation   string        `json:"to_location,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	ReceivedAt   *time.Time    `json:"received_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Packages     []PackageView `json:"packages"`
}

// PackageView is one package of a shipment.
type PackageView struct {
	ID    int               `json:"id"`
	Label string            `json:"label"`
	Lines []PackageLineView `json:"lines"`
}

// PackageLineView is one item line inside a package.
type PackageLineView struct {
	SKU      string  `json:"sku"`
	Quantity float64 `json:"quantity"`
}

// PurchaseOrderResult is returned by purchase order operations.
type PurchaseOrderResult struct {
	ID         int          `json:"id"`
	Reference  string       `json:"reference"`
	Supplier   string       `json:"supplier"`
	Status     string       `json:"status"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	ReceivedAt *time.Time   `json:"received_at,omitempty"`
	Lines      []POLineView `json:"lines,omitempty"`
}

// POLineView is one purchase order line.
type POLineView struct {
	ID          int     `json:"id"`
	LineNumber  int     `json:"line_number"`
	SKU         string  `json:"sku"`
	OrderedQty  float64 `json:"ordered_qty"`
	ReceivedQty float64 `json:"received_qty"`
	Outstanding float64 `json:"outstanding"`
	UnitCost    float64 `json:"unit_cost"`
}

// PurchaseOrderListResult is returned by ListPurchaseOrders.
type PurchaseOrderListResult struct {
	Orders []PurchaseOrderResult `json:"orders"`
}

// ReconciliationResult is returned by RunReconciliation and GetReconciliationReport.
// Checked is zero for a report loaded from storage.
type ReconciliationResult struct {
	RunID    string               `json:"run_id"`
	Checked  int                  `json:"checked,omitempty"`
	Repaired []ReconciliationView `json:"repaired"`
	Failed   []ReconciliationView `json:"failed"`
}

// ReconcileItemResult is returned by ReconcileItem.
type ReconcileItemResult struct {
	SKU     string              `json:"sku"`
	Drifted bool                `json:"drifted"`
	Outcome *ReconciliationView `json:"outcome,omitempty"`
}

// ReconciliationView is one drifted item.
type ReconciliationView struct {
	SKU        string  `json:"sku"`
	Aggregate  float64 `json:"aggregate"`
	DetailSum  float64 `json:"detail_sum"`
	Adjustment float64 `json:"adjustment"`
	Outcome    string  `json:"outcome"`
	Details    string  `json:"details"`
}
