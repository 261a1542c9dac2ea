package app

import (
	"context"

	"inventory-ledger/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Every mutating method takes the acting user explicitly; nothing is read from
// ambient session state. Results carry plain numbers, never decimal values.
type ApplicationService interface {
	// ── Users ────────────────────────────────────────────────────────────────

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns the profile of an existing user.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// CreateUser adds an account. Admin only.
	CreateUser(ctx context.Context, actor core.Actor, req CreateUserRequest) (*UserResult, error)

	// ── Catalog ──────────────────────────────────────────────────────────────

	ListItems(ctx context.Context) (*ItemListResult, error)
	GetItem(ctx context.Context, sku string) (*ItemResult, error)
	CreateItem(ctx context.Context, actor core.Actor, req CreateItemRequest) (*ItemResult, error)
	DeleteItem(ctx context.Context, actor core.Actor, sku string) error

	ListLocations(ctx context.Context) (*LocationListResult, error)
	CreateLocation(ctx context.Context, actor core.Actor, req CreateLocationRequest) (*LocationResult, error)

	GetBOM(ctx context.Context, sku string) (*BOMResult, error)
	// SetBOM replaces the BOM of an item; duplicate components are merged.
	SetBOM(ctx context.Context, actor core.Actor, req SetBOMRequest) (*BOMResult, error)

	// ── Stock ────────────────────────────────────────────────────────────────

	// GetStock returns the aggregate for one SKU, served from the stock cache when warm.
	GetStock(ctx context.Context, sku string) (*StockResult, error)

	// GetStockDetails returns the per-location rows of one SKU straight from the ledger.
	GetStockDetails(ctx context.Context, sku string) (*StockDetailResult, error)

	// GetStockLevels returns every (item, location) row.
	GetStockLevels(ctx context.Context) (*StockLevelsResult, error)

	// AdjustStock applies one ledger primitive selected by req.Mode.
	AdjustStock(ctx context.Context, actor core.Actor, req AdjustStockRequest) (*StockChangeResult, error)

	// ── Production ───────────────────────────────────────────────────────────

	RunProduction(ctx context.Context, actor core.Actor, req RunProductionRequest) (*ProductionRunResult, error)
	UpdateProductionRun(ctx context.Context, actor core.Actor, req UpdateProductionRunRequest) (*ProductionRunResult, error)
	GetProductionRun(ctx context.Context, runID int) (*ProductionRunResult, error)
	ListProductionRuns(ctx context.Context, sku string) (*ProductionRunListResult, error)

	// ── Transfers ────────────────────────────────────────────────────────────

	CreateTransfer(ctx context.Context, actor core.Actor, req CreateTransferRequest) (*ShipmentResult, error)
	CompleteTransfer(ctx context.Context, actor core.Actor, shipmentID int) (*ShipmentResult, error)
	GetShipment(ctx context.Context, shipmentID int) (*ShipmentResult, error)

	// ── Purchasing ───────────────────────────────────────────────────────────

	CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)
	GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrderResult, error)
	// ListPurchaseOrders returns orders newest first; an empty status lists all.
	ListPurchaseOrders(ctx context.Context, status string) (*PurchaseOrderListResult, error)
	ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePORequest) (*PurchaseOrderResult, error)

	// ── Reconciliation ───────────────────────────────────────────────────────

	// RunReconciliation realigns every item's detail rows with its aggregate.
	RunReconciliation(ctx context.Context, actor core.Actor) (*ReconciliationResult, error)
	// ReconcileItem realigns one item. Drifted is false when there was nothing to do.
	ReconcileItem(ctx context.Context, actor core.Actor, sku string) (*ReconcileItemResult, error)
	GetReconciliationReport(ctx context.Context, runID string) (*ReconciliationResult, error)
}
