package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"inventory-ledger/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockCache is the read-side aggregate projection. It also receives post-commit
// publishes from the engines. Warm stores only when no value is present.
type StockCache interface {
	core.StockPublisher
	Stock(ctx context.Context, sku string) (decimal.Decimal, bool, error)
	Warm(ctx context.Context, sku string, aggregate decimal.Decimal) (bool, error)
	Forget(ctx context.Context, sku string) error
}

// Services bundles the core collaborators the application layer delegates to.
type Services struct {
	Users          core.UserService
	Catalog        core.CatalogService
	Ledger         core.StockLedger
	Assembly       core.AssemblyEngine
	Transfers      core.TransferEngine
	Receiving      core.ReceivingEngine
	Reconciliation core.ReconciliationJob
}

type appService struct {
	svc   Services
	cache StockCache
}

// NewAppService constructs an appService that satisfies ApplicationService.
// cache may be nil, in which case stock reads always go to the database.
func NewAppService(svc Services, cache StockCache) ApplicationService {
	return &appService{svc: svc, cache: cache}
}

// ── Users ────────────────────────────────────────────────────────────────────

// AuthenticateUser verifies credentials and returns a session on success.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.svc.Users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{UserID: user.ID, Username: user.Username, Role: string(user.Role)}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	user, err := s.svc.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userResult(user), nil
}

func (s *appService) CreateUser(ctx context.Context, actor core.Actor, req CreateUserRequest) (*UserResult, error) {
	role, err := core.ParseRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		return nil, err
	}
	user, err := s.svc.Users.CreateUser(ctx, actor, strings.TrimSpace(req.Username), req.Password, role)
	if err != nil {
		return nil, err
	}
	return userResult(user), nil
}

func userResult(u *core.User) *UserResult {
	return &UserResult{ID: u.ID, Username: u.Username, Role: string(u.Role), IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) ListItems(ctx context.Context) (*ItemListResult, error) {
	items, err := s.svc.Catalog.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]core.ItemView, len(items))
	for i, it := range items {
		views[i] = it.View()
	}
	return &ItemListResult{Items: views}, nil
}

func (s *appService) GetItem(ctx context.Context, sku string) (*ItemResult, error) {
	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item.View()}, nil
}

func (s *appService) CreateItem(ctx context.Context, actor core.Actor, req CreateItemRequest) (*ItemResult, error) {
	kind := core.ItemKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	if kind == "" {
		kind = core.ItemKindRaw
	}
	item, err := s.svc.Catalog.CreateItem(ctx, actor, core.ItemInput{
		SKU:          req.SKU,
		Name:         req.Name,
		Kind:         kind,
		MinStock:     req.MinStock,
		UnitCost:     req.UnitCost,
		UnitPrice:    req.UnitPrice,
		IsSerialized: req.IsSerialized,
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item.View()}, nil
}

// DeleteItem removes the item and drops its cached aggregate.
func (s *appService) DeleteItem(ctx context.Context, actor core.Actor, sku string) error {
	if err := actor.Authorize("delete item", core.RoleAdmin); err != nil {
		return err
	}
	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if err := s.svc.Catalog.DeleteItem(ctx, actor, item.ID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Forget(ctx, item.SKU); err != nil {
			log.Printf("[CACHE] forget %s: %v", item.SKU, err)
		}
	}
	return nil
}

func (s *appService) ListLocations(ctx context.Context) (*LocationListResult, error) {
	locations, err := s.svc.Catalog.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]LocationView, len(locations))
	for i, l := range locations {
		views[i] = locationView(l)
	}
	return &LocationListResult{Locations: views}, nil
}

func (s *appService) CreateLocation(ctx context.Context, actor core.Actor, req CreateLocationRequest) (*LocationResult, error) {
	kind := core.LocationKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	loc, err := s.svc.Catalog.CreateLocation(ctx, actor, req.Code, req.Name, kind, req.IsDefault)
	if err != nil {
		return nil, err
	}
	return &LocationResult{Location: locationView(*loc)}, nil
}

func locationView(l core.Location) LocationView {
	return LocationView{ID: l.ID, Code: l.Code, Name: l.Name, Kind: string(l.Kind), IsDefault: l.IsDefault}
}

func (s *appService) GetBOM(ctx context.Context, sku string) (*BOMResult, error) {
	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	lines, err := s.svc.Catalog.GetBOM(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return bomResult(item.SKU, lines), nil
}

func (s *appService) SetBOM(ctx context.Context, actor core.Actor, req SetBOMRequest) (*BOMResult, error) {
	if err := actor.Authorize("define BOM", core.RoleOperator); err != nil {
		return nil, err
	}
	parent, err := s.svc.Catalog.GetItemBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	inputs := make([]core.BOMLineInput, 0, len(req.Components))
	for _, c := range req.Components {
		child, err := s.svc.Catalog.GetItemBySKU(ctx, c.SKU)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, core.BOMLineInput{ChildItemID: child.ID, Ratio: c.Ratio})
	}
	lines, err := s.svc.Catalog.SetBOM(ctx, actor, parent.ID, inputs)
	if err != nil {
		return nil, err
	}
	return bomResult(parent.SKU, lines), nil
}

func bomResult(sku string, lines []core.BOMLine) *BOMResult {
	res := &BOMResult{SKU: sku, Components: make([]BOMComponentView, len(lines))}
	for i, l := range lines {
		res.Components[i] = BOMComponentView{SKU: l.ChildSKU, Ratio: l.Ratio.InexactFloat64()}
	}
	return res
}

// ── Stock ────────────────────────────────────────────────────────────────────

// GetStock serves the aggregate from the cache when present. A miss or cache error
// falls back to the database and warms the cache with the result, unless a writer
// published a newer value while the lookup ran.
func (s *appService) GetStock(ctx context.Context, sku string) (*StockResult, error) {
	if s.cache != nil {
		qty, ok, err := s.cache.Stock(ctx, sku)
		if err != nil {
			log.Printf("[CACHE] read %s: %v", sku, err)
		} else if ok {
			return &StockResult{SKU: sku, Aggregate: qty.InexactFloat64(), Cached: true}, nil
		}
	}

	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if _, err := s.cache.Warm(ctx, item.SKU, item.AggregateQty); err != nil {
			log.Printf("[CACHE] warm %s: %v", item.SKU, err)
		}
	}
	return &StockResult{SKU: item.SKU, Aggregate: item.AggregateQty.InexactFloat64()}, nil
}

func (s *appService) GetStockDetails(ctx context.Context, sku string) (*StockDetailResult, error) {
	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	details, err := s.svc.Ledger.ListDetails(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	res := &StockDetailResult{
		SKU:       item.SKU,
		Aggregate: item.AggregateQty.InexactFloat64(),
		Locations: make([]StockDetailView, len(details)),
	}
	for i, d := range details {
		res.Locations[i] = StockDetailView{LocationCode: d.LocationCode, Quantity: d.Quantity.InexactFloat64()}
	}
	return res, nil
}

func (s *appService) GetStockLevels(ctx context.Context) (*StockLevelsResult, error) {
	levels, err := s.svc.Ledger.StockLevels(ctx)
	if err != nil {
		return nil, err
	}
	return &StockLevelsResult{Levels: levels}, nil
}

// adjustRoles is the minimum role per stock adjustment mode. The ledger enforces the
// same roles; checking here keeps unauthorized callers away from item lookups.
var adjustRoles = map[string]core.Role{
	AdjustSet:       core.RoleOperator,
	AdjustIncrement: core.RoleOperator,
	AdjustDecrement: core.RoleOperator,
	AdjustAggregate: core.RoleAdmin,
	AdjustReconcile: core.RoleAdmin,
}

// AdjustStock resolves SKU and location code, then dispatches to the ledger primitive
// named by req.Mode.
func (s *appService) AdjustStock(ctx context.Context, actor core.Actor, req AdjustStockRequest) (*StockChangeResult, error) {
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	role, ok := adjustRoles[mode]
	if !ok {
		return nil, &core.ValidationError{Message: fmt.Sprintf("unknown stock adjustment mode %q", req.Mode)}
	}
	if err := actor.Authorize("adjust stock ("+mode+")", role); err != nil {
		return nil, err
	}
	switch mode {
	case AdjustSet, AdjustIncrement, AdjustDecrement:
		if req.LocationCode == "" {
			return nil, &core.ValidationError{Message: fmt.Sprintf("stock %s requires a location", mode)}
		}
	}

	item, err := s.svc.Catalog.GetItemBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}

	var change *core.StockChange
	switch mode {
	case AdjustAggregate:
		change, err = s.svc.Ledger.SetAggregateOnly(ctx, actor, item.ID, req.Quantity)
	case AdjustReconcile:
		change, err = s.svc.Ledger.Reconcile(ctx, actor, item.ID)
	default:
		loc, lerr := s.svc.Catalog.GetLocationByCode(ctx, req.LocationCode)
		if lerr != nil {
			return nil, lerr
		}
		switch mode {
		case AdjustSet:
			change, err = s.svc.Ledger.SetDetail(ctx, actor, item.ID, loc.ID, req.Quantity)
		case AdjustIncrement:
			change, err = s.svc.Ledger.IncrementDetail(ctx, actor, item.ID, loc.ID, req.Quantity)
		default:
			change, err = s.svc.Ledger.DecrementDetail(ctx, actor, item.ID, loc.ID, req.Quantity)
		}
		if err != nil {
			return nil, err
		}
		return &StockChangeResult{
			SKU:          item.SKU,
			LocationCode: loc.Code,
			Detail:       change.Detail.InexactFloat64(),
			Aggregate:    change.Aggregate.InexactFloat64(),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &StockChangeResult{SKU: item.SKU, Aggregate: change.Aggregate.InexactFloat64()}, nil
}

// ── Production ───────────────────────────────────────────────────────────────

func (s *appService) RunProduction(ctx context.Context, actor core.Actor, req RunProductionRequest) (*ProductionRunResult, error) {
	if err := actor.Authorize("run production", core.RoleOperator); err != nil {
		return nil, err
	}
	item, err := s.svc.Catalog.GetItemBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	preq := core.ProductionRequest{ItemID: item.ID, Quantity: req.Quantity, Serials: req.Serials}
	if req.LocationCode != "" {
		loc, err := s.svc.Catalog.GetLocationByCode(ctx, req.LocationCode)
		if err != nil {
			return nil, err
		}
		preq.LocationID = &loc.ID
	}
	run, err := s.svc.Assembly.RunProduction(ctx, actor, preq)
	if err != nil {
		return nil, err
	}
	return s.productionRunResult(ctx, run)
}

func (s *appService) UpdateProductionRun(ctx context.Context, actor core.Actor, req UpdateProductionRunRequest) (*ProductionRunResult, error) {
	run, err := s.svc.Assembly.UpdateProductionRun(ctx, actor, req.RunID, req.Quantity)
	if err != nil {
		return nil, err
	}
	return s.productionRunResult(ctx, run)
}

func (s *appService) GetProductionRun(ctx context.Context, runID int) (*ProductionRunResult, error) {
	run, err := s.svc.Assembly.GetProductionRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.productionRunResult(ctx, run)
}

func (s *appService) ListProductionRuns(ctx context.Context, sku string) (*ProductionRunListResult, error) {
	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	runs, err := s.svc.Assembly.ListProductionRuns(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	codes, err := s.locationCodes(ctx)
	if err != nil {
		return nil, err
	}
	res := &ProductionRunListResult{Runs: make([]ProductionRunResult, len(runs))}
	for i := range runs {
		res.Runs[i] = productionRunView(&runs[i], codes)
	}
	return res, nil
}

func (s *appService) productionRunResult(ctx context.Context, run *core.ProductionRun) (*ProductionRunResult, error) {
	codes, err := s.locationCodes(ctx)
	if err != nil {
		return nil, err
	}
	res := productionRunView(run, codes)
	return &res, nil
}

func productionRunView(run *core.ProductionRun, codes map[int]string) ProductionRunResult {
	res := ProductionRunResult{
		ID:        run.ID,
		SKU:       run.SKU,
		Quantity:  run.Quantity.InexactFloat64(),
		Status:    string(run.Status),
		Serials:   run.Serials,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}
	if run.LocationID != nil {
		res.LocationCode = codes[*run.LocationID]
	}
	return res
}

// locationCodes maps location ids to codes for presentation.
func (s *appService) locationCodes(ctx context.Context) (map[int]string, error) {
	locations, err := s.svc.Catalog.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[int]string, len(locations))
	for _, l := range locations {
		codes[l.ID] = l.Code
	}
	return codes, nil
}

// ── Transfers ────────────────────────────────────────────────────────────────

func (s *appService) CreateTransfer(ctx context.Context, actor core.Actor, req CreateTransferRequest) (*ShipmentResult, error) {
	if err := actor.Authorize("create transfer", core.RoleOperator); err != nil {
		return nil, err
	}
	if req.FromLocation == "" || req.ToLocation == "" {
		return nil, &core.ValidationError{Message: "transfer requires both a source and a destination location"}
	}
	from, err := s.svc.Catalog.GetLocationByCode(ctx, req.FromLocation)
	if err != nil {
		return nil, err
	}
	to, err := s.svc.Catalog.GetLocationByCode(ctx, req.ToLocation)
	if err != nil {
		return nil, err
	}

	treq := core.TransferRequest{SourceLocationID: from.ID, DestinationLocationID: to.ID, Notes: req.Notes}
	for _, p := range req.Packages {
		pkg := core.PackageInput{Label: p.Label}
		for _, l := range p.Lines {
			item, err := s.svc.Catalog.GetItemBySKU(ctx, l.SKU)
			if err != nil {
				return nil, err
			}
			pkg.Items = append(pkg.Items, core.PackageItemInput{ItemID: item.ID, Quantity: l.Quantity})
		}
		treq.Packages = append(treq.Packages, pkg)
	}

	sh, err := s.svc.Transfers.CreateTransfer(ctx, actor, treq)
	if err != nil {
		return nil, err
	}
	return s.shipmentResult(ctx, sh)
}

func (s *appService) CompleteTransfer(ctx context.Context, actor core.Actor, shipmentID int) (*ShipmentResult, error) {
	sh, err := s.svc.Transfers.CompleteTransfer(ctx, actor, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.shipmentResult(ctx, sh)
}

func (s *appService) GetShipment(ctx context.Context, shipmentID int) (*ShipmentResult, error) {
	sh, err := s.svc.Transfers.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.shipmentResult(ctx, sh)
}

func (s *appService) shipmentResult(ctx context.Context, sh *core.Shipment) (*ShipmentResult, error) {
	codes, err := s.locationCodes(ctx)
	if err != nil {
		return nil, err
	}
	res := &ShipmentResult{
		ID:         sh.ID,
		Kind:       string(sh.Kind),
		Status:     string(sh.Status),
		ReceivedAt: sh.ReceivedAt,
		CreatedAt:  sh.CreatedAt,
		Packages:   make([]PackageView, len(sh.Packages)),
	}
	if sh.SourceLocationID != nil {
		res.FromLocation = codes[*sh.SourceLocationID]
	}
	if sh.DestinationLocationID != nil {
		res.ToLocation = codes[*sh.DestinationLocationID]
	}
	if sh.Notes != nil {
		res.Notes = *sh.Notes
	}
	for i, p := range sh.Packages {
		pv := PackageView{ID: p.ID, Label: p.Label, Lines: make([]PackageLineView, len(p.Items))}
		for j, it := range p.Items {
			pv.Lines[j] = PackageLineView{SKU: it.SKU, Quantity: it.Quantity.InexactFloat64()}
		}
		res.Packages[i] = pv
	}
	return res, nil
}

// ── Purchasing ───────────────────────────────────────────────────────────────

func (s *appService) CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	if err := actor.Authorize("create purchase order", core.RoleOperator); err != nil {
		return nil, err
	}
	lines := make([]core.PurchaseOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		item, err := s.svc.Catalog.GetItemBySKU(ctx, l.SKU)
		if err != nil {
			return nil, err
		}
		lines = append(lines, core.PurchaseOrderLineInput{ItemID: item.ID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	po, err := s.svc.Receiving.CreatePurchaseOrder(ctx, actor,
		strings.TrimSpace(req.Reference), strings.TrimSpace(req.Supplier), req.Notes, lines)
	if err != nil {
		return nil, err
	}
	return purchaseOrderResult(po), nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrderResult, error) {
	po, err := s.svc.Receiving.GetPurchaseOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return purchaseOrderResult(po), nil
}

func (s *appService) ListPurchaseOrders(ctx context.Context, status string) (*PurchaseOrderListResult, error) {
	st := core.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch st {
	case "", core.OrderOpen, core.OrderPartial, core.OrderCompleted:
	default:
		return nil, &core.ValidationError{Message: fmt.Sprintf("unknown purchase order status %q", status)}
	}
	orders, err := s.svc.Receiving.ListPurchaseOrders(ctx, st)
	if err != nil {
		return nil, err
	}
	res := &PurchaseOrderListResult{Orders: make([]PurchaseOrderResult, len(orders))}
	for i := range orders {
		res.Orders[i] = *purchaseOrderResult(&orders[i])
	}
	return res, nil
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePORequest) (*PurchaseOrderResult, error) {
	if err := actor.Authorize("receive purchase order", core.RoleOperator); err != nil {
		return nil, err
	}
	if req.LocationCode == "" {
		return nil, &core.ValidationError{Message: "receiving requires a location"}
	}
	loc, err := s.svc.Catalog.GetLocationByCode(ctx, req.LocationCode)
	if err != nil {
		return nil, err
	}
	lines := make([]core.ReceiptLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.ReceiptLine{POLineID: l.POLineID, Qty: l.QtyReceived}
	}
	po, err := s.svc.Receiving.Receive(ctx, actor, req.OrderID, lines, loc.ID)
	if err != nil {
		return nil, err
	}
	return purchaseOrderResult(po), nil
}

func purchaseOrderResult(po *core.PurchaseOrder) *PurchaseOrderResult {
	res := &PurchaseOrderResult{
		ID:         po.ID,
		Reference:  po.Reference,
		Supplier:   po.Supplier,
		Status:     string(po.Status),
		CreatedAt:  po.CreatedAt,
		ReceivedAt: po.ReceivedAt,
	}
	if po.Notes != nil {
		res.Notes = *po.Notes
	}
	for _, l := range po.Lines {
		res.Lines = append(res.Lines, POLineView{
			ID:          l.ID,
			LineNumber:  l.LineNumber,
			SKU:         l.SKU,
			OrderedQty:  l.OrderedQty.InexactFloat64(),
			ReceivedQty: l.ReceivedQty.InexactFloat64(),
			Outstanding: l.Outstanding().InexactFloat64(),
			UnitCost:    l.UnitCost.InexactFloat64(),
		})
	}
	return res
}

// ── Reconciliation ───────────────────────────────────────────────────────────

func (s *appService) RunReconciliation(ctx context.Context, actor core.Actor) (*ReconciliationResult, error) {
	report, err := s.svc.Reconciliation.Run(ctx, actor)
	if err != nil {
		return nil, err
	}
	res := &ReconciliationResult{
		RunID:    report.RunID.String(),
		Checked:  report.Checked,
		Repaired: []ReconciliationView{},
		Failed:   []ReconciliationView{},
	}
	for _, o := range report.Repaired {
		res.Repaired = append(res.Repaired, reconciliationView(o))
	}
	for _, o := range report.Failed {
		res.Failed = append(res.Failed, reconciliationView(o))
	}
	return res, nil
}

func (s *appService) ReconcileItem(ctx context.Context, actor core.Actor, sku string) (*ReconcileItemResult, error) {
	if err := actor.Authorize("run reconciliation", core.RoleAdmin); err != nil {
		return nil, err
	}
	item, err := s.svc.Catalog.GetItemBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Reconciliation.ReconcileItem(ctx, actor, item.ID)
	if err != nil {
		return nil, err
	}
	res := &ReconcileItemResult{SKU: item.SKU}
	if out != nil {
		view := reconciliationView(*out)
		res.Drifted = true
		res.Outcome = &view
	}
	return res, nil
}

func (s *appService) GetReconciliationReport(ctx context.Context, runID string) (*ReconciliationResult, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, &core.ValidationError{Message: fmt.Sprintf("invalid run id %q", runID)}
	}
	outcomes, err := s.svc.Reconciliation.Report(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &ReconciliationResult{RunID: id.String(), Repaired: []ReconciliationView{}, Failed: []ReconciliationView{}}
	for _, o := range outcomes {
		if o.Outcome == core.OutcomeRepaired {
			res.Repaired = append(res.Repaired, reconciliationView(o))
		} else {
			res.Failed = append(res.Failed, reconciliationView(o))
		}
	}
	return res, nil
}

func reconciliationView(o core.ReconciliationOutcome) ReconciliationView {
	return ReconciliationView{
		SKU:        o.SKU,
		Aggregate:  o.Aggregate.InexactFloat64(),
		DetailSum:  o.DetailSum.InexactFloat64(),
		Adjustment: o.Adjustment.InexactFloat64(),
		Outcome:    string(o.Outcome),
		Details:    o.Details,
	}
}
