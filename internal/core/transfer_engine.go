package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransferEngine moves stock between two locations through a TRANSFER shipment.
type TransferEngine interface {
	// CreateTransfer stores a DRAFT transfer shipment with its packages. No stock moves yet.
	CreateTransfer(ctx context.Context, actor Actor, req TransferRequest) (*Shipment, error)

	// CompleteTransfer checks every package line against the source location, then moves
	// all of them at once and marks the shipment COMPLETED. A completed shipment is rejected.
	CompleteTransfer(ctx context.Context, actor Actor, shipmentID int) (*Shipment, error)

	GetShipment(ctx context.Context, shipmentID int) (*Shipment, error)
}

type transferEngine struct {
	pool   *pgxpool.Pool
	ledger StockLedger
	obs    observers
}

// NewTransferEngine constructs a TransferEngine. audit and stock may be nil.
func NewTransferEngine(pool *pgxpool.Pool, ledger StockLedger, audit AuditLog, stock StockPublisher) TransferEngine {
	return &transferEngine{pool: pool, ledger: ledger, obs: newObservers(pool, audit, stock)}
}

func (e *transferEngine) CreateTransfer(ctx context.Context, actor Actor, req TransferRequest) (*Shipment, error) {
	if err := actor.Authorize("create transfer", RoleOperator); err != nil {
		return nil, err
	}
	if req.SourceLocationID == 0 || req.DestinationLocationID == 0 {
		return nil, &ValidationError{Message: "transfer requires both a source and a destination location"}
	}
	if req.SourceLocationID == req.DestinationLocationID {
		return nil, &ValidationError{Message: "transfer source and destination must differ"}
	}
	if len(req.Packages) == 0 {
		return nil, &ValidationError{Message: "transfer must contain at least one package"}
	}
	for i, p := range req.Packages {
		if len(p.Items) == 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("package %d has no items", i+1)}
		}
		for j, it := range p.Items {
			if err := requirePositive(it.Quantity, fmt.Sprintf("package %d line %d quantity", i+1, j+1)); err != nil {
				return nil, err
			}
		}
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := locationCodeTx(ctx, tx, req.SourceLocationID); err != nil {
		return nil, err
	}
	if _, err := locationCodeTx(ctx, tx, req.DestinationLocationID); err != nil {
		return nil, err
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	var shipmentID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO shipments (kind, status, source_location_id, destination_location_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		ShipmentTransfer, ShipmentDraft, req.SourceLocationID, req.DestinationLocationID, notes, actor.UserID,
	).Scan(&shipmentID); err != nil {
		return nil, translatePgError(err, "insert shipment")
	}

	for i, p := range req.Packages {
		var packageID int
		if err := tx.QueryRow(ctx,
			"INSERT INTO packages (shipment_id, label) VALUES ($1, $2) RETURNING id",
			shipmentID, p.Label,
		).Scan(&packageID); err != nil {
			return nil, translatePgError(err, fmt.Sprintf("insert package %d", i+1))
		}
		for j, it := range p.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO package_items (package_id, item_id, quantity, serialized_unit_id)
				VALUES ($1, $2, $3, $4)`,
				packageID, it.ItemID, it.Quantity, it.SerializedUnitID,
			); err != nil {
				return nil, translatePgError(err, fmt.Sprintf("insert package %d line %d", i+1, j+1))
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}

	e.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "transfer.create",
		EntityID: fmt.Sprintf("shipment:%d", shipmentID),
		Detail:   fmt.Sprintf("location %d -> %d, %d package(s)", req.SourceLocationID, req.DestinationLocationID, len(req.Packages)),
	})
	return e.GetShipment(ctx, shipmentID)
}

func (e *transferEngine) CompleteTransfer(ctx context.Context, actor Actor, shipmentID int) (*Shipment, error) {
	if err := actor.Authorize("complete transfer", RoleOperator); err != nil {
		return nil, err
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var kind ShipmentKind
	var status ShipmentStatus
	var source, destination *int
	if err := tx.QueryRow(ctx, `
		SELECT kind, status, source_location_id, destination_location_id
		FROM shipments
		WHERE id = $1
		FOR UPDATE`,
		shipmentID,
	).Scan(&kind, &status, &source, &destination); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "shipment", Key: fmt.Sprint(shipmentID)}
		}
		return nil, fmt.Errorf("fetch shipment %d: %w", shipmentID, err)
	}

	if status == ShipmentCompleted {
		return nil, &ConflictError{Message: fmt.Sprintf("transfer %d is already completed", shipmentID)}
	}
	if kind != ShipmentTransfer {
		return nil, &ValidationError{Message: fmt.Sprintf("shipment %d is not a transfer (kind %s)", shipmentID, kind)}
	}
	if source == nil || destination == nil {
		return nil, &ValidationError{Message: fmt.Sprintf("transfer %d requires both a source and a destination location", shipmentID)}
	}
	if *source == *destination {
		return nil, &ValidationError{Message: fmt.Sprintf("transfer %d source and destination must differ", shipmentID)}
	}

	lines, err := fetchPackageItems(ctx, tx, shipmentID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("transfer %d has no package items", shipmentID)}
	}

	// Totals per item, so an item split over several packages is checked once in full.
	totals := make(map[int]decimal.Decimal)
	var ids []int
	for _, l := range lines {
		if _, ok := totals[l.ItemID]; !ok {
			ids = append(ids, l.ItemID)
		}
		totals[l.ItemID] = totals[l.ItemID].Add(l.Quantity)
	}
	items, err := e.ledger.LockItemsTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	sourceCode, err := locationCodeTx(ctx, tx, *source)
	if err != nil {
		return nil, err
	}
	if _, err := locationCodeTx(ctx, tx, *destination); err != nil {
		return nil, err
	}

	for _, id := range uniqueSorted(ids) {
		available, err := e.ledger.DetailQuantityTx(ctx, tx, id, *source)
		if err != nil {
			return nil, err
		}
		if available.LessThan(totals[id]) {
			return nil, &InsufficientStockError{SKU: items[id].SKU, Location: sourceCode, Required: totals[id], Available: available}
		}
	}

	changes := make([]StockChange, 0, 2*len(lines))
	for _, l := range lines {
		out, err := e.ledger.DecrementDetailTx(ctx, tx, l.ItemID, *source, l.Quantity)
		if err != nil {
			return nil, err
		}
		in, err := e.ledger.IncrementDetailTx(ctx, tx, l.ItemID, *destination, l.Quantity)
		if err != nil {
			return nil, err
		}
		changes = append(changes, out, in)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE shipments SET status = $1, received_at = NOW()
		WHERE id = $2`,
		ShipmentCompleted, shipmentID,
	); err != nil {
		return nil, fmt.Errorf("complete shipment %d: %w", shipmentID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transfer %d: %w", shipmentID, err)
	}

	e.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "transfer.complete",
		EntityID: fmt.Sprintf("shipment:%d", shipmentID),
		Detail:   fmt.Sprintf("%d line(s) moved from %s", len(lines), sourceCode),
	}, changes...)
	return e.GetShipment(ctx, shipmentID)
}

func (e *transferEngine) GetShipment(ctx context.Context, shipmentID int) (*Shipment, error) {
	sh := &Shipment{ID: shipmentID}
	if err := e.pool.QueryRow(ctx, `
		SELECT kind, status, source_location_id, destination_location_id, notes, received_at, created_by, created_at
		FROM shipments
		WHERE id = $1`,
		shipmentID,
	).Scan(&sh.Kind, &sh.Status, &sh.SourceLocationID, &sh.DestinationLocationID,
		&sh.Notes, &sh.ReceivedAt, &sh.CreatedBy, &sh.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "shipment", Key: fmt.Sprint(shipmentID)}
		}
		return nil, fmt.Errorf("get shipment %d: %w", shipmentID, err)
	}

	rows, err := e.pool.Query(ctx, `
		SELECT id, label FROM packages WHERE shipment_id = $1 ORDER BY id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch packages for shipment %d: %w", shipmentID, err)
	}
	index := make(map[int]int)
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Label); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan package: %w", err)
		}
		p.ShipmentID = shipmentID
		index[p.ID] = len(sh.Packages)
		sh.Packages = append(sh.Packages, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	items, err := fetchPackageItems(ctx, e.pool, shipmentID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		at := index[it.PackageID]
		sh.Packages[at].Items = append(sh.Packages[at].Items, it)
	}
	return sh, nil
}

func fetchPackageItems(ctx context.Context, q querier, shipmentID int) ([]PackageItem, error) {
	rows, err := q.Query(ctx, `
		SELECT pi.id, pi.package_id, pi.item_id, i.sku, pi.quantity, pi.serialized_unit_id
		FROM package_items pi
		JOIN packages p ON p.id = pi.package_id
		JOIN items i    ON i.id = pi.item_id
		WHERE p.shipment_id = $1
		ORDER BY p.id, pi.id`,
		shipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch package items for shipment %d: %w", shipmentID, err)
	}
	defer rows.Close()

	var items []PackageItem
	for rows.Next() {
		var it PackageItem
		if err := rows.Scan(&it.ID, &it.PackageID, &it.ItemID, &it.SKU, &it.Quantity, &it.SerializedUnitID); err != nil {
			return nil, fmt.Errorf("scan package item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
