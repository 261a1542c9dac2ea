package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AssemblyEngine turns component stock into finished-good stock according to a
// single-level BOM. A run either commits completely or leaves every row untouched.
type AssemblyEngine interface {
	// RunProduction validates the whole BOM against current stock, then consumes every
	// component and adds quantity units of the parent in one transaction.
	RunProduction(ctx context.Context, actor Actor, req ProductionRequest) (*ProductionRun, error)

	// UpdateProductionRun changes a past run's quantity. The delta is priced against the
	// BOM as it is now, not as it was when the run happened.
	UpdateProductionRun(ctx context.Context, actor Actor, runID int, newQuantity decimal.Decimal) (*ProductionRun, error)

	GetProductionRun(ctx context.Context, runID int) (*ProductionRun, error)
	ListProductionRuns(ctx context.Context, itemID int) ([]ProductionRun, error)
}

type assemblyEngine struct {
	pool   *pgxpool.Pool
	ledger StockLedger
	obs    observers
}

// NewAssemblyEngine constructs an AssemblyEngine. audit and stock may be nil.
func NewAssemblyEngine(pool *pgxpool.Pool, ledger StockLedger, audit AuditLog, stock StockPublisher) AssemblyEngine {
	return &assemblyEngine{pool: pool, ledger: ledger, obs: newObservers(pool, audit, stock)}
}

func (e *assemblyEngine) RunProduction(ctx context.Context, actor Actor, req ProductionRequest) (*ProductionRun, error) {
	if err := actor.Authorize("run production", RoleOperator); err != nil {
		return nil, err
	}
	if err := requirePositive(req.Quantity, "production quantity"); err != nil {
		return nil, err
	}
	serials := normalizeSerials(req.Serials)

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	bom, err := e.loadBOMTx(ctx, tx, req.ItemID)
	if err != nil {
		return nil, err
	}

	// Lock parent and components together, ascending by id, before reading availability.
	ids := []int{req.ItemID}
	for _, l := range bom {
		ids = append(ids, l.ChildItemID)
	}
	items, err := e.ledger.LockItemsTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	parent := items[req.ItemID]

	reqs := requirementsFor(bom, req.Quantity)
	if err := checkAvailability(reqs, items); err != nil {
		return nil, err
	}

	if err := validateSerials(parent, req.Quantity, serials); err != nil {
		return nil, err
	}
	if err := ensureSerialsUnusedTx(ctx, tx, serials); err != nil {
		return nil, err
	}

	mutations := make([]StockMutation, 0, len(reqs)+1)
	for _, r := range reqs {
		mutations = append(mutations, StockMutation{ItemID: r.ItemID, LocationID: req.LocationID, Delta: r.Required.Neg()})
	}
	mutations = append(mutations, StockMutation{ItemID: req.ItemID, LocationID: req.LocationID, Delta: req.Quantity})

	changes, err := e.ledger.ApplyTx(ctx, tx, mutations)
	if err != nil {
		return nil, err
	}

	run := &ProductionRun{
		ItemID:     req.ItemID,
		SKU:        parent.SKU,
		LocationID: req.LocationID,
		Quantity:   req.Quantity,
		Status:     RunStatusCompleted,
		CreatedBy:  actor.UserID,
		Serials:    serials,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO production_runs (item_id, location_id, quantity, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		run.ItemID, run.LocationID, run.Quantity, run.Status, run.CreatedBy,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, translatePgError(err, "insert production run")
	}

	for _, serial := range serials {
		if _, err := tx.Exec(ctx, `
			INSERT INTO serialized_units (serial, item_id, status, production_run_id)
			VALUES ($1, $2, $3, $4)`,
			serial, run.ItemID, SerialInStock, run.ID,
		); err != nil {
			return nil, translatePgError(err, fmt.Sprintf("serial %s", serial))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit production run: %w", err)
	}

	e.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "production.run",
		EntityID: fmt.Sprintf("run:%d", run.ID),
		Detail:   fmt.Sprintf("produced %s x %s from %d component(s)", run.Quantity.String(), run.SKU, len(reqs)),
	}, changes...)
	return run, nil
}

func (e *assemblyEngine) UpdateProductionRun(ctx context.Context, actor Actor, runID int, newQuantity decimal.Decimal) (*ProductionRun, error) {
	if err := actor.Authorize("edit production run", RoleOperator); err != nil {
		return nil, err
	}
	if err := requirePositive(newQuantity, "production quantity"); err != nil {
		return nil, err
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	run := &ProductionRun{ID: runID}
	if err := tx.QueryRow(ctx, `
		SELECT item_id, location_id, quantity, status, created_by, created_at, updated_at
		FROM production_runs
		WHERE id = $1
		FOR UPDATE`,
		runID,
	).Scan(&run.ItemID, &run.LocationID, &run.Quantity, &run.Status, &run.CreatedBy, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "production run", Key: fmt.Sprint(runID)}
		}
		return nil, fmt.Errorf("fetch production run %d: %w", runID, err)
	}

	delta := newQuantity.Sub(run.Quantity)
	if delta.IsZero() {
		return e.GetProductionRun(ctx, runID)
	}

	// Current BOM, not a snapshot from run time.
	bom, err := e.loadBOMTx(ctx, tx, run.ItemID)
	if err != nil {
		return nil, err
	}
	ids := []int{run.ItemID}
	for _, l := range bom {
		ids = append(ids, l.ChildItemID)
	}
	items, err := e.ledger.LockItemsTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	parent := items[run.ItemID]
	// Units carry their own serials; changing the count would leave them out of step with stock.
	if parent.IsSerialized {
		return nil, &ValidationError{Message: fmt.Sprintf("run %d produced serialized %s; its quantity cannot be edited", runID, parent.SKU)}
	}

	var mutations []StockMutation
	if delta.IsPositive() {
		reqs := requirementsFor(bom, delta)
		if err := checkAvailability(reqs, items); err != nil {
			return nil, err
		}
		for _, r := range reqs {
			mutations = append(mutations, StockMutation{ItemID: r.ItemID, LocationID: run.LocationID, Delta: r.Required.Neg()})
		}
		mutations = append(mutations, StockMutation{ItemID: run.ItemID, LocationID: run.LocationID, Delta: delta})
	} else {
		// Components come back unconditionally; the parent may go below zero on the
		// aggregate tier if the produced units were already used downstream.
		back := delta.Neg()
		for _, r := range requirementsFor(bom, back) {
			mutations = append(mutations, StockMutation{ItemID: r.ItemID, LocationID: run.LocationID, Delta: r.Required})
		}
		mutations = append(mutations, StockMutation{ItemID: run.ItemID, LocationID: run.LocationID, Delta: delta})
	}

	changes, err := e.ledger.ApplyTx(ctx, tx, mutations)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE production_runs SET quantity = $1, updated_at = NOW()
		WHERE id = $2`,
		newQuantity, runID,
	); err != nil {
		return nil, translatePgError(err, "update production run")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit production run update: %w", err)
	}

	e.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "production.update",
		EntityID: fmt.Sprintf("run:%d", runID),
		Detail:   fmt.Sprintf("quantity %s -> %s (%s)", run.Quantity.String(), newQuantity.String(), parent.SKU),
	}, changes...)
	return e.GetProductionRun(ctx, runID)
}

// loadBOMTx returns the parent's BOM or a NotFoundError naming what is missing.
func (e *assemblyEngine) loadBOMTx(ctx context.Context, tx pgx.Tx, parentItemID int) ([]BOMLine, error) {
	bom, err := queryBOM(ctx, tx, parentItemID)
	if err != nil {
		return nil, err
	}
	if len(bom) > 0 {
		return bom, nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)", parentItemID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check item %d: %w", parentItemID, err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "item", Key: fmt.Sprint(parentItemID)}
	}
	return nil, &NotFoundError{Entity: "BOM definition for item", Key: fmt.Sprint(parentItemID)}
}

func ensureSerialsUnusedTx(ctx context.Context, tx pgx.Tx, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	var taken string
	err := tx.QueryRow(ctx, `
		SELECT serial FROM serialized_units
		WHERE serial = ANY($1)
		ORDER BY serial
		LIMIT 1`,
		serials,
	).Scan(&taken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check serial uniqueness: %w", err)
	}
	return &ConflictError{Message: fmt.Sprintf("serial already exists: %s", taken)}
}

func normalizeSerials(serials []string) []string {
	if len(serials) == 0 {
		return nil
	}
	out := make([]string, len(serials))
	for i, s := range serials {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func (e *assemblyEngine) GetProductionRun(ctx context.Context, runID int) (*ProductionRun, error) {
	run := &ProductionRun{ID: runID}
	if err := e.pool.QueryRow(ctx, `
		SELECT pr.item_id, i.sku, pr.location_id, pr.quantity, pr.status, pr.created_by, pr.created_at, pr.updated_at
		FROM production_runs pr
		JOIN items i ON i.id = pr.item_id
		WHERE pr.id = $1`,
		runID,
	).Scan(&run.ItemID, &run.SKU, &run.LocationID, &run.Quantity, &run.Status, &run.CreatedBy, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "production run", Key: fmt.Sprint(runID)}
		}
		return nil, fmt.Errorf("get production run %d: %w", runID, err)
	}

	rows, err := e.pool.Query(ctx,
		"SELECT serial FROM serialized_units WHERE production_run_id = $1 ORDER BY serial", runID)
	if err != nil {
		return nil, fmt.Errorf("fetch serials for run %d: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan serial: %w", err)
		}
		run.Serials = append(run.Serials, s)
	}
	return run, rows.Err()
}

func (e *assemblyEngine) ListProductionRuns(ctx context.Context, itemID int) ([]ProductionRun, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT pr.id, pr.item_id, i.sku, pr.location_id, pr.quantity, pr.status, pr.created_by, pr.created_at, pr.updated_at
		FROM production_runs pr
		JOIN items i ON i.id = pr.item_id
		WHERE pr.item_id = $1
		ORDER BY pr.created_at DESC, pr.id DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list production runs: %w", err)
	}
	defer rows.Close()

	var runs []ProductionRun
	for rows.Next() {
		var r ProductionRun
		if err := rows.Scan(&r.ID, &r.ItemID, &r.SKU, &r.LocationID, &r.Quantity, &r.Status,
			&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan production run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
