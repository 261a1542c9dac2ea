package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockLedger owns the two-tier quantity representation: items.aggregate_qty and
// the per-location stock_details rows. Engines mutate stock only through it.
type StockLedger interface {
	// Standalone operations (manage their own transactions, authorize, audit).

	// SetDetail upserts the detail row to qty and recomputes the aggregate as the sum of details.
	SetDetail(ctx context.Context, actor Actor, itemID, locationID int, qty decimal.Decimal) (*StockChange, error)
	// IncrementDetail adds delta to one detail row and to the aggregate.
	IncrementDetail(ctx context.Context, actor Actor, itemID, locationID int, delta decimal.Decimal) (*StockChange, error)
	// DecrementDetail subtracts delta from one detail row and from the aggregate.
	// Fails with InsufficientStockError if the detail would go negative.
	DecrementDetail(ctx context.Context, actor Actor, itemID, locationID int, delta decimal.Decimal) (*StockChange, error)
	// SetAggregateOnly overwrites the aggregate without touching detail rows. Legacy path for
	// callers with no location context; the tiers may diverge until reconciliation.
	SetAggregateOnly(ctx context.Context, actor Actor, itemID int, qty decimal.Decimal) (*StockChange, error)
	// Reconcile recomputes the aggregate as the sum of the item's detail rows. Admin only,
	// like the reconciliation job.
	Reconcile(ctx context.Context, actor Actor, itemID int) (*StockChange, error)

	ListDetails(ctx context.Context, itemID int) ([]StockDetail, error)
	StockLevels(ctx context.Context) ([]StockLevelView, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Callers lock every item they will touch with LockItemsTx first.

	LockItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []int) (map[int]*Item, error)
	DetailQuantityTx(ctx context.Context, tx pgx.Tx, itemID, locationID int) (decimal.Decimal, error)
	DetailSumTx(ctx context.Context, tx pgx.Tx, itemID int) (sum decimal.Decimal, rows int, err error)
	SetDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int, qty decimal.Decimal) (StockChange, error)
	IncrementDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int, delta decimal.Decimal) (StockChange, error)
	DecrementDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int, delta decimal.Decimal) (StockChange, error)
	SetAggregateOnlyTx(ctx context.Context, tx pgx.Tx, itemID int, qty decimal.Decimal) (StockChange, error)
	// AdjustAggregateOnlyTx moves the aggregate by delta with no lower bound; callers check availability.
	AdjustAggregateOnlyTx(ctx context.Context, tx pgx.Tx, itemID int, delta decimal.Decimal) (StockChange, error)
	ReconcileTx(ctx context.Context, tx pgx.Tx, itemID int) (StockChange, error)
	// RepairDetailTx shifts the detail row at locationID so the sum of details equals the
	// aggregate again. It returns the applied adjustment (zero when within Tolerance).
	RepairDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int) (StockChange, decimal.Decimal, error)
	// ApplyTx applies tagged mutations in ascending item order.
	ApplyTx(ctx context.Context, tx pgx.Tx, mutations []StockMutation) ([]StockChange, error)
}

type stockLedger struct {
	pool *pgxpool.Pool
	obs  observers
}

// NewStockLedger constructs the PostgreSQL StockLedger. audit and stock may be nil.
func NewStockLedger(pool *pgxpool.Pool, audit AuditLog, stock StockPublisher) StockLedger {
	return &stockLedger{pool: pool, obs: newObservers(pool, audit, stock)}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *stockLedger) SetDetail(ctx context.Context, actor Actor, itemID, locationID int, qty decimal.Decimal) (*StockChange, error) {
	if err := actor.Authorize("set stock", RoleOperator); err != nil {
		return nil, err
	}
	return s.standalone(ctx, actor, "stock.set_detail",
		fmt.Sprintf("set location %d to %s", locationID, qty.String()),
		func(tx pgx.Tx) (StockChange, error) {
			return s.SetDetailTx(ctx, tx, itemID, locationID, qty)
		})
}

func (s *stockLedger) IncrementDetail(ctx context.Context, actor Actor, itemID, locationID int, delta decimal.Decimal) (*StockChange, error) {
	if err := actor.Authorize("adjust stock", RoleOperator); err != nil {
		return nil, err
	}
	if err := requirePositive(delta, "increment"); err != nil {
		return nil, err
	}
	return s.standalone(ctx, actor, "stock.increment",
		fmt.Sprintf("+%s at location %d", delta.String(), locationID),
		func(tx pgx.Tx) (StockChange, error) {
			return s.IncrementDetailTx(ctx, tx, itemID, locationID, delta)
		})
}

func (s *stockLedger) DecrementDetail(ctx context.Context, actor Actor, itemID, locationID int, delta decimal.Decimal) (*StockChange, error) {
	if err := actor.Authorize("adjust stock", RoleOperator); err != nil {
		return nil, err
	}
	if err := requirePositive(delta, "decrement"); err != nil {
		return nil, err
	}
	return s.standalone(ctx, actor, "stock.decrement",
		fmt.Sprintf("-%s at location %d", delta.String(), locationID),
		func(tx pgx.Tx) (StockChange, error) {
			return s.DecrementDetailTx(ctx, tx, itemID, locationID, delta)
		})
}

func (s *stockLedger) SetAggregateOnly(ctx context.Context, actor Actor, itemID int, qty decimal.Decimal) (*StockChange, error) {
	if err := actor.Authorize("overwrite aggregate stock", RoleAdmin); err != nil {
		return nil, err
	}
	return s.standalone(ctx, actor, "stock.set_aggregate",
		fmt.Sprintf("aggregate set to %s without location", qty.String()),
		func(tx pgx.Tx) (StockChange, error) {
			return s.SetAggregateOnlyTx(ctx, tx, itemID, qty)
		})
}

func (s *stockLedger) Reconcile(ctx context.Context, actor Actor, itemID int) (*StockChange, error) {
	if err := actor.Authorize("reconcile stock", RoleAdmin); err != nil {
		return nil, err
	}
	return s.standalone(ctx, actor, "stock.reconcile", "aggregate recomputed from detail rows",
		func(tx pgx.Tx) (StockChange, error) {
			return s.ReconcileTx(ctx, tx, itemID)
		})
}

// standalone runs fn in its own transaction and notifies observers after commit.
func (s *stockLedger) standalone(ctx context.Context, actor Actor, action, detail string,
	fn func(tx pgx.Tx) (StockChange, error)) (*StockChange, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	change, err := fn(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s: %w", action, err)
	}

	s.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   action,
		EntityID: change.SKU,
		Detail:   fmt.Sprintf("%s; aggregate now %s", detail, change.Aggregate.String()),
	}, change)
	return &change, nil
}

// ListDetails returns all detail rows of an item ordered by location code.
func (s *stockLedger) ListDetails(ctx context.Context, itemID int) ([]StockDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sd.item_id, sd.location_id, l.code, sd.quantity, sd.updated_at
		FROM stock_details sd
		JOIN locations l ON l.id = sd.location_id
		WHERE sd.item_id = $1
		ORDER BY l.code
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock details: %w", err)
	}
	defer rows.Close()

	var details []StockDetail
	for rows.Next() {
		var d StockDetail
		if err := rows.Scan(&d.ItemID, &d.LocationID, &d.LocationCode, &d.Quantity, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// StockLevels returns every detail row joined with its item, as plain numbers.
func (s *stockLedger) StockLevels(ctx context.Context) ([]StockLevelView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.sku, i.name, l.code, sd.quantity, i.aggregate_qty
		FROM stock_details sd
		JOIN items i     ON i.id = sd.item_id
		JOIN locations l ON l.id = sd.location_id
		ORDER BY i.sku, l.code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevelView
	for rows.Next() {
		var sku, name, code string
		var qty, agg decimal.Decimal
		if err := rows.Scan(&sku, &name, &code, &qty, &agg); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, StockLevelView{
			SKU:          sku,
			ItemName:     name,
			LocationCode: code,
			Quantity:     qty.InexactFloat64(),
			Aggregate:    agg.InexactFloat64(),
		})
	}
	return levels, rows.Err()
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

// LockItemsTx row-locks the given items in ascending id order. Every path that changes
// stock takes these locks first, so two writers never acquire them in opposite orders.
func (s *stockLedger) LockItemsTx(ctx context.Context, tx pgx.Tx, itemIDs []int) (map[int]*Item, error) {
	ids := uniqueSorted(itemIDs)
	if len(ids) == 0 {
		return map[int]*Item{}, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT id, sku, name, kind, aggregate_qty, min_stock, unit_cost, unit_price, is_serialized, created_at
		FROM items
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock items: %w", err)
	}
	defer rows.Close()

	locked := make(map[int]*Item, len(ids))
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.Kind, &it.AggregateQty,
			&it.MinStock, &it.UnitCost, &it.UnitPrice, &it.IsSerialized, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan locked item: %w", err)
		}
		locked[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked items: %w", err)
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, &NotFoundError{Entity: "item", Key: fmt.Sprint(id)}
		}
	}
	return locked, nil
}

func (s *stockLedger) lockItemTx(ctx context.Context, tx pgx.Tx, itemID int) (*Item, error) {
	locked, err := s.LockItemsTx(ctx, tx, []int{itemID})
	if err != nil {
		return nil, err
	}
	return locked[itemID], nil
}

func locationCodeTx(ctx context.Context, tx pgx.Tx, locationID int) (string, error) {
	var code string
	if err := tx.QueryRow(ctx, "SELECT code FROM locations WHERE id = $1", locationID).Scan(&code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &NotFoundError{Entity: "location", Key: fmt.Sprint(locationID)}
		}
		return "", fmt.Errorf("failed to resolve location %d: %w", locationID, err)
	}
	return code, nil
}

// DetailQuantityTx returns the locked detail quantity, zero when the row does not exist.
func (s *stockLedger) DetailQuantityTx(ctx context.Context, tx pgx.Tx, itemID, locationID int) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT quantity FROM stock_details
		WHERE item_id = $1 AND location_id = $2
		FOR UPDATE
	`, itemID, locationID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read stock detail (item %d, location %d): %w", itemID, locationID, err)
	}
	return qty, nil
}

func (s *stockLedger) DetailSumTx(ctx context.Context, tx pgx.Tx, itemID int) (decimal.Decimal, int, error) {
	var sum decimal.Decimal
	var n int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), COUNT(*)
		FROM stock_details WHERE item_id = $1
	`, itemID).Scan(&sum, &n); err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum stock details for item %d: %w", itemID, err)
	}
	return sum, n, nil
}

func (s *stockLedger) SetDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int, qty decimal.Decimal) (StockChange, error) {
	if qty.IsNegative() {
		return StockChange{}, &ValidationError{Message: fmt.Sprintf("stock quantity cannot be negative, got %s", qty)}
	}
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	if _, err := locationCodeTx(ctx, tx, locationID); err != nil {
		return StockChange{}, err
	}

	var detail decimal.Decimal
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_details (item_id, location_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, location_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity
	`, itemID, locationID, qty).Scan(&detail); err != nil {
		return StockChange{}, translatePgError(err, "upsert stock detail")
	}

	agg, err := recomputeAggregateTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	loc := locationID
	return StockChange{ItemID: itemID, SKU: item.SKU, LocationID: &loc, Detail: detail, Aggregate: agg}, nil
}

func (s *stockLedger) IncrementDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int, delta decimal.Decimal) (StockChange, error) {
	if delta.IsNegative() {
		return StockChange{}, &ValidationError{Message: fmt.Sprintf("increment cannot be negative, got %s", delta)}
	}
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	if _, err := locationCodeTx(ctx, tx, locationID); err != nil {
		return StockChange{}, err
	}

	var detail decimal.Decimal
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_details (item_id, location_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity = stock_details.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity
	`, itemID, locationID, delta).Scan(&detail); err != nil {
		return StockChange{}, translatePgError(err, "increment stock detail")
	}

	agg, err := shiftAggregateTx(ctx, tx, itemID, delta)
	if err != nil {
		return StockChange{}, err
	}
	loc := locationID
	return StockChange{ItemID: itemID, SKU: item.SKU, LocationID: &loc, Detail: detail, Aggregate: agg}, nil
}

func (s *stockLedger) DecrementDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int, delta decimal.Decimal) (StockChange, error) {
	if delta.IsNegative() {
		return StockChange{}, &ValidationError{Message: fmt.Sprintf("decrement cannot be negative, got %s", delta)}
	}
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	code, err := locationCodeTx(ctx, tx, locationID)
	if err != nil {
		return StockChange{}, err
	}

	current, err := s.DetailQuantityTx(ctx, tx, itemID, locationID)
	if err != nil {
		return StockChange{}, err
	}
	if current.LessThan(delta) {
		return StockChange{}, &InsufficientStockError{SKU: item.SKU, Location: code, Required: delta, Available: current}
	}

	detail := current.Sub(delta)
	if _, err := tx.Exec(ctx, `
		UPDATE stock_details SET quantity = $1, updated_at = NOW()
		WHERE item_id = $2 AND location_id = $3
	`, detail, itemID, locationID); err != nil {
		return StockChange{}, translatePgError(err, "decrement stock detail")
	}

	agg, err := shiftAggregateTx(ctx, tx, itemID, delta.Neg())
	if err != nil {
		return StockChange{}, err
	}
	loc := locationID
	return StockChange{ItemID: itemID, SKU: item.SKU, LocationID: &loc, Detail: detail, Aggregate: agg}, nil
}

func (s *stockLedger) SetAggregateOnlyTx(ctx context.Context, tx pgx.Tx, itemID int, qty decimal.Decimal) (StockChange, error) {
	if qty.IsNegative() {
		return StockChange{}, &ValidationError{Message: fmt.Sprintf("stock quantity cannot be negative, got %s", qty)}
	}
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}

	var agg decimal.Decimal
	if err := tx.QueryRow(ctx, `
		UPDATE items SET aggregate_qty = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING aggregate_qty
	`, qty, itemID).Scan(&agg); err != nil {
		return StockChange{}, fmt.Errorf("failed to set aggregate for item %s: %w", item.SKU, err)
	}
	return StockChange{ItemID: itemID, SKU: item.SKU, Aggregate: agg}, nil
}

func (s *stockLedger) AdjustAggregateOnlyTx(ctx context.Context, tx pgx.Tx, itemID int, delta decimal.Decimal) (StockChange, error) {
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	agg, err := shiftAggregateTx(ctx, tx, itemID, delta)
	if err != nil {
		return StockChange{}, err
	}
	return StockChange{ItemID: itemID, SKU: item.SKU, Aggregate: agg}, nil
}

func (s *stockLedger) ReconcileTx(ctx context.Context, tx pgx.Tx, itemID int) (StockChange, error) {
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	agg, err := recomputeAggregateTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, err
	}
	return StockChange{ItemID: itemID, SKU: item.SKU, Aggregate: agg}, nil
}

func (s *stockLedger) RepairDetailTx(ctx context.Context, tx pgx.Tx, itemID, locationID int) (StockChange, decimal.Decimal, error) {
	item, err := s.lockItemTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, decimal.Zero, err
	}
	code, err := locationCodeTx(ctx, tx, locationID)
	if err != nil {
		return StockChange{}, decimal.Zero, err
	}

	sum, _, err := s.DetailSumTx(ctx, tx, itemID)
	if err != nil {
		return StockChange{}, decimal.Zero, err
	}
	current, err := s.DetailQuantityTx(ctx, tx, itemID, locationID)
	if err != nil {
		return StockChange{}, decimal.Zero, err
	}

	loc := locationID
	adjustment := item.AggregateQty.Sub(sum)
	if WithinTolerance(item.AggregateQty, sum) {
		return StockChange{ItemID: itemID, SKU: item.SKU, LocationID: &loc, Detail: current, Aggregate: item.AggregateQty},
			decimal.Zero, nil
	}

	repaired := current.Add(adjustment)
	if repaired.IsNegative() {
		return StockChange{}, adjustment, &ConflictError{Message: fmt.Sprintf(
			"cannot repair item %s: detail at %s would become %s", item.SKU, code, repaired.String())}
	}

	var detail decimal.Decimal
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_details (item_id, location_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, location_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity
	`, itemID, locationID, repaired).Scan(&detail); err != nil {
		return StockChange{}, adjustment, translatePgError(err, "repair stock detail")
	}

	return StockChange{ItemID: itemID, SKU: item.SKU, LocationID: &loc, Detail: detail, Aggregate: item.AggregateQty},
		adjustment, nil
}

func (s *stockLedger) ApplyTx(ctx context.Context, tx pgx.Tx, mutations []StockMutation) ([]StockChange, error) {
	ids := make([]int, 0, len(mutations))
	for _, m := range mutations {
		ids = append(ids, m.ItemID)
	}
	if _, err := s.LockItemsTx(ctx, tx, ids); err != nil {
		return nil, err
	}

	ordered := make([]StockMutation, len(mutations))
	copy(ordered, mutations)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ItemID < ordered[j].ItemID })

	changes := make([]StockChange, 0, len(ordered))
	for _, m := range ordered {
		var (
			c   StockChange
			err error
		)
		switch {
		case m.Delta.IsZero():
			continue
		case m.AggregateOnly():
			c, err = s.AdjustAggregateOnlyTx(ctx, tx, m.ItemID, m.Delta)
		case m.Delta.IsPositive():
			c, err = s.IncrementDetailTx(ctx, tx, m.ItemID, *m.LocationID, m.Delta)
		default:
			c, err = s.DecrementDetailTx(ctx, tx, m.ItemID, *m.LocationID, m.Delta.Neg())
		}
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func shiftAggregateTx(ctx context.Context, tx pgx.Tx, itemID int, delta decimal.Decimal) (decimal.Decimal, error) {
	var agg decimal.Decimal
	if err := tx.QueryRow(ctx, `
		UPDATE items SET aggregate_qty = aggregate_qty + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING aggregate_qty
	`, delta, itemID).Scan(&agg); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update aggregate for item %d: %w", itemID, err)
	}
	return agg, nil
}

func recomputeAggregateTx(ctx context.Context, tx pgx.Tx, itemID int) (decimal.Decimal, error) {
	var agg decimal.Decimal
	if err := tx.QueryRow(ctx, `
		UPDATE items
		SET aggregate_qty = (SELECT COALESCE(SUM(quantity), 0) FROM stock_details WHERE item_id = $1),
		    updated_at    = NOW()
		WHERE id = $1
		RETURNING aggregate_qty
	`, itemID).Scan(&agg); err != nil {
		return decimal.Zero, fmt.Errorf("failed to recompute aggregate for item %d: %w", itemID, err)
	}
	return agg, nil
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
