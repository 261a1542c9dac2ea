package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceivingEngine records goods received against purchase orders.
type ReceivingEngine interface {
	// CreatePurchaseOrder creates an OPEN purchase order with numbered lines.
	CreatePurchaseOrder(ctx context.Context, actor Actor, reference, supplier, notes string, lines []PurchaseOrderLineInput) (*PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrder, error)
	// ListPurchaseOrders returns orders newest first. An empty status lists all of them.
	ListPurchaseOrders(ctx context.Context, status OrderStatus) ([]PurchaseOrder, error)

	// Receive adds each positive line quantity to the line's received total and to the
	// item's stock at locationID, then moves the order to PARTIAL or COMPLETED.
	Receive(ctx context.Context, actor Actor, orderID int, lines []ReceiptLine, locationID int) (*PurchaseOrder, error)
}

type receivingEngine struct {
	pool   *pgxpool.Pool
	ledger StockLedger
	obs    observers
}

// NewReceivingEngine constructs a ReceivingEngine. audit and stock may be nil.
func NewReceivingEngine(pool *pgxpool.Pool, ledger StockLedger, audit AuditLog, stock StockPublisher) ReceivingEngine {
	return &receivingEngine{pool: pool, ledger: ledger, obs: newObservers(pool, audit, stock)}
}

func (e *receivingEngine) CreatePurchaseOrder(ctx context.Context, actor Actor, reference, supplier, notes string, lines []PurchaseOrderLineInput) (*PurchaseOrder, error) {
	if err := actor.Authorize("create purchase order", RoleOperator); err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, &ValidationError{Message: "purchase order reference is required"}
	}
	if supplier == "" {
		return nil, &ValidationError{Message: "purchase order supplier is required"}
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Message: "purchase order must have at least one line"}
	}
	for i, l := range lines {
		if err := requirePositive(l.Quantity, fmt.Sprintf("line %d quantity", i+1)); err != nil {
			return nil, err
		}
		if l.UnitCost.IsNegative() {
			return nil, &ValidationError{Message: fmt.Sprintf("line %d unit cost cannot be negative", i+1)}
		}
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var toNotes *string
	if notes != "" {
		toNotes = &notes
	}

	var orderID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (reference, supplier, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		reference, supplier, OrderOpen, toNotes, actor.UserID,
	).Scan(&orderID); err != nil {
		return nil, translatePgError(err, "insert purchase order")
	}

	for i, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_lines (order_id, line_number, item_id, ordered_qty, unit_cost)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, i+1, l.ItemID, l.Quantity, l.UnitCost,
		); err != nil {
			return nil, translatePgError(err, fmt.Sprintf("insert PO line %d", i+1))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order: %w", err)
	}

	e.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "po.create",
		EntityID: fmt.Sprintf("po:%d", orderID),
		Detail:   fmt.Sprintf("%s from %s, %d line(s)", reference, supplier, len(lines)),
	})
	return e.GetPurchaseOrder(ctx, orderID)
}

func (e *receivingEngine) Receive(ctx context.Context, actor Actor, orderID int, lines []ReceiptLine, locationID int) (*PurchaseOrder, error) {
	if err := actor.Authorize("receive purchase order", RoleOperator); err != nil {
		return nil, err
	}
	if locationID == 0 {
		return nil, &ValidationError{Message: "receiving requires a location"}
	}
	for _, l := range lines {
		if l.Qty.IsNegative() {
			return nil, &ValidationError{Message: fmt.Sprintf("PO line %d: received quantity cannot be negative", l.POLineID)}
		}
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	if err := tx.QueryRow(ctx,
		"SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "purchase order", Key: fmt.Sprint(orderID)}
		}
		return nil, fmt.Errorf("fetch purchase order %d: %w", orderID, err)
	}

	current, err := fetchOrderLines(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*PurchaseOrderLine, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}

	var ids []int
	var positive []ReceiptLine
	for _, l := range lines {
		if _, ok := byID[l.POLineID]; !ok {
			return nil, &NotFoundError{Entity: "PO line", Key: fmt.Sprintf("%d on purchase order %d", l.POLineID, orderID)}
		}
		if l.Qty.IsPositive() {
			positive = append(positive, l)
			ids = append(ids, byID[l.POLineID].ItemID)
		}
	}

	locationCode, err := locationCodeTx(ctx, tx, locationID)
	if err != nil {
		return nil, err
	}

	if len(positive) == 0 {
		return e.GetPurchaseOrder(ctx, orderID)
	}

	if _, err := e.ledger.LockItemsTx(ctx, tx, ids); err != nil {
		return nil, err
	}

	changes := make([]StockChange, 0, len(positive))
	for _, l := range positive {
		line := byID[l.POLineID]
		line.ReceivedQty = line.ReceivedQty.Add(l.Qty)
		if line.ReceivedQty.GreaterThan(line.OrderedQty) {
			log.Printf("[RECEIVE] PO %d line %d over-received: ordered %s, received %s",
				orderID, line.LineNumber, line.OrderedQty, line.ReceivedQty)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE purchase_order_lines SET received_qty = $1 WHERE id = $2",
			line.ReceivedQty, line.ID,
		); err != nil {
			return nil, fmt.Errorf("update PO line %d: %w", line.LineNumber, err)
		}

		change, err := e.ledger.IncrementDetailTx(ctx, tx, line.ItemID, locationID, l.Qty)
		if err != nil {
			return nil, fmt.Errorf("PO line %d: %w", line.LineNumber, err)
		}
		changes = append(changes, change)
	}

	next := orderStatusFor(current)
	if next == OrderCompleted {
		_, err = tx.Exec(ctx,
			"UPDATE purchase_orders SET status = $1, received_at = NOW() WHERE id = $2",
			next, orderID)
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE purchase_orders SET status = $1 WHERE id = $2",
			next, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("update purchase order %d status: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit receipt: %w", err)
	}

	e.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "po.receive",
		EntityID: fmt.Sprintf("po:%d", orderID),
		Detail:   fmt.Sprintf("%d line(s) into %s, %s -> %s", len(positive), locationCode, status, next),
	}, changes...)
	return e.GetPurchaseOrder(ctx, orderID)
}

func (e *receivingEngine) GetPurchaseOrder(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	po := &PurchaseOrder{ID: orderID}
	if err := e.pool.QueryRow(ctx, `
		SELECT reference, supplier, status, notes, created_by, created_at, received_at
		FROM purchase_orders
		WHERE id = $1`,
		orderID,
	).Scan(&po.Reference, &po.Supplier, &po.Status, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.ReceivedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "purchase order", Key: fmt.Sprint(orderID)}
		}
		return nil, fmt.Errorf("get purchase order %d: %w", orderID, err)
	}

	lines, err := fetchOrderLines(ctx, e.pool, orderID)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	return po, nil
}

func (e *receivingEngine) ListPurchaseOrders(ctx context.Context, status OrderStatus) ([]PurchaseOrder, error) {
	query := `
		SELECT id, reference, supplier, status, notes, created_by, created_at, received_at
		FROM purchase_orders`
	var args []any
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.Reference, &po.Supplier, &po.Status, &po.Notes,
			&po.CreatedBy, &po.CreatedAt, &po.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func fetchOrderLines(ctx context.Context, q querier, orderID int) ([]PurchaseOrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT l.id, l.order_id, l.line_number, l.item_id, i.sku, l.ordered_qty, l.received_qty, l.unit_cost
		FROM purchase_order_lines l
		JOIN items i ON i.id = l.item_id
		WHERE l.order_id = $1
		ORDER BY l.line_number`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch lines for purchase order %d: %w", orderID, err)
	}
	defer rows.Close()

	var lines []PurchaseOrderLine
	for rows.Next() {
		var l PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.ItemID, &l.SKU,
			&l.OrderedQty, &l.ReceivedQty, &l.UnitCost); err != nil {
			return nil, fmt.Errorf("scan PO line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

