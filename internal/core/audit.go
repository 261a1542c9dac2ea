package core

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AuditEntry is one committed mutation as seen by the audit collaborator.
type AuditEntry struct {
	ActorID  int
	Action   string
	EntityID string
	Detail   string
}

// AuditLog records audit entries. Implementations may fail; callers never roll back
// stock mutations because of it.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// StockPublisher pushes the latest aggregate of an item to a read-side projection.
type StockPublisher interface {
	PublishStock(ctx context.Context, sku string, aggregate decimal.Decimal) error
}

type pgAuditLog struct {
	pool *pgxpool.Pool
}

// NewAuditLog returns an AuditLog writing to the audit_log table outside any ledger transaction.
func NewAuditLog(pool *pgxpool.Pool) AuditLog {
	return &pgAuditLog{pool: pool}
}

func (a *pgAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_id, detail)
		VALUES ($1, $2, $3, $4)`,
		entry.ActorID, entry.Action, entry.EntityID, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// aggregateReader returns the committed aggregate per SKU.
type aggregateReader func(ctx context.Context, skus []string) (map[string]decimal.Decimal, error)

// committedAggregates reads aggregates outside any ledger transaction, so a publish
// carries the latest committed value even when another writer committed in between.
func committedAggregates(pool *pgxpool.Pool) aggregateReader {
	return func(ctx context.Context, skus []string) (map[string]decimal.Decimal, error) {
		rows, err := pool.Query(ctx, "SELECT sku, aggregate_qty FROM items WHERE sku = ANY($1)", skus)
		if err != nil {
			return nil, fmt.Errorf("read committed aggregates: %w", err)
		}
		defer rows.Close()

		out := make(map[string]decimal.Decimal, len(skus))
		for rows.Next() {
			var sku string
			var qty decimal.Decimal
			if err := rows.Scan(&sku, &qty); err != nil {
				return nil, fmt.Errorf("scan committed aggregate: %w", err)
			}
			out[sku] = qty
		}
		return out, rows.Err()
	}
}

// observers fans out post-commit side effects. All collaborators are optional and
// none can fail the operation that triggered them. When current is set, published
// aggregates are re-read after commit instead of taken from the transaction.
type observers struct {
	audit   AuditLog
	stock   StockPublisher
	current aggregateReader
}

func newObservers(pool *pgxpool.Pool, audit AuditLog, stock StockPublisher) observers {
	obs := observers{audit: audit, stock: stock}
	if stock != nil && pool != nil {
		obs.current = committedAggregates(pool)
	}
	return obs
}

func (o observers) committed(ctx context.Context, entry AuditEntry, changes ...StockChange) {
	if o.audit != nil {
		if err := o.audit.Record(ctx, entry); err != nil {
			log.Printf("[AUDIT] %s %s by user %d not recorded: %v", entry.Action, entry.EntityID, entry.ActorID, err)
		}
	}
	if o.stock == nil {
		return
	}
	// Publish only the final aggregate per item.
	latest := make(map[string]decimal.Decimal, len(changes))
	order := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.SKU == "" {
			continue
		}
		if _, seen := latest[c.SKU]; !seen {
			order = append(order, c.SKU)
		}
		latest[c.SKU] = c.Aggregate
	}
	if o.current != nil && len(order) > 0 {
		fresh, err := o.current(ctx, order)
		if err != nil {
			log.Printf("[CACHE] %v, publishing transaction values", err)
		}
		for sku, qty := range fresh {
			latest[sku] = qty
		}
	}
	for _, sku := range order {
		if err := o.stock.PublishStock(ctx, sku, latest[sku]); err != nil {
			log.Printf("[CACHE] publish %s failed: %v", sku, err)
		}
	}
}
