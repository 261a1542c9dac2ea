package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ReconcileOutcome string

const (
	OutcomeRepaired ReconcileOutcome = "REPAIRED"
	OutcomeFailed   ReconcileOutcome = "FAILED"
)

// ReconciliationOutcome describes one drifted item found by a reconciliation run.
type ReconciliationOutcome struct {
	RunID      uuid.UUID
	ItemID     int
	SKU        string
	LocationID *int
	Aggregate  decimal.Decimal
	DetailSum  decimal.Decimal
	Adjustment decimal.Decimal
	Outcome    ReconcileOutcome
	Details    string
}

// ReconciliationReport summarises one pass over the catalog.
type ReconciliationReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Checked    int
	Repaired   []ReconciliationOutcome
	Failed     []ReconciliationOutcome
}

// ReconciliationJob realigns detail rows with the aggregate, treating the aggregate
// as authoritative. Drift is pushed into the default location's detail row.
type ReconciliationJob interface {
	// Run checks every item, each in its own transaction. A failure on one item is
	// reported and does not stop the others.
	Run(ctx context.Context, actor Actor) (*ReconciliationReport, error)
	// ReconcileItem checks and repairs a single item. It returns nil when the item has no drift.
	ReconcileItem(ctx context.Context, actor Actor, itemID int) (*ReconciliationOutcome, error)
	// Report returns the persisted outcomes of a previous run.
	Report(ctx context.Context, runID uuid.UUID) ([]ReconciliationOutcome, error)
}

type reconciliationJob struct {
	pool   *pgxpool.Pool
	ledger StockLedger
	obs    observers
}

// NewReconciliationJob constructs a ReconciliationJob. audit and stock may be nil.
func NewReconciliationJob(pool *pgxpool.Pool, ledger StockLedger, audit AuditLog, stock StockPublisher) ReconciliationJob {
	return &reconciliationJob{pool: pool, ledger: ledger, obs: newObservers(pool, audit, stock)}
}

// driftOf returns aggregate - sum and whether it exceeds Tolerance.
func driftOf(aggregate, sum decimal.Decimal) (decimal.Decimal, bool) {
	return aggregate.Sub(sum), !WithinTolerance(aggregate, sum)
}

func (j *reconciliationJob) Run(ctx context.Context, actor Actor) (*ReconciliationReport, error) {
	if err := actor.Authorize("run reconciliation", RoleAdmin); err != nil {
		return nil, err
	}

	locationID, err := j.defaultLocation(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := j.pool.Query(ctx, "SELECT id FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	report := &ReconciliationReport{RunID: uuid.New(), StartedAt: time.Now()}
	log.Printf("[RECONCILE] run %s started: %d item(s), default location %d", report.RunID, len(ids), locationID)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := j.reconcile(ctx, actor, report.RunID, id, locationID)
		report.Checked++
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Printf("[RECONCILE] item %d: %v", id, err)
			continue
		}
		if out == nil {
			continue
		}
		if out.Outcome == OutcomeRepaired {
			report.Repaired = append(report.Repaired, *out)
		} else {
			report.Failed = append(report.Failed, *out)
		}
	}

	report.FinishedAt = time.Now()
	log.Printf("[RECONCILE] run %s finished: checked %d, repaired %d, failed %d",
		report.RunID, report.Checked, len(report.Repaired), len(report.Failed))
	return report, nil
}

func (j *reconciliationJob) ReconcileItem(ctx context.Context, actor Actor, itemID int) (*ReconciliationOutcome, error) {
	if err := actor.Authorize("run reconciliation", RoleAdmin); err != nil {
		return nil, err
	}
	locationID, err := j.defaultLocation(ctx)
	if err != nil {
		return nil, err
	}
	return j.reconcile(ctx, actor, uuid.New(), itemID, locationID)
}

// reconcile handles one item in its own transaction. Drift that cannot be repaired is
// returned as a FAILED outcome rather than an error; errors are reserved for store
// failures and missing rows.
func (j *reconciliationJob) reconcile(ctx context.Context, actor Actor, runID uuid.UUID, itemID, locationID int) (*ReconciliationOutcome, error) {
	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	items, err := j.ledger.LockItemsTx(ctx, tx, []int{itemID})
	if err != nil {
		return nil, err
	}
	item := items[itemID]
	sum, _, err := j.ledger.DetailSumTx(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	adjustment, drifted := driftOf(item.AggregateQty, sum)
	if !drifted {
		return nil, nil
	}

	loc := locationID
	out := &ReconciliationOutcome{
		RunID:      runID,
		ItemID:     itemID,
		SKU:        item.SKU,
		LocationID: &loc,
		Aggregate:  item.AggregateQty,
		DetailSum:  sum,
		Adjustment: adjustment,
	}

	if _, _, err := j.ledger.RepairDetailTx(ctx, tx, itemID, locationID); err != nil {
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			return nil, err
		}
		// Nothing was written; record the failure outside the aborted unit.
		out.Outcome = OutcomeFailed
		out.Details = conflict.Message
		tx.Rollback(ctx)
		if err := insertOutcome(ctx, j.pool, out); err != nil {
			return nil, err
		}
		log.Printf("[RECONCILE] %s: %s", item.SKU, conflict.Message)
		return out, nil
	}

	out.Outcome = OutcomeRepaired
	out.Details = fmt.Sprintf("detail sum %s adjusted by %s to match aggregate %s", sum, adjustment, item.AggregateQty)
	if err := insertOutcome(ctx, tx, out); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reconciliation of item %d: %w", itemID, err)
	}

	log.Printf("[RECONCILE] %s: %s", item.SKU, out.Details)
	j.obs.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "reconcile.repair",
		EntityID: item.SKU,
		Detail:   out.Details,
	})
	return out, nil
}

func (j *reconciliationJob) defaultLocation(ctx context.Context) (int, error) {
	var id int
	if err := j.pool.QueryRow(ctx,
		"SELECT id FROM locations WHERE is_default LIMIT 1",
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Entity: "location", Key: "default"}
		}
		return 0, fmt.Errorf("resolve default location: %w", err)
	}
	return id, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertOutcome(ctx context.Context, db execer, out *ReconciliationOutcome) error {
	if _, err := db.Exec(ctx, `
		INSERT INTO reconciliation_reports
		       (run_id, item_id, location_id, aggregate, detail_sum, adjustment, outcome, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		out.RunID, out.ItemID, out.LocationID, out.Aggregate, out.DetailSum, out.Adjustment, out.Outcome, out.Details,
	); err != nil {
		return fmt.Errorf("record reconciliation outcome for item %d: %w", out.ItemID, err)
	}
	return nil
}

func (j *reconciliationJob) Report(ctx context.Context, runID uuid.UUID) ([]ReconciliationOutcome, error) {
	rows, err := j.pool.Query(ctx, `
		SELECT r.run_id, r.item_id, i.sku, r.location_id, r.aggregate, r.detail_sum, r.adjustment, r.outcome, r.details
		FROM reconciliation_reports r
		JOIN items i ON i.id = r.item_id
		WHERE r.run_id = $1
		ORDER BY r.item_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch reconciliation report %s: %w", runID, err)
	}
	defer rows.Close()

	var outcomes []ReconciliationOutcome
	for rows.Next() {
		var o ReconciliationOutcome
		if err := rows.Scan(&o.RunID, &o.ItemID, &o.SKU, &o.LocationID, &o.Aggregate,
			&o.DetailSum, &o.Adjustment, &o.Outcome, &o.Details); err != nil {
			return nil, fmt.Errorf("scan reconciliation outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconciliation report: %w", err)
	}
	if len(outcomes) == 0 {
		return nil, &NotFoundError{Entity: "reconciliation run", Key: runID.String()}
	}
	return outcomes, nil
}
