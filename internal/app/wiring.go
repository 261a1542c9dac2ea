package app

import (
	"inventory-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewServices builds every core service on one pool, sharing the ledger, the audit
// log and the stock publisher. stock may be nil.
func NewServices(pool *pgxpool.Pool, stock core.StockPublisher) Services {
	audit := core.NewAuditLog(pool)
	ledger := core.NewStockLedger(pool, audit, stock)
	return Services{
		Users:          core.NewUserService(pool, audit),
		Catalog:        core.NewCatalogService(pool, audit),
		Ledger:         ledger,
		Assembly:       core.NewAssemblyEngine(pool, ledger, audit, stock),
		Transfers:      core.NewTransferEngine(pool, ledger, audit, stock),
		Receiving:      core.NewReceivingEngine(pool, ledger, audit, stock),
		Reconciliation: core.NewReconciliationJob(pool, ledger, audit, stock),
	}
}
