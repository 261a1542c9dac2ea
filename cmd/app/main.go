package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"inventory-ledger/internal/adapters/cli"
	"inventory-ledger/internal/adapters/repl"
	"inventory-ledger/internal/app"
	"inventory-ledger/internal/cache"
	"inventory-ledger/internal/config"
	"inventory-ledger/internal/core"
	"inventory-ledger/internal/db"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	// Servers read stock cache-first, so a configured cache must see every write made here.
	var stockCache app.StockCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[CACHE] REDIS_URL is set but the stock cache is unreachable: %v", err)
		}
		defer client.Close()
		stockCache = cache.NewStockCacheTTL(client, cfg.CacheTTL)
	}

	svc := app.NewAppService(app.NewServices(pool, stockCache), stockCache)
	actor := resolveActor(ctx, svc)

	if len(os.Args) > 1 {
		cli.Run(ctx, svc, actor, os.Args[1:])
		return
	}
	repl.Run(ctx, svc, actor, bufio.NewReader(os.Stdin), os.Stdout)
}

// resolveActor logs in with INVENTORY_USER / INVENTORY_PASSWORD when set. Without them
// the tool runs as the system actor, which is what batch jobs and cron use.
func resolveActor(ctx context.Context, svc app.ApplicationService) core.Actor {
	username := os.Getenv("INVENTORY_USER")
	if username == "" {
		log.Println("Warning: INVENTORY_USER is not set, acting as the system actor")
		return core.SystemActor
	}
	session, err := svc.AuthenticateUser(ctx, username, os.Getenv("INVENTORY_PASSWORD"))
	if err != nil {
		log.Fatalf("Login as %s failed: %v", username, err)
	}
	return session.Actor()
}
