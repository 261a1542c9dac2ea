// seed bootstraps an empty database: the first admin account and the default location.
// It is safe to run again; existing rows are left alone.
//
// Usage: SEED_ADMIN_PASSWORD=... go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"inventory-ledger/internal/app"
	"inventory-ledger/internal/config"
	"inventory-ledger/internal/core"
	"inventory-ledger/internal/db"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(app.NewServices(pool, nil), nil)

	username := getenv("SEED_ADMIN_USER", "admin")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD must be set")
	}

	user, err := svc.CreateUser(ctx, core.SystemActor, app.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     string(core.RoleAdmin),
	})
	switch core.ErrorCode(err) {
	case "":
		log.Printf("Created admin user %s (id %d)", user.Username, user.ID)
	case core.CodeConflict:
		log.Printf("Admin user %s already exists", username)
	default:
		log.Fatalf("Failed to create admin user: %v", err)
	}

	code := getenv("SEED_DEFAULT_LOCATION", "MAIN")
	loc, err := svc.CreateLocation(ctx, core.SystemActor, app.CreateLocationRequest{
		Code:      code,
		Name:      "Main warehouse",
		IsDefault: true,
	})
	switch core.ErrorCode(err) {
	case "":
		log.Printf("Created default location %s (id %d)", loc.Location.Code, loc.Location.ID)
	case core.CodeConflict:
		log.Printf("Location %s already exists", code)
	default:
		log.Fatalf("Failed to create default location: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
