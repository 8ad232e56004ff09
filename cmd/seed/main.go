package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/invest-payout-engine/config"
	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/internal/container"
	"github.com/oksasatya/invest-payout-engine/pkg/helpers"
)

// seed creates the bootstrap administrator from ADMIN_EMAIL, ADMIN_PASSWORD
// and ADMIN_NAME. Running it again is harmless.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is required")
	}
	if cfg.LedgerBackend == "memory" {
		log.Fatal("seeding a memory ledger has no effect; set LEDGER_BACKEND=postgres")
	}

	ctx := context.Background()
	cleanup, err := container.Connect(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer cleanup()
	if err := container.Bootstrap(); err != nil {
		log.Fatalf("failed to build services: %v", err)
	}

	a, err := container.GetAccountService().CreateAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if errors.Is(err, application.ErrEmailTaken) {
		fmt.Printf("admin already exists: email=%s\n", cfg.AdminEmail)
		return
	}
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s name=%s\n", a.ID, a.Email, a.Name)
}
