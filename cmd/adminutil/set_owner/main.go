package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sudo-init-do/gigledger/internal/auth"
	"github.com/sudo-init-do/gigledger/internal/config"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/store"
)

// set_owner initializes the ledger with the account registered under -email as owner.
// It succeeds once per database.
// Usage:
//
//	go run ./cmd/adminutil/set_owner -email owner@example.com
func main() {
	email := flag.String("email", "", "Email of the account that will own the ledger")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/set_owner -email owner@example.com")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != "postgres" {
		log.Fatalf("set_owner needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}
	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()
	backend, pool, err := store.Open(ctx, cfg, zlog)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer pool.Close()

	ledger := marketplace.NewService(backend, marketplace.NewManualClock(0), nil, zlog)
	acc, err := auth.BootstrapOwner(ctx, backend, ledger, *email)
	if marketplace.IsCode(err, marketplace.CodeAlreadyInitialized) {
		owner, _ := ledger.Owner(ctx)
		log.Fatalf("ledger already initialized with owner %s", owner)
	}
	if err != nil {
		log.Fatalf("set owner: %v", err)
	}

	fmt.Printf("Account %s (%s) is now the ledger owner.\n", acc.Email, acc.ID)
}
