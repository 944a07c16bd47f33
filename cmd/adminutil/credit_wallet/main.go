package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sudo-init-do/gigledger/internal/config"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/store"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// credit_wallet posts a manual top-up to the wallet of the account registered under -email.
// Usage:
//
//	go run ./cmd/adminutil/credit_wallet -email user@example.com -amount 100000
func main() {
	email := flag.String("email", "", "Email of the account to credit")
	amount := flag.Int64("amount", 0, "Amount to credit, in minor units")
	flag.Parse()

	if *email == "" || *amount <= 0 {
		log.Fatalf("usage: go run ./cmd/adminutil/credit_wallet -email user@example.com -amount 100000")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != "postgres" {
		log.Fatalf("credit_wallet needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
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

	acc, err := backend.AccountByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("find account %s: %v", *email, err)
	}
	balance, err := backend.Apply(ctx, wallet.NewEntry(acc.ID, *amount, wallet.KindTopup, "manual-credit"))
	if err != nil {
		log.Fatalf("credit wallet: %v", err)
	}

	fmt.Printf("Credited %d to %s. New balance: %d\n", *amount, acc.Email, balance)
}
