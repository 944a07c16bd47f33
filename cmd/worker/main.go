package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/config"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/store"
)

// The worker drains the alerts queue and writes notifications to the shared database.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR must be set for the worker")
	}
	if cfg.StoreDriver != "postgres" {
		log.Fatal("worker needs STORE_DRIVER=postgres", "driver", cfg.StoreDriver)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, pool, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", "error", err)
	}
	defer pool.Close()

	processor := alerts.NewProcessor(cfg.RedisAddr, alerts.NewNotifier(backend, log), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(processor.Start)
	g.Go(func() error {
		<-gctx.Done()
		processor.Shutdown()
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("worker error", "error", err)
	}
}
