package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/config"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/store"
)

const shutdownTimeout = 10 * time.Second

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

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, pool, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", "driver", cfg.StoreDriver, "error", err)
	}
	var checks []readinessCheck
	if pool != nil {
		defer pool.Close()
		checks = append(checks, readinessCheck{name: "db", check: pool.Ping})
	}

	// Events go through the worker only when it shares our database.
	var events marketplace.Publisher = alerts.NewNotifier(backend, log)
	if cfg.RedisAddr != "" && pool != nil {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		checks = append(checks, readinessCheck{name: "redis", check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})

		enqueuer := alerts.NewEnqueuer(cfg.RedisAddr)
		defer enqueuer.Close()
		events = enqueuer
		log.Info("publishing ledger events to queue", "queue", alerts.QueueAlerts, "redis", cfg.RedisAddr)
	}

	genesis, err := cfg.Genesis()
	if err != nil {
		log.Fatal("invalid block height genesis", "value", cfg.HeightGenesis, "error", err)
	}
	clock := marketplace.WallClock{Genesis: genesis, Interval: cfg.HeightInterval}
	ledger := marketplace.NewService(backend, clock, events, log)

	e := newRouter(deps{cfg: cfg, log: log, backend: backend, ledger: ledger, checks: checks})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("API server listening", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down API server")
		return e.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}
}
