// Package store selects the persistence backend named by STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/auth"
	"github.com/sudo-init-do/gigledger/internal/config"
	"github.com/sudo-init-do/gigledger/internal/db"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/store/memory"
	"github.com/sudo-init-do/gigledger/internal/store/postgres"
	"github.com/sudo-init-do/gigledger/internal/user"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// Backend implements every persistence port.
type Backend interface {
	marketplace.Store
	wallet.Store
	auth.AccountStore
	user.Store
	alerts.Store
}

// Open returns the configured backend. Pool is nil for the memory driver; the
// caller closes it otherwise. Postgres schemas are migrated before use.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (Backend, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; state is lost on restart")
		return memory.New(), nil, nil
	case "postgres":
		dsn := cfg.DSN()
		if err := db.Migrate(dsn, log); err != nil {
			return nil, nil, err
		}
		pool, err := db.Connect(ctx, dsn, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool, log), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
