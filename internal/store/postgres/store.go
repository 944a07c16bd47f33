// Package postgres implements the persistence ports on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/auth"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/user"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

var (
	_ marketplace.Store = (*Store)(nil)
	_ wallet.Store      = (*Store)(nil)
	_ auth.AccountStore = (*Store)(nil)
	_ user.Store        = (*Store)(nil)
	_ alerts.Store      = (*Store)(nil)
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	reader
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, baseLog *logger.Logger) *Store {
	return &Store{
		reader: reader{q: pool},
		pool:   pool,
		log:    baseLog.With("repo", "postgres"),
	}
}

// InTx runs fn in a READ COMMITTED transaction. Rows read through the Tx are
// locked with SELECT ... FOR UPDATE, which serializes writers per job across processes.
func (s *Store) InTx(ctx context.Context, fn func(tx marketplace.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&ledgerTx{reader: reader{q: tx, lock: true}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Warn("commit failed", "err", err)
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return marketplace.ErrNotFound
	case pgCode(err) == codeUniqueViolation:
		return fmt.Errorf("%w: %v", marketplace.ErrConflict, err)
	default:
		return err
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
