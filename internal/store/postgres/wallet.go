package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// Apply posts a single wallet entry in its own transaction.
func (s *Store) Apply(ctx context.Context, e wallet.Entry) (int64, error) {
	var balance int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		balance, err = postEntry(ctx, tx, e)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Store) Transactions(ctx context.Context, userID string, limit int) ([]wallet.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, user_id, amount, type, reference, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]wallet.Entry, 0)
	for rows.Next() {
		var (
			e    wallet.Entry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &kind, &e.Reference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		e.Kind = wallet.Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
