package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gigledger/internal/auth"
)

func (s *Store) CreateAccount(ctx context.Context, a auth.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, name, email, password, role, created_at)
		VALUES ($1, $2, LOWER($3), $4, $5, $6)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.CreatedAt,
	)
	if pgCode(err) == codeUniqueViolation {
		return auth.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const accountColumns = `id::text, name, email, password, role, created_at`

func scanAccount(row pgx.Row) (auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	if err != nil {
		return auth.Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = LOWER($1)`, email))
}

func (s *Store) AccountByID(ctx context.Context, id string) (auth.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id::text = $1`, id))
}

func (s *Store) SetRole(ctx context.Context, id, role string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE accounts SET role = $1 WHERE id::text = $2`, role, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}
