package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// LedgerInitializer records the ledger owner exactly once.
type LedgerInitializer interface {
	Initialize(ctx context.Context, owner string) error
	Owner(ctx context.Context) (string, error)
}

// BootstrapOwner makes the account registered under email the ledger owner and
// grants it the owner role. The role is only granted once initialization succeeds.
// Rerunning it for the recorded owner grants the role again, so a run that failed
// after initialization can be finished.
func BootstrapOwner(ctx context.Context, accounts AccountStore, ledger LedgerInitializer, email string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	acc, err := accounts.AccountByEmail(ctx, email)
	if err != nil {
		return Account{}, fmt.Errorf("find account %s: %w", email, err)
	}
	if err := ledger.Initialize(ctx, acc.ID); err != nil {
		if !marketplace.IsCode(err, marketplace.CodeAlreadyInitialized) {
			return Account{}, err
		}
		current, ownerErr := ledger.Owner(ctx)
		if ownerErr != nil {
			return Account{}, fmt.Errorf("read owner: %w", ownerErr)
		}
		if current != acc.ID {
			return Account{}, err
		}
	}
	if err := accounts.SetRole(ctx, acc.ID, RoleOwner); err != nil {
		return Account{}, fmt.Errorf("grant owner role: %w", err)
	}
	acc.Role = RoleOwner
	return acc, nil
}
