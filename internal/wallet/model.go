package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTopup         Kind = "topup"
	KindWithdrawal    Kind = "withdrawal"
	KindEscrowFund    Kind = "escrow_fund"
	KindEscrowRelease Kind = "escrow_release"
	KindEscrowRefund  Kind = "escrow_refund"
)

// Entry is one signed balance movement. Debits carry a negative Amount.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Kind      Kind      `json:"type"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEntry(userID string, amount int64, kind Kind, reference string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	}
}

// ErrInsufficientBalance is returned by Apply when a debit would take the balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Store keeps per-user balances and their movement history.
type Store interface {
	// Balance returns 0 for users that never held funds.
	Balance(ctx context.Context, userID string) (int64, error)
	// Apply posts the entry and returns the resulting balance.
	Apply(ctx context.Context, e Entry) (int64, error)
	Transactions(ctx context.Context, userID string, limit int) ([]Entry, error)
}
