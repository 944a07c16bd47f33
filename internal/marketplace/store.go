package marketplace

import (
	"context"

	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// Id sequences kept by the store. Both start at 1 and never reuse a value.
const (
	SeqJob     = "job"
	SeqDispute = "dispute"
)

// Reader is the lookup surface. Missing records come back as ErrNotFound, except
// EscrowBalance, GetRating and Balance which default to zero values.
type Reader interface {
	// Owner returns "" until the ledger is initialized.
	Owner(ctx context.Context) (string, error)
	GetJob(ctx context.Context, id uint64) (Job, error)
	GetBid(ctx context.Context, jobID uint64, freelancer string) (Bid, error)
	EscrowBalance(ctx context.Context, jobID uint64) (int64, error)
	GetDispute(ctx context.Context, id uint64) (Dispute, error)
	GetRating(ctx context.Context, user string) (Rating, error)
	Balance(ctx context.Context, user string) (int64, error)
}

// Tx is a unit of work. Reads through a Tx lock the rows they return until the
// transaction ends; writes become visible only when InTx commits.
type Tx interface {
	Reader
	// SetOwner fails with ErrConflict when an owner is already recorded.
	SetOwner(ctx context.Context, owner string) error
	NextID(ctx context.Context, seq string) (uint64, error)
	PutJob(ctx context.Context, job Job) error
	PutBid(ctx context.Context, bid Bid) error
	SetEscrow(ctx context.Context, jobID uint64, balance int64) error
	PutDispute(ctx context.Context, d Dispute) error
	PutRating(ctx context.Context, r Rating) error
	// PostEntry moves a wallet balance and records the movement.
	PostEntry(ctx context.Context, e wallet.Entry) error
}

type Store interface {
	Reader
	ListJobs(ctx context.Context, f JobFilter) ([]Job, error)
	ListBids(ctx context.Context, jobID uint64) ([]Bid, error)
	ListDisputes(ctx context.Context, f DisputeFilter) ([]Dispute, error)
	Stats(ctx context.Context) (Stats, error)
	// InTx runs fn in one transaction. Any error from fn rolls back every write.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
