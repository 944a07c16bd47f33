package memory

import (
	"context"
	"time"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

type bidKey struct {
	jobID      uint64
	freelancer string
}

// ledger is the transactional part of the store. Records are values, so a shallow
// copy of each map is an independent snapshot.
type ledger struct {
	owner    string
	counters map[string]uint64
	jobs     map[uint64]marketplace.Job
	bids     map[bidKey]marketplace.Bid
	escrow   map[uint64]int64
	disputes map[uint64]marketplace.Dispute
	ratings  map[string]marketplace.Rating
	balances map[string]int64
	entries  []wallet.Entry
}

func newLedger() *ledger {
	return &ledger{
		counters: make(map[string]uint64),
		jobs:     make(map[uint64]marketplace.Job),
		bids:     make(map[bidKey]marketplace.Bid),
		escrow:   make(map[uint64]int64),
		disputes: make(map[uint64]marketplace.Dispute),
		ratings:  make(map[string]marketplace.Rating),
		balances: make(map[string]int64),
	}
}

func (l *ledger) clone() *ledger {
	c := &ledger{
		owner:    l.owner,
		counters: make(map[string]uint64, len(l.counters)),
		jobs:     make(map[uint64]marketplace.Job, len(l.jobs)),
		bids:     make(map[bidKey]marketplace.Bid, len(l.bids)),
		escrow:   make(map[uint64]int64, len(l.escrow)),
		disputes: make(map[uint64]marketplace.Dispute, len(l.disputes)),
		ratings:  make(map[string]marketplace.Rating, len(l.ratings)),
		balances: make(map[string]int64, len(l.balances)),
		entries:  l.entries[:len(l.entries):len(l.entries)],
	}
	for k, v := range l.counters {
		c.counters[k] = v
	}
	for k, v := range l.jobs {
		c.jobs[k] = v
	}
	for k, v := range l.bids {
		c.bids[k] = v
	}
	for k, v := range l.escrow {
		c.escrow[k] = v
	}
	for k, v := range l.disputes {
		c.disputes[k] = v
	}
	for k, v := range l.ratings {
		c.ratings[k] = v
	}
	for k, v := range l.balances {
		c.balances[k] = v
	}
	return c
}

func (l *ledger) getJob(id uint64) (marketplace.Job, error) {
	j, ok := l.jobs[id]
	if !ok {
		return marketplace.Job{}, marketplace.ErrNotFound
	}
	return j, nil
}

func (l *ledger) getBid(jobID uint64, freelancer string) (marketplace.Bid, error) {
	b, ok := l.bids[bidKey{jobID, freelancer}]
	if !ok {
		return marketplace.Bid{}, marketplace.ErrNotFound
	}
	return b, nil
}

func (l *ledger) getDispute(id uint64) (marketplace.Dispute, error) {
	d, ok := l.disputes[id]
	if !ok {
		return marketplace.Dispute{}, marketplace.ErrNotFound
	}
	return d, nil
}

func (l *ledger) postEntry(e wallet.Entry) error {
	next := l.balances[e.UserID] + e.Amount
	if next < 0 {
		return wallet.ErrInsufficientBalance
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	l.balances[e.UserID] = next
	l.entries = append(l.entries, e)
	return nil
}

// tx runs against a private ledger copy; the Store holds its lock for the duration.
type tx struct {
	st *ledger
}

func (t *tx) Owner(context.Context) (string, error) { return t.st.owner, nil }

func (t *tx) GetJob(_ context.Context, id uint64) (marketplace.Job, error) {
	return t.st.getJob(id)
}

func (t *tx) GetBid(_ context.Context, jobID uint64, freelancer string) (marketplace.Bid, error) {
	return t.st.getBid(jobID, freelancer)
}

func (t *tx) EscrowBalance(_ context.Context, jobID uint64) (int64, error) {
	return t.st.escrow[jobID], nil
}

func (t *tx) GetDispute(_ context.Context, id uint64) (marketplace.Dispute, error) {
	return t.st.getDispute(id)
}

func (t *tx) GetRating(_ context.Context, u string) (marketplace.Rating, error) {
	return t.st.ratings[u], nil
}

func (t *tx) Balance(_ context.Context, userID string) (int64, error) {
	return t.st.balances[userID], nil
}

func (t *tx) SetOwner(_ context.Context, owner string) error {
	if t.st.owner != "" {
		return marketplace.ErrConflict
	}
	t.st.owner = owner
	return nil
}

func (t *tx) NextID(_ context.Context, seq string) (uint64, error) {
	t.st.counters[seq]++
	return t.st.counters[seq], nil
}

func (t *tx) PutJob(_ context.Context, job marketplace.Job) error {
	t.st.jobs[job.ID] = job
	return nil
}

func (t *tx) PutBid(_ context.Context, bid marketplace.Bid) error {
	t.st.bids[bidKey{bid.JobID, bid.Freelancer}] = bid
	return nil
}

func (t *tx) SetEscrow(_ context.Context, jobID uint64, balance int64) error {
	t.st.escrow[jobID] = balance
	return nil
}

func (t *tx) PutDispute(_ context.Context, d marketplace.Dispute) error {
	if d.Status == marketplace.DisputeOpen {
		for id, other := range t.st.disputes {
			if id != d.ID && other.JobID == d.JobID && other.Status == marketplace.DisputeOpen {
				return marketplace.ErrConflict
			}
		}
	}
	t.st.disputes[d.ID] = d
	return nil
}

func (t *tx) PutRating(_ context.Context, r marketplace.Rating) error {
	t.st.ratings[r.User] = r
	return nil
}

func (t *tx) PostEntry(_ context.Context, e wallet.Entry) error {
	return t.st.postEntry(e)
}
