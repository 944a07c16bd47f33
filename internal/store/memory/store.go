// Package memory is a process-local store implementing every persistence port.
// It backs unit tests and STORE_DRIVER=memory runs; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/auth"
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

type Store struct {
	mu sync.RWMutex
	st *ledger

	accounts      map[string]auth.Account
	emails        map[string]string
	profiles      map[string]user.Profile
	notifications []alerts.Notification
}

func New() *Store {
	return &Store{
		st:       newLedger(),
		accounts: make(map[string]auth.Account),
		emails:   make(map[string]string),
		profiles: make(map[string]user.Profile),
	}
}

// InTx works on a private copy of the ledger and swaps it in only when fn succeeds.
// Transactions are fully serialized.
func (s *Store) InTx(ctx context.Context, fn func(tx marketplace.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Owner(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.owner, nil
}

func (s *Store) GetJob(_ context.Context, id uint64) (marketplace.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getJob(id)
}

func (s *Store) GetBid(_ context.Context, jobID uint64, freelancer string) (marketplace.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getBid(jobID, freelancer)
}

func (s *Store) EscrowBalance(_ context.Context, jobID uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.escrow[jobID], nil
}

func (s *Store) GetDispute(_ context.Context, id uint64) (marketplace.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getDispute(id)
}

func (s *Store) GetRating(_ context.Context, u string) (marketplace.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ratings[u], nil
}

func (s *Store) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.balances[userID], nil
}

func (s *Store) ListJobs(_ context.Context, f marketplace.JobFilter) ([]marketplace.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]marketplace.Job, 0)
	for _, j := range s.st.jobs {
		if f.Status != 0 && j.Status != f.Status {
			continue
		}
		if f.Client != "" && j.Client != f.Client {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return page(out, f.Offset, f.Limit), nil
}

func (s *Store) ListBids(_ context.Context, jobID uint64) ([]marketplace.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]marketplace.Bid, 0)
	for k, b := range s.st.bids {
		if k.jobID == jobID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Freelancer < out[b].Freelancer })
	return out, nil
}

func (s *Store) ListDisputes(_ context.Context, f marketplace.DisputeFilter) ([]marketplace.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]marketplace.Dispute, 0)
	for _, d := range s.st.disputes {
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.JobID != 0 && d.JobID != f.JobID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return page(out, f.Offset, f.Limit), nil
}

func (s *Store) Stats(context.Context) (marketplace.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := marketplace.Stats{JobsByStatus: make(map[string]int64)}
	for _, j := range s.st.jobs {
		stats.JobsByStatus[j.Status.String()]++
	}
	for _, bal := range s.st.escrow {
		stats.EscrowHeld += bal
	}
	for _, d := range s.st.disputes {
		stats.TotalDisputes++
		if d.Status == marketplace.DisputeOpen {
			stats.OpenDisputes++
		}
	}
	return stats, nil
}

// Apply posts a wallet entry outside any ledger transaction.
func (s *Store) Apply(ctx context.Context, e wallet.Entry) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.st.postEntry(e); err != nil {
		return 0, err
	}
	return s.st.balances[e.UserID], nil
}

func (s *Store) Transactions(_ context.Context, userID string, limit int) ([]wallet.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]wallet.Entry, 0)
	for i := len(s.st.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.st.entries[i].UserID == userID {
			out = append(out, s.st.entries[i])
		}
	}
	return out, nil
}

func (s *Store) CreateAccount(_ context.Context, a auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(a.Email)
	if _, taken := s.emails[email]; taken {
		return auth.ErrEmailTaken
	}
	s.accounts[a.ID] = a
	s.emails[email] = a.ID
	return nil
}

func (s *Store) AccountByEmail(_ context.Context, email string) (auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) AccountByID(_ context.Context, id string) (auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) SetRole(_ context.Context, id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return auth.ErrAccountNotFound
	}
	a.Role = role
	s.accounts[id] = a
	return nil
}

func (s *Store) Profile(_ context.Context, userID string) (user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return user.Profile{}, user.ErrProfileNotFound
	}
	p.Skills = append([]string(nil), p.Skills...)
	return p, nil
}

func (s *Store) SaveProfile(_ context.Context, p user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.profiles[p.UserID]
	p.Skills = existing.Skills
	p.UpdatedAt = time.Now().UTC()
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) SaveSkills(_ context.Context, userID string, skills []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[userID]
	p.UserID = userID
	p.Skills = append([]string(nil), skills...)
	p.UpdatedAt = time.Now().UTC()
	s.profiles[userID] = p
	return nil
}

func (s *Store) CreateNotification(_ context.Context, n alerts.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.ID == n.ID {
			return nil
		}
	}
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool, limit int) ([]alerts.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerts.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		n := s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID == id && n.UserID == userID && n.ReadAt == nil {
			now := time.Now().UTC()
			n.ReadAt = &now
			return nil
		}
	}
	return alerts.ErrNotificationNotFound
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
