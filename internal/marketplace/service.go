package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sudo-init-do/gigledger/internal/logger"
)

// Service is the transactional core. Every mutating method validates all of its
// preconditions inside one store transaction and either commits every change or none.
type Service struct {
	store  Store
	clock  Clock
	events Publisher
	log    *logger.Logger
	locks  *jobLocks
	escrow escrowLedger
	now    func() time.Time
}

func NewService(store Store, clock Clock, events Publisher, baseLog *logger.Logger) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		store:  store,
		clock:  clock,
		events: events,
		log:    baseLog.With("service", "marketplace"),
		locks:  newJobLocks(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// execute serializes on jobID (when non-zero) and runs fn in a store transaction.
func (s *Service) execute(ctx context.Context, op string, jobID uint64, fn func(tx Tx) error) error {
	if jobID != 0 {
		unlock := s.locks.lock(jobID)
		defer unlock()
	}
	started := time.Now()
	err := s.store.InTx(ctx, fn)
	switch {
	case err == nil:
		s.log.Debug("operation committed", "op", op, "job_id", jobID, "duration", time.Since(started))
	case CodeOf(err) != 0:
		s.log.Debug("operation rejected", "op", op, "job_id", jobID, "code", CodeOf(err).String(), "error", err)
	default:
		s.log.Error("operation failed", "op", op, "job_id", jobID, "error", err)
	}
	return err
}

// publish is best-effort: the state change is already committed.
func (s *Service) publish(ctx context.Context, e Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", "event", e.Type, "job_id", e.JobID, "error", err)
	}
}

func loadJob(ctx context.Context, tx Tx, op string, id uint64) (Job, error) {
	job, err := tx.GetJob(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Job{}, reject(CodeJobNotFound, op, "job %d not found", id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("%s: load job %d: %w", op, id, err)
	}
	return job, nil
}

func checkText(op, field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return reject(CodeInvalidInput, op, "%s is %d characters, max %d", field, n, max)
	}
	return nil
}

func requireActor(op, actor string) error {
	if strings.TrimSpace(actor) == "" {
		return reject(CodeUnauthorized, op, "caller identity required")
	}
	return nil
}

// Initialize records the owner identity. It succeeds exactly once.
func (s *Service) Initialize(ctx context.Context, owner string) error {
	const op = "initialize"
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return reject(CodeInvalidInput, op, "owner identity required")
	}
	err := s.execute(ctx, op, 0, func(tx Tx) error {
		current, err := tx.Owner(ctx)
		if err != nil {
			return fmt.Errorf("%s: read owner: %w", op, err)
		}
		if current != "" {
			return reject(CodeAlreadyInitialized, op, "owner already set")
		}
		if err := tx.SetOwner(ctx, owner); err != nil {
			if errors.Is(err, ErrConflict) {
				return reject(CodeAlreadyInitialized, op, "owner already set")
			}
			return fmt.Errorf("%s: set owner: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("ledger initialized", "op", op, "owner", owner)
	return nil
}

// Owner returns the owner identity, or "" before Initialize.
func (s *Service) Owner(ctx context.Context) (string, error) {
	return s.store.Owner(ctx)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}
