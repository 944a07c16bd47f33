package marketplace

import (
	"context"
	"errors"
	"fmt"
)

// SubmitBid records or replaces the caller's bid on an Open job. There is at most
// one bid per (job, freelancer); a later submission overwrites the earlier one.
func (s *Service) SubmitBid(ctx context.Context, jobID uint64, caller string, amount int64, proposal string) error {
	const op = "submit-bid"
	var client string
	err := s.execute(ctx, op, jobID, func(tx Tx) error {
		job, err := loadJob(ctx, tx, op, jobID)
		if err != nil {
			return err
		}
		if err := requireActor(op, caller); err != nil {
			return err
		}
		if IsClient(job, caller) {
			return reject(CodeUnauthorized, op, "client cannot bid on own job %d", jobID)
		}
		if err := requireStatus(op, job, StatusOpen); err != nil {
			return err
		}
		if amount <= 0 {
			return reject(CodeInvalidAmount, op, "bid amount must be positive")
		}
		if err := checkText(op, "proposal", proposal, MaxProposalLen); err != nil {
			return err
		}
		bid := Bid{
			JobID:      jobID,
			Freelancer: caller,
			Amount:     amount,
			Proposal:   proposal,
			UpdatedAt:  s.now(),
		}
		if err := tx.PutBid(ctx, bid); err != nil {
			return fmt.Errorf("%s: save bid: %w", op, err)
		}
		client = job.Client
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("bid submitted", "op", op, "job_id", jobID, "actor", caller, "amount", amount)
	e := newEvent(EventBidSubmitted, jobID, caller, client)
	e.Amount = amount
	s.publish(ctx, e)
	return nil
}

func (s *Service) GetBid(ctx context.Context, jobID uint64, freelancer string) (Bid, bool, error) {
	bid, err := s.store.GetBid(ctx, jobID, freelancer)
	if errors.Is(err, ErrNotFound) {
		return Bid{}, false, nil
	}
	if err != nil {
		return Bid{}, false, err
	}
	return bid, true, nil
}

func (s *Service) ListBids(ctx context.Context, jobID uint64) ([]Bid, error) {
	return s.store.ListBids(ctx, jobID)
}

// bidders lists everyone with a bid on the job, for notifications. Lookup errors are
// logged and yield no recipients.
func (s *Service) bidders(ctx context.Context, jobID uint64) []string {
	bids, err := s.store.ListBids(ctx, jobID)
	if err != nil {
		s.log.Warn("list bidders failed", "job_id", jobID, "error", err)
		return nil
	}
	out := make([]string, 0, len(bids))
	for _, b := range bids {
		out = append(out, b.Freelancer)
	}
	return out
}
