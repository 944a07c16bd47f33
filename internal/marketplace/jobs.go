package marketplace

import (
	"context"
	"errors"
	"fmt"
)

type NewJob struct {
	Title       string
	Description string
	Budget      int64
	Deadline    uint64
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// PostJob creates an Open job owned by client and returns its id.
func (s *Service) PostJob(ctx context.Context, client string, in NewJob) (uint64, error) {
	const op = "post-job"
	if err := requireActor(op, client); err != nil {
		return 0, err
	}
	if in.Budget <= 0 {
		return 0, reject(CodeInvalidAmount, op, "budget must be positive")
	}
	height, err := s.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: current height: %w", op, err)
	}
	if in.Deadline <= height {
		return 0, reject(CodePastDeadline, op, "deadline %d not after height %d", in.Deadline, height)
	}
	if err := checkText(op, "title", in.Title, MaxTitleLen); err != nil {
		return 0, err
	}
	if err := checkText(op, "description", in.Description, MaxDescriptionLen); err != nil {
		return 0, err
	}

	var id uint64
	err = s.execute(ctx, op, 0, func(tx Tx) error {
		next, err := tx.NextID(ctx, SeqJob)
		if err != nil {
			return fmt.Errorf("%s: next id: %w", op, err)
		}
		now := s.now()
		job := Job{
			ID:            next,
			Client:        client,
			Title:         in.Title,
			Description:   in.Description,
			Budget:        in.Budget,
			Deadline:      in.Deadline,
			Status:        StatusOpen,
			CreatedHeight: height,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.PutJob(ctx, job); err != nil {
			return fmt.Errorf("%s: save job: %w", op, err)
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("job posted", "op", op, "job_id", id, "actor", client, "budget", in.Budget, "deadline", in.Deadline)
	s.publish(ctx, newEvent(EventJobPosted, id, client))
	return id, nil
}

// GetJob reports found=false for unknown ids.
func (s *Service) GetJob(ctx context.Context, id uint64) (Job, bool, error) {
	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

func (s *Service) ListJobs(ctx context.Context, f JobFilter) ([]Job, error) {
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListJobs(ctx, f)
}

// CancelJob withdraws an Open job. Nothing is escrowed before acceptance, so no funds move.
func (s *Service) CancelJob(ctx context.Context, id uint64, caller string) error {
	const op = "cancel-job"
	err := s.execute(ctx, op, id, func(tx Tx) error {
		job, err := loadJob(ctx, tx, op, id)
		if err != nil {
			return err
		}
		if !IsClient(job, caller) {
			return reject(CodeUnauthorized, op, "only the client can cancel job %d", id)
		}
		if err := requireStatus(op, job, StatusOpen); err != nil {
			return err
		}
		if err := job.advance(StatusCancelled, s.now()); err != nil {
			return err
		}
		return tx.PutJob(ctx, job)
	})
	if err != nil {
		return err
	}

	s.log.Info("job cancelled", "op", op, "job_id", id, "actor", caller)
	e := newEvent(EventJobCancelled, id, caller, s.bidders(ctx, id)...)
	s.publish(ctx, e)
	return nil
}

// AcceptBid funds escrow from the client's wallet with the bid amount and starts the job.
func (s *Service) AcceptBid(ctx context.Context, id uint64, freelancer, caller string) error {
	const op = "accept-bid"
	var amount int64
	err := s.execute(ctx, op, id, func(tx Tx) error {
		job, err := loadJob(ctx, tx, op, id)
		if err != nil {
			return err
		}
		if !IsClient(job, caller) {
			return reject(CodeUnauthorized, op, "only the client can accept bids on job %d", id)
		}
		if err := requireStatus(op, job, StatusOpen); err != nil {
			return err
		}
		bid, err := tx.GetBid(ctx, id, freelancer)
		if errors.Is(err, ErrNotFound) {
			return reject(CodeBidNotFound, op, "no bid from %q on job %d", freelancer, id)
		}
		if err != nil {
			return fmt.Errorf("%s: load bid: %w", op, err)
		}
		if err := s.escrow.fund(ctx, tx, id, bid.Amount, caller); err != nil {
			return err
		}
		job.Freelancer = freelancer
		if err := job.advance(StatusInProgress, s.now()); err != nil {
			return err
		}
		if err := tx.PutJob(ctx, job); err != nil {
			return fmt.Errorf("%s: save job: %w", op, err)
		}
		amount = bid.Amount
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("bid accepted", "op", op, "job_id", id, "actor", caller, "freelancer", freelancer, "escrowed", amount)
	e := newEvent(EventBidAccepted, id, caller, freelancer)
	e.Amount = amount
	s.publish(ctx, e)
	return nil
}

// CompleteJob releases the full escrow to the freelancer.
func (s *Service) CompleteJob(ctx context.Context, id uint64, caller string) error {
	const op = "complete-job"
	var (
		paid       int64
		freelancer string
	)
	err := s.execute(ctx, op, id, func(tx Tx) error {
		job, err := loadJob(ctx, tx, op, id)
		if err != nil {
			return err
		}
		if !IsClient(job, caller) {
			return reject(CodeUnauthorized, op, "only the client can complete job %d", id)
		}
		if err := requireStatus(op, job, StatusInProgress); err != nil {
			return err
		}
		paid, err = s.escrow.release(ctx, tx, id, job.Freelancer)
		if err != nil {
			return err
		}
		if err := job.advance(StatusCompleted, s.now()); err != nil {
			return err
		}
		freelancer = job.Freelancer
		return tx.PutJob(ctx, job)
	})
	if err != nil {
		return err
	}

	s.log.Info("job completed", "op", op, "job_id", id, "actor", caller, "freelancer", freelancer, "paid", paid)
	e := newEvent(EventJobCompleted, id, caller, freelancer)
	e.Amount = paid
	s.publish(ctx, e)
	return nil
}

// EscrowBalance is 0 for jobs that were never funded.
func (s *Service) EscrowBalance(ctx context.Context, jobID uint64) (int64, error) {
	return s.store.EscrowBalance(ctx, jobID)
}
