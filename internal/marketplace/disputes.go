package marketplace

import (
	"context"
	"errors"
	"fmt"
)

// OpenDispute freezes an InProgress job until the owner resolves it.
func (s *Service) OpenDispute(ctx context.Context, jobID uint64, caller, reason string) (uint64, error) {
	const op = "open-dispute"
	var (
		id         uint64
		recipients []string
	)
	err := s.execute(ctx, op, jobID, func(tx Tx) error {
		job, err := loadJob(ctx, tx, op, jobID)
		if err != nil {
			return err
		}
		if !IsParticipant(job, caller) {
			return reject(CodeUnauthorized, op, "only participants can dispute job %d", jobID)
		}
		if err := requireStatus(op, job, StatusInProgress); err != nil {
			return err
		}
		if err := checkText(op, "reason", reason, MaxReasonLen); err != nil {
			return err
		}
		next, err := tx.NextID(ctx, SeqDispute)
		if err != nil {
			return fmt.Errorf("%s: next id: %w", op, err)
		}
		now := s.now()
		d := Dispute{
			ID:        next,
			JobID:     jobID,
			Opener:    caller,
			Reason:    reason,
			Status:    DisputeOpen,
			CreatedAt: now,
		}
		if err := tx.PutDispute(ctx, d); err != nil {
			if errors.Is(err, ErrConflict) {
				return reject(CodeInvalidStatus, op, "job %d already has an open dispute", jobID)
			}
			return fmt.Errorf("%s: save dispute: %w", op, err)
		}
		if err := job.advance(StatusDisputed, now); err != nil {
			return err
		}
		if err := tx.PutJob(ctx, job); err != nil {
			return fmt.Errorf("%s: save job: %w", op, err)
		}
		owner, err := tx.Owner(ctx)
		if err != nil {
			return fmt.Errorf("%s: read owner: %w", op, err)
		}
		id = next
		recipients = []string{job.Client, job.Freelancer, owner}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("dispute opened", "op", op, "job_id", jobID, "dispute_id", id, "actor", caller)
	e := newEvent(EventDisputeOpened, jobID, caller, recipients...)
	e.DisputeID = id
	e.Detail = reason
	s.publish(ctx, e)
	return id, nil
}

// ResolveDispute pays freelancerAmount from escrow to the freelancer and refunds the
// remainder to the client. Only the owner may resolve.
func (s *Service) ResolveDispute(ctx context.Context, disputeID uint64, freelancerAmount int64, caller string) error {
	const op = "resolve-dispute"
	owner, err := s.store.Owner(ctx)
	if err != nil {
		return fmt.Errorf("%s: read owner: %w", op, err)
	}
	if !IsOwner(owner, caller) {
		return reject(CodeUnauthorized, op, "only the owner can resolve disputes")
	}
	found, err := s.store.GetDispute(ctx, disputeID)
	if errors.Is(err, ErrNotFound) {
		return reject(CodeDisputeNotFound, op, "dispute %d not found", disputeID)
	}
	if err != nil {
		return fmt.Errorf("%s: load dispute: %w", op, err)
	}

	var (
		job    Job
		refund int64
	)
	err = s.execute(ctx, op, found.JobID, func(tx Tx) error {
		d, err := tx.GetDispute(ctx, disputeID)
		if err != nil {
			return fmt.Errorf("%s: lock dispute: %w", op, err)
		}
		if d.Status != DisputeOpen {
			return reject(CodeInvalidStatus, op, "dispute %d is %s", disputeID, d.Status)
		}
		job, err = loadJob(ctx, tx, op, d.JobID)
		if err != nil {
			return err
		}
		if err := requireStatus(op, job, StatusDisputed); err != nil {
			return err
		}
		refund, err = s.escrow.split(ctx, tx, job.ID, freelancerAmount, job.Freelancer, job.Client)
		if err != nil {
			return err
		}
		now := s.now()
		amount := freelancerAmount
		d.Status = DisputeResolved
		d.FreelancerAmount = &amount
		d.ResolvedBy = caller
		d.ResolvedAt = &now
		if err := tx.PutDispute(ctx, d); err != nil {
			return fmt.Errorf("%s: save dispute: %w", op, err)
		}
		if err := job.advance(StatusCompleted, now); err != nil {
			return err
		}
		return tx.PutJob(ctx, job)
	})
	if err != nil {
		return err
	}

	s.log.Info("dispute resolved", "op", op, "job_id", job.ID, "dispute_id", disputeID, "actor", caller,
		"freelancer_amount", freelancerAmount, "refund", refund)
	e := newEvent(EventDisputeResolved, job.ID, caller, job.Freelancer, job.Client)
	e.DisputeID = disputeID
	e.Amount = freelancerAmount
	s.publish(ctx, e)
	return nil
}

func (s *Service) GetDispute(ctx context.Context, id uint64) (Dispute, bool, error) {
	d, err := s.store.GetDispute(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Dispute{}, false, nil
	}
	if err != nil {
		return Dispute{}, false, err
	}
	return d, true, nil
}

func (s *Service) ListDisputes(ctx context.Context, f DisputeFilter) ([]Dispute, error) {
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListDisputes(ctx, f)
}
