package marketplace

import (
	"context"
	"fmt"
)

const (
	MinScore = 1
	MaxScore = 5
)

// RateJob folds score into the counterpart's running average.
//
// A participant may rate the same job any number of times and every call counts.
// Nothing records who already rated; keep that in mind before exposing this to
// untrusted callers.
func (s *Service) RateJob(ctx context.Context, jobID uint64, caller string, score int) error {
	const op = "rate-job"
	var updated Rating
	err := s.execute(ctx, op, jobID, func(tx Tx) error {
		job, err := loadJob(ctx, tx, op, jobID)
		if err != nil {
			return err
		}
		if err := requireStatus(op, job, StatusCompleted); err != nil {
			return err
		}
		if !IsParticipant(job, caller) {
			return reject(CodeUnauthorized, op, "only participants can rate job %d", jobID)
		}
		if score < MinScore || score > MaxScore {
			return reject(CodeInvalidAmount, op, "score %d outside %d..%d", score, MinScore, MaxScore)
		}
		target := job.Client
		if IsClient(job, caller) {
			target = job.Freelancer
		}
		current, err := tx.GetRating(ctx, target)
		if err != nil {
			return fmt.Errorf("%s: load rating: %w", op, err)
		}
		current.User = target
		updated = current.Add(uint8(score))
		if err := tx.PutRating(ctx, updated); err != nil {
			return fmt.Errorf("%s: save rating: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("job rated", "op", op, "job_id", jobID, "actor", caller, "target", updated.User,
		"score", score, "average", updated.Average, "count", updated.Count)
	e := newEvent(EventJobRated, jobID, caller, updated.User)
	e.Amount = int64(score)
	s.publish(ctx, e)
	return nil
}

// UserRating returns a zero Rating for users nobody has rated.
func (s *Service) UserRating(ctx context.Context, user string) (Rating, error) {
	r, err := s.store.GetRating(ctx, user)
	if err != nil {
		return Rating{}, err
	}
	r.User = user
	return r, nil
}
