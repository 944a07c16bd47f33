package marketplace

import (
	"fmt"
	"time"
)

// transitions is the complete job lifecycle. Completed and Cancelled are terminal.
var transitions = map[JobStatus][]JobStatus{
	StatusOpen:       {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusDisputed},
	StatusDisputed:   {StatusCompleted},
}

func isAllowedTransition(from, to JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func requireStatus(op string, job Job, want JobStatus) error {
	if job.Status != want {
		return reject(CodeInvalidStatus, op, "job %d is %s, want %s", job.ID, job.Status, want)
	}
	return nil
}

// advance moves the job along an allowed edge. Callers check the source status with
// requireStatus first, so a failure here is a programming error.
func (j *Job) advance(to JobStatus, at time.Time) error {
	if !isAllowedTransition(j.Status, to) {
		return fmt.Errorf("job %d: illegal transition %s -> %s", j.ID, j.Status, to)
	}
	j.Status = to
	j.UpdatedAt = at
	return nil
}
