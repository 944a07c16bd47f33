package marketplace

import (
	"encoding/json"
	"time"
)

type JobStatus uint8

const (
	StatusOpen       JobStatus = 1
	StatusInProgress JobStatus = 2
	StatusCompleted  JobStatus = 3
	StatusCancelled  JobStatus = 4
	StatusDisputed   JobStatus = 5
)

var statusNames = map[JobStatus]string{
	StatusOpen:       "open",
	StatusInProgress: "in_progress",
	StatusCompleted:  "completed",
	StatusCancelled:  "cancelled",
	StatusDisputed:   "disputed",
}

func (s JobStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s JobStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseJobStatus accepts the snake_case names used in the API.
func ParseJobStatus(name string) (JobStatus, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Text bounds enforced on every write.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
	MaxProposalLen    = 500
	MaxReasonLen      = 500
)

type Job struct {
	ID            uint64    `json:"id"`
	Client        string    `json:"client"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Budget        int64     `json:"budget"`
	Deadline      uint64    `json:"deadline"`
	Status        JobStatus `json:"-"`
	Freelancer    string    `json:"freelancer,omitempty"`
	CreatedHeight uint64    `json:"created_height"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasFreelancer reports whether a bid has been accepted on the job.
func (j Job) HasFreelancer() bool { return j.Freelancer != "" }

func (j Job) MarshalJSON() ([]byte, error) {
	type plain Job
	return json.Marshal(struct {
		plain
		Status     string    `json:"status"`
		StatusCode JobStatus `json:"status_code"`
	}{plain: plain(j), Status: j.Status.String(), StatusCode: j.Status})
}

type Bid struct {
	JobID      uint64    `json:"job_id"`
	Freelancer string    `json:"freelancer"`
	Amount     int64     `json:"amount"`
	Proposal   string    `json:"proposal"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

type Dispute struct {
	ID               uint64        `json:"id"`
	JobID            uint64        `json:"job_id"`
	Opener           string        `json:"opener"`
	Reason           string        `json:"reason"`
	Status           DisputeStatus `json:"status"`
	FreelancerAmount *int64        `json:"freelancer_amount,omitempty"`
	ResolvedBy       string        `json:"resolved_by,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	ResolvedAt       *time.Time    `json:"resolved_at,omitempty"`
}

// Rating is a running integer average. Zero value means no ratings yet.
type Rating struct {
	User    string `json:"user"`
	Average uint8  `json:"average_rating"`
	Count   uint64 `json:"ratings_count"`
}

// Add folds one score into the running average with integer division.
func (r Rating) Add(score uint8) Rating {
	total := uint64(r.Average)*r.Count + uint64(score)
	r.Count++
	r.Average = uint8(total / r.Count)
	return r
}

type JobFilter struct {
	Status JobStatus
	Client string
	Limit  int
	Offset int
}

type DisputeFilter struct {
	Status DisputeStatus
	JobID  uint64
	Limit  int
	Offset int
}

// Stats is a point-in-time summary for operators.
type Stats struct {
	JobsByStatus  map[string]int64 `json:"jobs_by_status"`
	EscrowHeld    int64            `json:"escrow_held"`
	OpenDisputes  int64            `json:"open_disputes"`
	TotalDisputes int64            `json:"total_disputes"`
}
