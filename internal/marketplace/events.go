package marketplace

import (
	"context"
	"time"
)

type EventType string

const (
	EventJobPosted       EventType = "job:posted"
	EventBidSubmitted    EventType = "bid:submitted"
	EventBidAccepted     EventType = "bid:accepted"
	EventJobCompleted    EventType = "job:completed"
	EventJobCancelled    EventType = "job:cancelled"
	EventDisputeOpened   EventType = "dispute:opened"
	EventDisputeResolved EventType = "dispute:resolved"
	EventJobRated        EventType = "job:rated"
)

// Event describes a committed state change. Recipients are the identities that
// should hear about it; the actor is never among them.
type Event struct {
	Type       EventType `json:"type"`
	JobID      uint64    `json:"job_id"`
	DisputeID  uint64    `json:"dispute_id,omitempty"`
	Actor      string    `json:"actor"`
	Recipients []string  `json:"recipients"`
	Amount     int64     `json:"amount,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func newEvent(t EventType, jobID uint64, actor string, recipients ...string) Event {
	out := make([]string, 0, len(recipients))
	seen := map[string]bool{actor: true}
	for _, r := range recipients {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return Event{Type: t, JobID: jobID, Actor: actor, Recipients: out, At: time.Now().UTC()}
}
