package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// Notifier turns a committed ledger event into one notification per recipient.
// It also satisfies marketplace.Publisher for deployments without a queue.
type Notifier struct {
	store Store
	log   *logger.Logger
}

func NewNotifier(store Store, baseLog *logger.Logger) *Notifier {
	return &Notifier{store: store, log: baseLog.With("component", "notifier")}
}

func (n *Notifier) Publish(ctx context.Context, e marketplace.Event) error {
	return n.Deliver(ctx, e)
}

func (n *Notifier) Deliver(ctx context.Context, e marketplace.Event) error {
	if len(e.Recipients) == 0 {
		return nil
	}
	title, body := render(e)
	ref := fmt.Sprintf("job:%d", e.JobID)
	if e.DisputeID != 0 {
		ref = fmt.Sprintf("dispute:%d", e.DisputeID)
	}
	created := e.At
	if created.IsZero() {
		created = time.Now().UTC()
	}
	for _, userID := range e.Recipients {
		item := Notification{
			ID:        notificationID(e, userID),
			UserID:    userID,
			Type:      string(e.Type),
			Title:     title,
			Body:      body,
			Reference: ref,
			CreatedAt: created,
		}
		if err := n.store.CreateNotification(ctx, item); err != nil {
			return fmt.Errorf("notify %s of %s: %w", userID, e.Type, err)
		}
	}
	n.log.Debug("notifications created", "event", e.Type, "job_id", e.JobID, "recipients", len(e.Recipients))
	return nil
}

// notificationNamespace scopes notification ids derived from events.
var notificationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gigledger:notification"))

// notificationID is stable for one event and recipient, so a redelivered task
// recreates the same rows instead of adding new ones.
func notificationID(e marketplace.Event, userID string) string {
	key := fmt.Sprintf("%s|%d|%d|%s|%d|%d|%s", e.Type, e.JobID, e.DisputeID, e.Actor, e.Amount, e.At.UnixNano(), userID)
	return uuid.NewSHA1(notificationNamespace, []byte(key)).String()
}

func render(e marketplace.Event) (title, body string) {
	switch e.Type {
	case marketplace.EventBidSubmitted:
		return fmt.Sprintf("New bid on job #%d", e.JobID),
			fmt.Sprintf("A freelancer bid %d on your job.", e.Amount)
	case marketplace.EventBidAccepted:
		return fmt.Sprintf("Your bid on job #%d was accepted", e.JobID),
			fmt.Sprintf("%d is now held in escrow for this job.", e.Amount)
	case marketplace.EventJobCompleted:
		return fmt.Sprintf("Job #%d completed", e.JobID),
			fmt.Sprintf("%d has been released to your wallet.", e.Amount)
	case marketplace.EventJobCancelled:
		return fmt.Sprintf("Job #%d was cancelled", e.JobID),
			"The client cancelled this job. Your bid is no longer active."
	case marketplace.EventDisputeOpened:
		return fmt.Sprintf("Dispute #%d opened on job #%d", e.DisputeID, e.JobID), e.Detail
	case marketplace.EventDisputeResolved:
		return fmt.Sprintf("Dispute #%d resolved", e.DisputeID),
			fmt.Sprintf("The freelancer was awarded %d; any remainder was refunded to the client.", e.Amount)
	case marketplace.EventJobRated:
		return fmt.Sprintf("You were rated on job #%d", e.JobID),
			fmt.Sprintf("You received a %d-star rating.", e.Amount)
	default:
		return fmt.Sprintf("Update on job #%d", e.JobID), string(e.Type)
	}
}
