package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// Enqueuer publishes ledger events as asynq tasks for the worker to deliver.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisAddr string) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (q *Enqueuer) Publish(ctx context.Context, e marketplace.Event) error {
	if len(e.Recipients) == 0 {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	task := asynq.NewTask(TaskLedgerEvent, b, asynq.MaxRetry(5))
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueAlerts)); err != nil {
		return fmt.Errorf("enqueue %s: %w", e.Type, err)
	}
	return nil
}

func (q *Enqueuer) Close() error {
	return q.client.Close()
}
