package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// Processor consumes ledger event tasks and hands them to the Notifier.
type Processor struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier *Notifier
	log      *logger.Logger
}

func NewProcessor(redisAddr string, notifier *Notifier, baseLog *logger.Logger) *Processor {
	log := baseLog.With("component", "alerts-processor")
	p := &Processor{
		notifier: notifier,
		log:      log,
		mux:      asynq.NewServeMux(),
	}
	p.mux.HandleFunc(TaskLedgerEvent, p.handleLedgerEvent)
	p.server = asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueAlerts: 1,
		},
		Logger: log.SugaredLogger,
	})
	return p
}

// Start begins processing in the background.
func (p *Processor) Start() error {
	if err := p.server.Start(p.mux); err != nil {
		return fmt.Errorf("start alerts processor: %w", err)
	}
	p.log.Info("alerts processor started", "queue", QueueAlerts)
	return nil
}

func (p *Processor) Shutdown() {
	p.server.Shutdown()
	p.log.Info("alerts processor stopped")
}

func (p *Processor) handleLedgerEvent(ctx context.Context, t *asynq.Task) error {
	var e marketplace.Event
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		p.log.Error("malformed ledger event", "error", err)
		return fmt.Errorf("decode ledger event: %v: %w", err, asynq.SkipRetry)
	}
	return p.notifier.Deliver(ctx, e)
}
