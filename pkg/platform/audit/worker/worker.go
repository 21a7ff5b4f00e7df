package worker

import (
	"context"
	"log/slog"
	"time"

	audit "pcms/pkg/platform/audit"
)

// Outbox hands out unpublished entries and marks them once publish succeeds.
type Outbox interface {
	Drain(ctx context.Context, limit int, publish func(context.Context, []audit.OutboxEntry) error) (int, error)
}

// Producer delivers entries to the event stream.
type Producer interface {
	Publish(ctx context.Context, entries []audit.OutboxEntry) error
}

// Relay polls the outbox and forwards entries to the producer. Delivery is
// at-least-once: an entry published but not yet marked is sent again.
type Relay struct {
	outbox    Outbox
	producer  Producer
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(outbox Outbox, producer Producer, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		producer:  producer,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Publish failures are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// Flush drains full batches until the outbox is empty and returns how many
// entries were relayed.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.outbox.Drain(ctx, r.batchSize, r.producer.Publish)
		total += n
		if err != nil {
			return total, err
		}
		if n < r.batchSize {
			if total > 0 {
				r.logger.DebugContext(ctx, "outbox relayed", "entries", total)
			}
			return total, nil
		}
	}
}
