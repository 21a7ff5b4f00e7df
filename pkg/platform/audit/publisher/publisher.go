// Package publisher emits audit events with fail-closed semantics.
//
// Emit writes synchronously to the audit store. When the store is the
// Postgres outbox and the caller is inside a unit of work, the event commits
// or rolls back with the business change; an Emit failure must fail the
// operation that produced it.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "pcms/pkg/platform/audit"
	"pcms/pkg/requestcontext"
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills in category, timestamp and request ID when unset, then persists
// the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"entity_type", event.EntityType,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(start)
		p.metrics.IncEventsEmitted(event.Category)
	}
	return nil
}
