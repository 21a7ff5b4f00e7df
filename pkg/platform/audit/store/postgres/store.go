package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "pcms/pkg/platform/audit"
	txcontext "pcms/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the caller's transaction and
// relayed to Kafka by the outbox worker.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	ActorID    string `json:"actor_id,omitempty"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	CaseID     string `json:"case_id,omitempty"`
	CaseNumber string `json:"case_number,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	payload := outboxPayload{
		ID:         eventID.String(),
		Category:   string(category),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		CaseID:     event.CaseID,
		CaseNumber: event.CaseNumber,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	switch {
	case event.CaseID != "":
		aggregateType = "case"
		aggregateID = event.CaseID
	case event.EntityID != "":
		aggregateType = event.EntityType
		aggregateID = event.EntityID
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = txcontext.Use(ctx, s.db).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Drain claims up to limit unpublished entries, hands them to publish and
// marks them published, all in one transaction. Concurrent relays skip rows
// another relay has claimed. If publish fails nothing is marked and the
// entries are retried on the next drain.
func (s *Store) Drain(ctx context.Context, limit int, publish func(context.Context, []audit.OutboxEntry) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox drain: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return 0, fmt.Errorf("claim outbox entries: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := publish(ctx, entries); err != nil {
		return 0, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if _, err := tx.ExecContext(ctx, `UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])`, pq.Array(ids), time.Now()); err != nil {
		return 0, fmt.Errorf("mark outbox entries published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox drain: %w", err)
	}
	return len(entries), nil
}

// Pending counts entries not yet relayed.
func (s *Store) Pending(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending outbox entries: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]audit.OutboxEntry, error) {
	defer rows.Close()
	var entries []audit.OutboxEntry
	for rows.Next() {
		var (
			e       audit.OutboxEntry
			entryID uuid.UUID
		)
		if err := rows.Scan(&entryID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.ID = entryID.String()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}
