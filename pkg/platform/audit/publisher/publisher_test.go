package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pcms/pkg/domain"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/audit/store/memory"
	"pcms/pkg/requestcontext"
)

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	actor := id.UserID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		ActorID:    actor,
		Action:     string(audit.EventCaseCreated),
		EntityType: "case",
		EntityID:   "c-1",
		CaseID:     "c-1",
	})
	require.NoError(t, err)

	events, err := store.ListByCase(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, actor, events[0].ActorID)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_FillsFromRequestContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-42")

	require.NoError(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventTagLinked)}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	custom := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventTagCreated), Timestamp: custom}))

	events, err := store.ListByAction(context.Background(), audit.EventTagCreated)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, custom, events[0].Timestamp)
}

func TestPublisher_RequiresAction(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	assert.Error(t, pub.Emit(context.Background(), audit.Event{}))
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestPublisher_FailsClosed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	pub := NewPublisher(failingStore{}, WithMetrics(m))

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCaseDeleted)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
}

func TestPublisher_CountsByCategory(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	pub := NewPublisher(memory.NewInMemoryStore(), WithMetrics(m))

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCaseCreated)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventTagLinked)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: string(audit.EventTagUnlinked)}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsEmitted.WithLabelValues(string(audit.CategoryCompliance))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsEmitted.WithLabelValues(string(audit.CategoryOperations))))
}

func TestEventCategory(t *testing.T) {
	assert.Equal(t, audit.CategoryCompliance, audit.EventEvidenceDeleted.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventTagUpdated.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
