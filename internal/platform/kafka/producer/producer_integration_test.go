//go:build integration

package producer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pcms/pkg/platform/audit"
	"pcms/pkg/testutil/containers"
)

func TestPublishRoutesByCategory(t *testing.T) {
	rp := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := New(Config{Brokers: []string{rp.Broker}, TopicPrefix: "test.audit"}, nil)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Ping(ctx))
	require.NoError(t, p.EnsureTopics(ctx, 1, 1))
	require.NoError(t, p.EnsureTopics(ctx, 1, 1), "existing topics are not an error")

	entry := audit.OutboxEntry{
		ID:            "5b7c1d40-8a4e-4a8a-9a43-2d0b0f4c0e11",
		AggregateType: "case",
		AggregateID:   "case-1",
		EventType:     string(audit.EventCaseCreated),
		Payload:       []byte(`{"action":"case_created"}`),
		CreatedAt:     time.Now(),
	}
	require.NoError(t, p.Publish(ctx, []audit.OutboxEntry{entry}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(p.Topic(audit.CategoryCompliance)),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, []byte("case-1"), records[0].Key)
	require.Equal(t, entry.Payload, records[0].Value)
}
