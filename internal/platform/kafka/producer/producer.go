// Package producer publishes relayed outbox entries to Kafka.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pcms/pkg/platform/audit"
)

// Config holds the producer settings.
type Config struct {
	Brokers     []string
	ClientID    string
	TopicPrefix string
}

// Producer writes outbox entries to one topic per event category, keyed by
// aggregate so all events of a case land on the same partition.
type Producer struct {
	client *kgo.Client
	prefix string
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: no brokers configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "pcms"
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "pcms.audit"
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, prefix: prefix, logger: logger}, nil
}

// Topic returns the topic events of the given category are written to.
func (p *Producer) Topic(category audit.EventCategory) string {
	return p.prefix + "." + string(category)
}

// Topics lists every topic the producer may write to.
func (p *Producer) Topics() []string {
	return []string{
		p.Topic(audit.CategoryCompliance),
		p.Topic(audit.CategoryOperations),
	}
}

// EnsureTopics creates the producer's topics if they do not exist yet.
func (p *Producer) EnsureTopics(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.Topics()...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Publish writes the entries synchronously and fails if any record fails.
func (p *Producer) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	records := make([]*kgo.Record, len(entries))
	for i, e := range entries {
		records[i] = &kgo.Record{
			Topic: p.Topic(e.Category()),
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "aggregate_type", Value: []byte(e.AggregateType)},
				{Key: "outbox_id", Value: []byte(e.ID)},
			},
			Timestamp: e.CreatedAt,
		}
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "kafka publish failed",
			"error", err,
			"records", len(records),
		)
		return fmt.Errorf("produce records: %w", err)
	}
	return nil
}

func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}
