package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PCMS_ADDR", "PCMS_DATABASE_URL", "PCMS_KAFKA_BROKERS", "PCMS_MAX_MINT_ATTEMPTS", "PCMS_DB_TX_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Cases.MaxMintAttempts)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PCMS_ADDR", ":9090")
	t.Setenv("PCMS_DATABASE_URL", "postgres://pcms@db/pcms")
	t.Setenv("PCMS_KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("PCMS_MAX_MINT_ATTEMPTS", "3")
	t.Setenv("PCMS_DB_TX_TIMEOUT", "250ms")
	t.Setenv("PCMS_OUTBOX_BATCH", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://pcms@db/pcms", cfg.Database.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Cases.MaxMintAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.TxTimeout)
	assert.Equal(t, 100, cfg.Kafka.RelayBatch)
}
