package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Cases    Cases
	LogLevel string
	// BootstrapEmail seeds one user so a fresh store has a creator to
	// attribute cases to. Empty disables seeding.
	BootstrapEmail string
}

// Server captures the operational HTTP listener.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database selects the store. An empty URL runs the in-memory store.
type Database struct {
	URL       string
	TxTimeout time.Duration
	Migrate   bool
}

// RedisConfig enables the distributed tag-link lock when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka enables the audit outbox relay when Brokers is non-empty. The relay
// only runs against the Postgres store, where the outbox lives.
type Kafka struct {
	Brokers       []string
	TopicPrefix   string
	RelayInterval time.Duration
	RelayBatch    int
}

type Cases struct {
	MaxMintAttempts int
}

// FromEnv builds the config from PCMS_* environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("PCMS_ADDR", ":8080"),
			ShutdownTimeout: envDuration("PCMS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL:       os.Getenv("PCMS_DATABASE_URL"),
			TxTimeout: envDuration("PCMS_DB_TX_TIMEOUT", 5*time.Second),
			Migrate:   envString("PCMS_DB_MIGRATE", "true") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("PCMS_REDIS_URL"),
			PoolSize:     envInt("PCMS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PCMS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("PCMS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PCMS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PCMS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:       envList("PCMS_KAFKA_BROKERS"),
			TopicPrefix:   envString("PCMS_KAFKA_TOPIC_PREFIX", "pcms.audit"),
			RelayInterval: envDuration("PCMS_OUTBOX_INTERVAL", time.Second),
			RelayBatch:    envInt("PCMS_OUTBOX_BATCH", 100),
		},
		Cases: Cases{
			MaxMintAttempts: envInt("PCMS_MAX_MINT_ATTEMPTS", 5),
		},
		LogLevel:       envString("PCMS_LOG_LEVEL", "info"),
		BootstrapEmail: os.Getenv("PCMS_BOOTSTRAP_EMAIL"),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envInt falls back on missing or malformed values.
func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
