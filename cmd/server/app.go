package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"pcms/internal/casenumber"
	casemetrics "pcms/internal/cases/metrics"
	caseservice "pcms/internal/cases/service"
	personservice "pcms/internal/persons/service"
	"pcms/internal/platform/config"
	"pcms/internal/platform/httpserver"
	"pcms/internal/platform/kafka/producer"
	"pcms/internal/platform/lock"
	"pcms/internal/platform/redis"
	"pcms/internal/storage"
	"pcms/internal/storage/memory"
	"pcms/internal/storage/postgres"
	tagmetrics "pcms/internal/tags/metrics"
	tagservice "pcms/internal/tags/service"
	vehicleservice "pcms/internal/vehicles/service"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/audit/publisher"
	auditmemory "pcms/pkg/platform/audit/store/memory"
	auditpostgres "pcms/pkg/platform/audit/store/postgres"
	"pcms/pkg/platform/audit/worker"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
)

// app holds the wired services and the resources they borrow.
type app struct {
	Cases    *caseservice.Service
	Tags     *tagservice.Service
	Persons  *personservice.Service
	Vehicles *vehicleservice.Service

	relay           *worker.Relay
	checks          map[string]httpserver.Check
	storeKind       string
	distributedLock bool
	closers         []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{checks: map[string]httpserver.Check{}}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var (
		store      storage.Store
		auditStore audit.Store
		outbox     *auditpostgres.Store
	)
	if cfg.Database.URL == "" {
		store = memory.New(memory.WithTxTimeout(cfg.Database.TxTimeout))
		auditStore = auditmemory.NewInMemoryStore()
		a.storeKind = "memory"
	} else {
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		pg := postgres.New(db, postgres.WithTxTimeout(cfg.Database.TxTimeout))
		a.checks["database"] = pg.Ping
		store = pg
		outbox = auditpostgres.New(db)
		auditStore = outbox
		a.storeKind = "postgres"
	}

	if cfg.BootstrapEmail != "" {
		user, err := storage.SeedBootstrapUser(ctx, store, cfg.BootstrapEmail)
		if err != nil {
			return nil, fmt.Errorf("seed bootstrap user: %w", err)
		}
		log.Info("bootstrap user ready", "user_id", user.ID.String())
	}

	events := publisher.NewPublisher(auditStore,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)

	var locker lock.Locker = lock.NewSharded()
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.checks["redis"] = rdb.Health
		locker = rdb.Locker(log)
		a.distributedLock = true
	}

	a.Cases, err = caseservice.New(store, casenumber.New(),
		caseservice.WithLogger(log),
		caseservice.WithAuditPublisher(events),
		caseservice.WithMetrics(casemetrics.New(reg)),
		caseservice.WithMaxMintAttempts(cfg.Cases.MaxMintAttempts),
	)
	if err != nil {
		return nil, err
	}
	a.Tags, err = tagservice.New(store,
		tagservice.WithLogger(log),
		tagservice.WithAuditPublisher(events),
		tagservice.WithMetrics(tagmetrics.New(reg)),
		tagservice.WithLocker(locker),
	)
	if err != nil {
		return nil, err
	}
	a.Persons, err = personservice.New(store,
		personservice.WithLogger(log),
		personservice.WithAuditPublisher(events),
	)
	if err != nil {
		return nil, err
	}
	a.Vehicles, err = vehicleservice.New(store,
		vehicleservice.WithLogger(log),
		vehicleservice.WithAuditPublisher(events),
	)
	if err != nil {
		return nil, err
	}

	if len(cfg.Kafka.Brokers) > 0 {
		if outbox == nil {
			log.Warn("kafka brokers configured without a database; audit relay disabled")
			return a, nil
		}
		p, err := producer.New(producer.Config{Brokers: cfg.Kafka.Brokers, TopicPrefix: cfg.Kafka.TopicPrefix}, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		if err := p.EnsureTopics(ctx, auditTopicPartitions, auditTopicReplication); err != nil {
			return nil, err
		}
		a.checks["kafka"] = p.Ping
		a.relay = worker.NewRelay(outbox, p,
			worker.WithInterval(cfg.Kafka.RelayInterval),
			worker.WithBatchSize(cfg.Kafka.RelayBatch),
			worker.WithLogger(log),
		)
	}
	return a, nil
}

func openDatabase(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := postgres.Open(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
