package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"pcms/internal/platform/config"
	"pcms/internal/platform/httpserver"
	"pcms/internal/platform/logger"
	"pcms/internal/platform/metrics"
)

var version = "dev"

// main wires dependencies, starts the ops listener and the audit relay, and
// keeps the process lifecycle small. Business logic lives in the service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pcms stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := metrics.NewRegistry(version)

	a, err := build(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Server.Addr, httpserver.NewOpsRouter(reg, a.checks))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	if a.relay != nil {
		g.Go(func() error {
			if err := a.relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	log.Info("pcms ready",
		"addr", cfg.Server.Addr,
		"store", a.storeKind,
		"distributed_lock", a.distributedLock,
		"audit_relay", a.relay != nil,
		"version", version,
	)
	return g.Wait()
}
