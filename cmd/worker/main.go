// Command worker relays the billing outbox, runs the overdue sweep on its
// cron schedule and, with RabbitMQ configured, feeds the revenue metrics
// projection from its queue.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/trimly/internal/app"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/trimly/pkg/config"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"golang.org/x/sync/errgroup"
)

const revenueQueue = "trimly.billing.revenue-metrics"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel)).With("component", "worker")

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker exited", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("container close failed", "error", err)
		}
	}()

	scheduler, err := app.NewScheduler(container)
	if err != nil {
		return err
	}

	if err := container.OutboxProcessor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start outbox processor: %w", err)
	}
	defer container.OutboxProcessor.Stop()

	scheduler.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	logger.Info("worker started",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"cron_jobs", scheduler.Jobs(),
	)

	g, ctx := errgroup.WithContext(ctx)

	// Local mode already feeds the projection from the in-process bus.
	if container.InProcessEventBus == nil && cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: revenueQueue,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer consumer.Close()
		if err := consumer.RegisterConsumer(container.RevenueMetricsConsumer); err != nil {
			return err
		}
		g.Go(func() error { return ignoreCanceled(consumer.Start(ctx)) })
	}

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(container),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// healthMux serves liveness from the outbox relay, readiness from the
// registered dependency checks, and Prometheus metrics.
func healthMux(container *app.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := container.OutboxProcessor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"relay_running":     stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"lag_seconds":       stats.LagSeconds,
			"last_processed_at": stats.LastProcessedAt,
			"last_error":        stats.LastError,
		})
	})
	mux.Handle("/readyz", container.Health.Handler(2*time.Second))
	observability.RegisterMetricsEndpoint(mux, container.Registry)
	return mux
}
