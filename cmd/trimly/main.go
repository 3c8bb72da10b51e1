package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/trimly/adapter/cli"
	cliBilling "github.com/felixgeelhaar/trimly/adapter/cli/billing"
	"github.com/felixgeelhaar/trimly/internal/app"
	"github.com/felixgeelhaar/trimly/pkg/config"
	"github.com/felixgeelhaar/trimly/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Create context canceled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel))
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			return 1
		}
		// In development, allow read-only commands to explain what is missing
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer func() {
			if err := container.Close(); err != nil {
				logger.Warn("container close failed", "error", err)
			}
		}()

		cliApp = cli.NewApp(
			container.OnboardTenantHandler,
			container.SwitchPlanHandler,
			container.ConfirmPaymentHandler,
			container.MarkPastDueHandler,
			container.SuspendAccessHandler,
			container.CreateManualInvoiceHandler,
			container.SweepOverdueHandler,
			container.CreatePartnerHandler,
			container.SetPartnerActiveHandler,
			container.GetSubscriptionHandler,
			container.ListInvoicesHandler,
			container.ListPayoutsHandler,
			container.CountAvailableRewardsHandler,
			container.ListPlansHandler,
			container.ListPartnersHandler,
		)
		cliApp.SetHealthCheck(container.DBConn.Ping)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(cliBilling.Cmd)

	// Execute CLI
	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Without a broker nothing else drains the outbox, so relay what this
	// command wrote before exiting.
	if container != nil && container.InProcessEventBus != nil {
		if err := container.OutboxProcessor.ProcessOnce(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("outbox flush failed", "error", err)
		}
	}
	return 0
}
