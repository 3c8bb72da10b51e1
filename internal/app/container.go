// Package app wires configuration, storage, handlers and delivery adapters
// into one dependency container shared by the CLI and the worker.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/felixgeelhaar/trimly/internal/billing/application/queries"
	"github.com/felixgeelhaar/trimly/internal/billing/application/services"
	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/billing/infrastructure/consumers"
	"github.com/felixgeelhaar/trimly/internal/billing/infrastructure/persistence"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	sharedApplication "github.com/felixgeelhaar/trimly/internal/shared/application"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/trimly/pkg/config"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	_ "github.com/lib/pq" // database/sql driver for PostgreSQL migrations
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clock.Clock

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Health   *observability.HealthRegistry

	// Repositories
	Repositories *persistence.Repositories
	OutboxRepo   outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	Catalog *domain.Catalog

	// Publishers
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	OutboxProcessor   *outbox.Processor

	// Notifications
	NotificationSink notifications.Sink
	Notifier         *notifications.Dispatcher

	// Services
	ReferralResolver    *services.ReferralSourceResolver
	RewardResolver      *services.RewardResolver
	CommissionScheduler *services.UpfrontCommissionScheduler
	CommissionCanceler  *services.CommissionCanceler

	// Command Handlers
	OnboardTenantHandler       *commands.OnboardTenantHandler
	SwitchPlanHandler          *commands.SwitchPlanHandler
	ConfirmPaymentHandler      *commands.ConfirmPaymentHandler
	MarkPastDueHandler         *commands.MarkPastDueHandler
	SuspendAccessHandler       *commands.SuspendAccessHandler
	CreateManualInvoiceHandler *commands.CreateManualInvoiceHandler
	CreatePartnerHandler       *commands.CreatePartnerHandler
	SetPartnerActiveHandler    *commands.SetPartnerActiveHandler
	SweepOverdueHandler        *commands.SweepOverdueHandler

	// Query Handlers
	GetSubscriptionHandler       *queries.GetSubscriptionHandler
	ListInvoicesHandler          *queries.ListInvoicesHandler
	ListPayoutsHandler           *queries.ListPayoutsHandler
	CountAvailableRewardsHandler *queries.CountAvailableRewardsHandler
	ListPlansHandler             *queries.ListPlansHandler
	ListPartnersHandler          *queries.ListPartnersHandler

	// Consumers
	RevenueMetricsConsumer *consumers.RevenueMetricsConsumer
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	clock clock.Clock
	sink  notifications.Sink
}

// WithClock replaces the system clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithNotificationSink bypasses Redis and RabbitMQ sink selection.
func WithNotificationSink(s notifications.Sink) Option {
	return func(o *options) { o.sink = s }
}

// NewContainer creates and wires all dependencies. PostgreSQL is used when
// DATABASE_DRIVER or DATABASE_URL selects it, otherwise a local SQLite file.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{clock: clock.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Clock:   o.clock,
		Catalog: domain.DefaultCatalog(),
		Health:  observability.NewHealthRegistry(),
	}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = observability.NewMetrics(c.Registry)

	conn, err := openConnection(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))

	store, err := newStorage(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.Repositories, c.OutboxRepo, c.UnitOfWork = store.billing, store.outbox, store.uow

	if err := c.connectRedis(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	// Create event publisher. Without RabbitMQ the outbox is relayed to the
	// in-process bus so the revenue projection still runs locally.
	c.RevenueMetricsConsumer = consumers.NewRevenueMetricsConsumer(c.Metrics, logger)
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, relaying events in process", "error", err)
		} else {
			c.EventPublisher = publisher
		}
	}
	if c.EventPublisher == nil {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
		c.InProcessEventBus.RegisterConsumer(c.RevenueMetricsConsumer)
		c.EventPublisher = c.InProcessEventBus
	}

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
	}, logger, outbox.WithClock(c.Clock), outbox.WithMetrics(c.Metrics))

	// Create notification sink
	c.NotificationSink = c.selectSink(o.sink)
	c.Notifier = notifications.NewDispatcher(c.NotificationSink, cfg.NotificationTimeout, c.Clock, c.Metrics, logger)
	logger.Info("notification sink configured", "sink", c.NotificationSink.Name())

	c.wireHandlers()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"rabbitmq", c.InProcessEventBus == nil,
		"redis", c.RedisClient != nil,
	)
	return c, nil
}

// wireHandlers builds the billing services and handlers over the container's
// repositories.
func (c *Container) wireHandlers() {
	repos := c.Repositories
	logger := c.Logger

	c.ReferralResolver = services.NewReferralSourceResolver(repos.Tenants, repos.Partners)
	c.RewardResolver = services.NewRewardResolver(repos.Tenants, c.Clock)
	c.CommissionScheduler = services.NewUpfrontCommissionScheduler(repos.Partners, repos.Payouts, c.Catalog, logger)
	c.CommissionCanceler = services.NewCommissionCanceler(repos.Invoices, repos.Payouts, c.Clock)

	// Create command handlers
	c.OnboardTenantHandler = commands.NewOnboardTenantHandler(
		repos.Tenants,
		repos.Owners,
		repos.Subscriptions,
		c.OutboxRepo,
		c.UnitOfWork,
		c.ReferralResolver,
		services.NewReferralCodeGenerator(repos.Tenants),
		services.NewCredentialIssuer(0),
		c.Catalog,
		c.Clock,
		c.Config.DefaultTrialDays,
		logger,
		c.Metrics,
	)
	c.SwitchPlanHandler = commands.NewSwitchPlanHandler(
		repos.Subscriptions,
		repos.Tenants,
		repos.Invoices,
		repos.Owners,
		c.OutboxRepo,
		c.UnitOfWork,
		c.Catalog,
		c.Clock,
		c.Notifier,
		logger,
		c.Metrics,
	)
	c.ConfirmPaymentHandler = commands.NewConfirmPaymentHandler(
		repos.Subscriptions,
		repos.Tenants,
		repos.Invoices,
		repos.Owners,
		c.OutboxRepo,
		c.UnitOfWork,
		c.RewardResolver,
		c.CommissionScheduler,
		c.Clock,
		c.Notifier,
		logger,
		c.Metrics,
	)
	c.MarkPastDueHandler = commands.NewMarkPastDueHandler(repos.Subscriptions, c.OutboxRepo, c.UnitOfWork, c.Clock, logger, c.Metrics)
	c.SuspendAccessHandler = commands.NewSuspendAccessHandler(
		repos.Subscriptions,
		repos.Owners,
		c.OutboxRepo,
		c.UnitOfWork,
		c.CommissionCanceler,
		c.Clock,
		c.Notifier,
		logger,
		c.Metrics,
	)
	c.CreateManualInvoiceHandler = commands.NewCreateManualInvoiceHandler(repos.Subscriptions, repos.Invoices, c.OutboxRepo, c.UnitOfWork, c.Clock, logger, c.Metrics)
	c.CreatePartnerHandler = commands.NewCreatePartnerHandler(repos.Partners, c.OutboxRepo, c.UnitOfWork, c.Clock, logger, c.Metrics)
	c.SetPartnerActiveHandler = commands.NewSetPartnerActiveHandler(repos.Partners, c.OutboxRepo, c.UnitOfWork, c.Clock, logger, c.Metrics)
	c.SweepOverdueHandler = commands.NewSweepOverdueHandler(repos.Subscriptions, c.OutboxRepo, c.UnitOfWork, c.Clock, logger, c.Metrics)

	// Create query handlers
	c.GetSubscriptionHandler = queries.NewGetSubscriptionHandler(repos.Subscriptions, c.Clock)
	c.ListInvoicesHandler = queries.NewListInvoicesHandler(repos.Subscriptions, repos.Invoices)
	c.ListPayoutsHandler = queries.NewListPayoutsHandler(repos.Partners, repos.Payouts)
	c.CountAvailableRewardsHandler = queries.NewCountAvailableRewardsHandler(c.RewardResolver)
	c.ListPlansHandler = queries.NewListPlansHandler(c.Catalog)
	c.ListPartnersHandler = queries.NewListPartnersHandler(repos.Partners)
}

// connectRedis opens the optional Redis client. Outside development an
// unreachable Redis is fatal.
func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, notifications will not use the feed", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, notifications will not use the feed", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

// selectSink prefers the Redis feed, then the RabbitMQ publisher. Both are
// wrapped in a circuit breaker.
func (c *Container) selectSink(override notifications.Sink) notifications.Sink {
	if override != nil {
		return override
	}
	switch {
	case c.RedisClient != nil:
		return notifications.NewBreakerSink(
			notifications.NewRedisSink(c.RedisClient, c.Config.NotificationFeedLimit),
			notifications.DefaultBreakerConfig(),
			c.Logger,
		)
	case c.InProcessEventBus == nil:
		return notifications.NewBreakerSink(
			notifications.NewPublisherSink(c.EventPublisher),
			notifications.DefaultBreakerConfig(),
			c.Logger,
		)
	default:
		return notifications.NoopSink{}
	}
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	var errs []error
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	c.Notifier.Wait()
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openConnection connects to the configured database and applies the
// embedded migrations.
func openConnection(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.ResolveDriver(cfg.DatabaseDriver, cfg.DatabaseURL),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(ctx, conn, cfg, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver())
	return conn, nil
}

// runMigrations applies the schema through database/sql. SQLite reuses the
// connection's handle; PostgreSQL opens a short-lived lib/pq handle because
// the pgx pool does not expose one.
func runMigrations(ctx context.Context, conn database.Connection, cfg *config.Config, logger *slog.Logger) error {
	switch conn.Driver() {
	case database.DriverSQLite:
		sqliteConn, ok := conn.(*sqlite.Connection)
		if !ok {
			return fmt.Errorf("expected SQLite connection, got %T", conn)
		}
		logger.Debug("running SQLite migrations")
		return migrations.RunSQLiteMigrations(ctx, sqliteConn.DB())

	case database.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Debug("running PostgreSQL migrations")
		return migrations.RunPostgresMigrations(ctx, db)

	default:
		return fmt.Errorf("unsupported driver: %s", conn.Driver())
	}
}
