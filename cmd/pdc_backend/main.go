package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/rentably/pdc_engine/internal/adapters/external"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/rentably/pdc_engine/internal/core/services"
	"github.com/rentably/pdc_engine/internal/handlers"
	"github.com/rentably/pdc_engine/internal/middleware"
	"github.com/rentably/pdc_engine/internal/repositories/cache"
	"github.com/rentably/pdc_engine/internal/repositories/database/pgsql"
	"github.com/rentably/pdc_engine/pkg/config"
	"github.com/rentably/pdc_engine/pkg/database"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title PDC Engine API
// @version 1.0
// @description Post-dated cheque lifecycle engine for rental property management.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	// Defer closing the connection pool
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Cache and run-lock backends
	pdcCache, runLock := buildCacheBackends(logger, cfg)

	// External service clients
	ledgerClient := external.NewInvoiceLedgerClient(cfg.LedgerBaseURL, cfg.ExternalCallTimeout)
	notificationClient := external.NewNotificationClient(cfg.NotificationBaseURL, cfg.ExternalCallTimeout)

	// Repositories and services
	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewServiceContainer(services.ContainerDeps{
		PDCRepo:      repos.PDCRepo,
		ReminderRepo: repos.ReminderRepo,
		RunLock:      runLock,
		Cache:        pdcCache,
		Ledger:       ledgerClient,
		Gateway:      notificationClient,
		Logger:       logger,
		LateFeePolicy: domain.LateFeePolicy{
			Type:  domain.LateFeePolicyType(cfg.LateFeePolicyType),
			Value: cfg.LateFeePolicyValue,
		},
		Scheduler: services.SchedulerConfig{
			HorizonDays: cfg.ReminderHorizonDays,
			DueSoonDays: cfg.DueSoonThresholdDays,
			LockTTL:     cfg.SchedulerLockTTL,
		},
		NotifyAttempts: cfg.NotifyRetryAttempts,
		NotifyBackoff:  cfg.NotifyRetryBackoff,
	})
	defer container.Notifier.Drain()

	// Rate limiter for mutating routes
	mutationLimiter := limiter.New(limitermem.NewStore(), mustParseRate(logger, "60-M"))

	handlers.RegisterRoutes(r, cfg, container, mutationLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending file migrations before the server starts.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	// Apply all available "up" migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// buildCacheBackends selects the cache and run-lock implementations per config.
func buildCacheBackends(logger *slog.Logger, cfg *config.Config) (portsrepo.PDCCache, portsrepo.RunLockManager) {
	if cfg.CacheBackend == "redis" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("Invalid REDIS_URL, falling back to memory backend", slog.String("error", err.Error()))
			return cache.NewInMemoryPDCCache(cfg.CacheTTL), cache.NewInMemoryRunLock()
		}
		client := redis.NewClient(opts)
		logger.Info("Using redis cache and run-lock backend")
		return cache.NewRedisPDCCache(client, cfg.CacheTTL), cache.NewRedisRunLock(client)
	}
	logger.Info("Using in-memory cache and run-lock backend")
	return cache.NewInMemoryPDCCache(cfg.CacheTTL), cache.NewInMemoryRunLock()
}

func mustParseRate(logger *slog.Logger, formatted string) limiter.Rate {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate", formatted), slog.String("error", err.Error()))
		os.Exit(1)
	}
	return rate
}
