package setup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/rueidis"
	"github.com/robalyx/my2cents/internal/comment"
	"github.com/robalyx/my2cents/internal/consumer/push"
	"github.com/robalyx/my2cents/internal/database"
	"github.com/robalyx/my2cents/internal/events"
	"github.com/robalyx/my2cents/internal/markdown"
	"github.com/robalyx/my2cents/internal/redis"
	"github.com/robalyx/my2cents/internal/setup/config"
	"github.com/robalyx/my2cents/internal/setup/telemetry"
	"go.uber.org/zap"
)

// ErrInvalidConfig is returned when the configuration has fatal issues.
var ErrInvalidConfig = errors.New("invalid configuration")

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config        // Application configuration
	Logger       *zap.Logger           // Main application logger
	DBLogger     *zap.Logger           // Database-specific logger
	DB           database.Client       // Database connection pool
	RedisManager *redis.Manager        // Redis connection manager
	Cache        rueidis.Client        // Settings cache, nil when Redis is unavailable
	Limiter      rueidis.Client        // Posting rate limit store, nil when Redis is unavailable
	LogManager   *telemetry.Manager    // Log management system
	Bus          *events.Bus           // Comment lifecycle event bus
	Background   *events.Background    // Background deliveries started by consumers
	Push         *push.Consumer        // Moderation queue and reminder scheduler
	WebPush      *push.WebPushNotifier // Browser push notifier, nil when not configured
	Comments     *comment.Service      // Comment use cases
	Renderer     *markdown.Renderer    // Markdown renderer for comment bodies
	consumers    []events.Consumer     // Every consumer registered with the bus
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(
	ctx context.Context, serviceType telemetry.ServiceType, logDir, configPath string,
) (*App, error) {
	// Load app configuration
	cfg, usedPath, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration",
		zap.String("path", usedPath),
		zap.String("logs", logManager.GetCurrentSessionDir()))

	if err := reportIssues(config.Validate(cfg), logger); err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for the cache and the rate limiter
	redisManager := redis.NewManager(&cfg.Redis, logger)
	cache := optionalRedisClient(redisManager, redis.CacheDBIndex, logger)
	limiter := optionalRedisClient(redisManager, redis.RatelimitDBIndex, logger)

	// Initialize database, applying pending migrations
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, cache, dbLogger.Named("database"), true)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	bus := events.NewBus(logger)
	background := events.NewBackground(logger)

	app := &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		Cache:        cache,
		Limiter:      limiter,
		LogManager:   logManager,
		Bus:          bus,
		Background:   background,
		Comments:     comment.NewService(db.Model().Comment(), bus, logger),
		Renderer:     markdown.New(),
	}

	app.registerConsumers()

	return app, nil
}

// Start launches long running background components.
func (s *App) Start(ctx context.Context) {
	s.Push.Start(ctx)
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup() {
	// Stop the reminder scheduler and wait for deliveries in flight
	s.Push.Stop()
	s.Background.Wait()
	s.Bus.Reset()

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections after the database as settings may still be cached
	s.RedisManager.Close()

	// Sync buffered logs last
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}
}

// reportIssues logs every configuration issue and fails on fatal ones.
func reportIssues(issues config.Issues, logger *zap.Logger) error {
	fatal := 0

	for _, issue := range issues {
		fields := []zap.Field{zap.String("key", issue.Key), zap.String("message", issue.Message)}

		switch issue.Severity {
		case config.SeverityWarning:
			logger.Warn("Configuration warning", fields...)
		case config.SeverityError:
			logger.Error("Configuration error", fields...)
		case config.SeverityFatal:
			logger.Error("Fatal configuration error", fields...)
			fatal++
		}
	}

	if fatal > 0 {
		return fmt.Errorf("%w: %d fatal issue(s)", ErrInvalidConfig, fatal)
	}

	return nil
}

// optionalRedisClient returns nil when Redis cannot be reached so the
// service keeps running without caching and rate limiting.
func optionalRedisClient(manager *redis.Manager, dbIndex int, logger *zap.Logger) rueidis.Client {
	client, err := manager.GetClient(dbIndex)
	if err != nil {
		logger.Warn("Redis is unavailable, continuing without it",
			zap.Int("db", dbIndex),
			zap.Error(err))

		return nil
	}

	return client
}
