package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minimusiker_backend/internal/activity"
	"minimusiker_backend/internal/adapters/storage"
	"minimusiker_backend/internal/audio"
	audioservice "minimusiker_backend/internal/audio/service"
	"minimusiker_backend/internal/email"
	"minimusiker_backend/internal/emailautomation"
	automationservice "minimusiker_backend/internal/emailautomation/service"
	"minimusiker_backend/internal/events"
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/internal/http/router"
	"minimusiker_backend/internal/roster"
	"minimusiker_backend/internal/schoolevents"
	eventsservice "minimusiker_backend/internal/schoolevents/service"
	"minimusiker_backend/internal/tasks"
	"minimusiker_backend/platform/cache"
	"minimusiker_backend/platform/config"
	"minimusiker_backend/platform/db"
	"minimusiker_backend/platform/logger"
	"minimusiker_backend/platform/metrics"
	"minimusiker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const activityQueueSize = 512

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	lookupCache, closeCache := initCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	registry := metrics.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	storageSvc, err := storage.NewR2Service(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	log.Info("storage service initialized", "bucket", cfg.GetStorageBucket())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	eventsModule := schoolevents.NewModule(pool, val, eventsservice.Options{
		Cache:      lookupCache,
		CacheTTL:   cfg.GetResolverCacheTTL(),
		Bus:        eventBus,
		Logger:     log,
		AppBaseURL: cfg.GetAppBaseURL(),
		Location:   cfg.GetTimezone(),
	}, cfg.GetBookingWebhookSecret())
	resolver := eventsModule.Service

	rosterModule := roster.NewModule(pool, val, resolver, eventsModule.Service, eventBus, log)

	audioModule := audio.NewModule(pool, val, audioservice.Options{
		Resolver:   resolver,
		Access:     eventsModule.Service,
		Roster:     rosterModule.Service,
		StageCache: eventsModule.Service,
		Store:      storageSvc,
		Bus:        eventBus,
		Metrics:    registry,
		Logger:     log,
	})

	automationModule := emailautomation.NewModule(pool, val, automationservice.Options{
		Resolver:         resolver,
		Sender:           sender,
		Bus:              eventBus,
		Metrics:          registry,
		Logger:           log,
		AppBaseURL:       cfg.GetAppBaseURL(),
		Location:         cfg.GetTimezone(),
		MinSendInterval:  cfg.GetEmailMinSendInterval(),
		RateLimitBackoff: cfg.GetEmailRateLimitBackoff(),
	})
	seeded, err := automationModule.Service.SeedDefaults(ctx)
	if err != nil {
		log.Warn("failed to seed default email templates", "error", err)
	} else if seeded > 0 {
		log.Info("default email templates seeded", "count", seeded)
	}

	tasksModule := tasks.NewModule(pool, val, resolver, eventBus, log)

	activityModule := activity.NewModule(pool, resolver, eventBus, activityQueueSize, log)
	activityCtx, stopActivity := context.WithCancel(context.WithoutCancel(ctx))
	activityModule.Start(activityCtx)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		Metrics:  registry,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			eventsModule,
			rosterModule,
			audioModule,
			automationModule,
			tasksModule,
			activityModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			stopActivity()
			activityModule.Wait()
			panic("server error: " + err.Error())
		}
	}

	// Let in-flight bus handlers enqueue their activity before the recorder drains.
	eventBus.Wait()
	stopActivity()
	activityModule.Wait()
}

func initCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (cache.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; using in-process resolver cache")
		return cache.NewMemoryCache(), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.GetRedisURL())
	if err != nil {
		log.Warn("redis unavailable; using in-process resolver cache", "error", err)
		return cache.NewMemoryCache(), nil
	}

	return cache.NewRedisCache(client, "minimusiker:"), func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
