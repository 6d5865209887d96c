package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"minimusiker_backend/internal/activity"
	audiorepo "minimusiker_backend/internal/audio/repository"
	audioservice "minimusiker_backend/internal/audio/service"
	"minimusiker_backend/internal/email"
	automationrepo "minimusiker_backend/internal/emailautomation/repository"
	automationservice "minimusiker_backend/internal/emailautomation/service"
	"minimusiker_backend/internal/events"
	rosterrepo "minimusiker_backend/internal/roster/repository"
	rosterservice "minimusiker_backend/internal/roster/service"
	"minimusiker_backend/internal/scheduler"
	eventsrepo "minimusiker_backend/internal/schoolevents/repository"
	eventsservice "minimusiker_backend/internal/schoolevents/service"
	"minimusiker_backend/platform/config"
	"minimusiker_backend/platform/db"
	"minimusiker_backend/platform/logger"
	"minimusiker_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	registry := metrics.New()

	// Worker-side wiring (no HTTP handlers required).
	resolver := eventsservice.New(eventsrepo.New(pool), eventsservice.Options{
		Logger:     log,
		AppBaseURL: cfg.GetAppBaseURL(),
		Location:   cfg.GetTimezone(),
	})
	automation := automationservice.New(automationrepo.New(pool), automationservice.Options{
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

	// Released stage changes found by the release sweep trigger on_release mails here.
	automation.Subscribe(eventBus)

	// Stage recomputes only read files and the roster; no object store needed.
	audio := audioservice.New(audiorepo.New(pool), audioservice.Options{
		Resolver:   resolver,
		Access:     resolver,
		Roster:     rosterservice.New(rosterrepo.New(pool), resolver, resolver, eventBus, log),
		StageCache: resolver,
		Bus:        eventBus,
		Metrics:    registry,
		Logger:     log,
	})

	activityRepo := activity.NewRepository(pool)
	recorder := activity.NewRecorder(activityRepo, 0, log)
	recorder.Subscribe(eventBus)
	recorderCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	recorder.Start(recorderCtx)
	defer func() {
		eventBus.Wait()
		stopRecorder()
		recorder.Wait()
	}()

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewAutomationDispatcher(automation, client, cfg.GetAutomationScanInterval(), cfg.GetTimezone(), log)
	go dispatcher.Run(ctx)

	releases := scheduler.NewReleaseDispatcher(audio, client, cfg.GetAutomationScanInterval(), cfg.GetTimezone(), log)
	go releases.Run(ctx)

	retentionInterval := getDurationEnv("ACTIVITY_LOG_CLEANUP_INTERVAL", 6*time.Hour)
	retention := time.Duration(getPositiveIntEnv("ACTIVITY_LOG_RETENTION_DAYS", 365)) * 24 * time.Hour
	go scheduler.NewLogRetention(activityRepo, log, retentionInterval, retention).Run(ctx)

	worker, err := scheduler.NewWorker(cfg, automation, audio, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
