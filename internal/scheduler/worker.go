package scheduler

import (
	"context"
	"fmt"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/config"
	"minimusiker_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DueRunner sends a due template to an event's recipients.
type DueRunner interface {
	RunDuePair(ctx context.Context, templateID, eventID uuid.UUID) (transport.BulkResponse, error)
}

// StageRecomputer refreshes the cached pipeline stage of one event.
type StageRecomputer interface {
	RecomputeEvent(ctx context.Context, eventID uuid.UUID) (pipeline.Result, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	runner     DueRunner
	recomputer StageRecomputer
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner DueRunner, recomputer StageRecomputer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:     server,
		mux:        asynq.NewServeMux(),
		runner:     runner,
		recomputer: recomputer,
		log:        log,
	}
	w.mux.HandleFunc(TaskAutomationRun, w.handleAutomationRun)
	w.mux.HandleFunc(TaskStageRecompute, w.handleStageRecompute)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleAutomationRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAutomationRunPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	templateID, err := uuid.Parse(payload.TemplateID)
	if err != nil {
		return fmt.Errorf("invalid template id: %w", asynq.SkipRetry)
	}
	eventID, err := uuid.Parse(payload.EventID)
	if err != nil {
		return fmt.Errorf("invalid event id: %w", asynq.SkipRetry)
	}

	res, err := w.runner.RunDuePair(ctx, templateID, eventID)
	if err != nil {
		return err
	}

	w.log.Info("automation run finished",
		"templateId", payload.TemplateID,
		"eventId", payload.EventID,
		"sent", res.Sent,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return nil
}

func (w *Worker) handleStageRecompute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStageRecomputePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	eventID, err := uuid.Parse(payload.EventID)
	if err != nil {
		return fmt.Errorf("invalid event id: %w", asynq.SkipRetry)
	}

	res, err := w.recomputer.RecomputeEvent(ctx, eventID)
	if apperr.Is(err, apperr.KindNotFound) {
		w.log.Warn("stage recompute skipped, event gone", "eventId", payload.EventID)
		return nil
	}
	if err != nil {
		return err
	}

	w.log.Info("stage recomputed", "eventId", payload.EventID, "stage", res.Stage)
	return nil
}
