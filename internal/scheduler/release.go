package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/platform/logger"
)

// ReleaseLister finds events whose cached stage lags behind a passed
// release date.
type ReleaseLister interface {
	ListReleaseDue(ctx context.Context) ([]uuid.UUID, error)
}

// ReleaseDispatcher periodically queues a stage recompute for every event
// whose release date was reached, once per event and day.
type ReleaseDispatcher struct {
	lister   ReleaseLister
	enqueuer ReleaseEnqueuer
	log      *logger.Logger
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewReleaseDispatcher(lister ReleaseLister, enqueuer ReleaseEnqueuer, interval time.Duration, loc *time.Location, log *logger.Logger) *ReleaseDispatcher {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReleaseDispatcher{
		lister:   lister,
		enqueuer: enqueuer,
		log:      log,
		interval: interval,
		loc:      loc,
		now:      time.Now,
	}
}

func (d *ReleaseDispatcher) Run(ctx context.Context) {
	if d == nil || d.lister == nil || d.enqueuer == nil {
		return
	}

	d.scan(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scan(ctx)
		}
	}
}

func (d *ReleaseDispatcher) scan(ctx context.Context) int {
	due, err := d.lister.ListReleaseDue(ctx)
	if err != nil {
		d.log.Warn("release scan failed", "error", err)
		return 0
	}

	day := d.now().In(d.loc).Format("2006-01-02")
	queued := 0
	for _, id := range due {
		ok, err := d.enqueuer.EnqueueStageRecompute(ctx, StageRecomputePayload{EventID: id.String(), Day: day})
		if err != nil {
			d.log.Warn("stage recompute enqueue failed", "eventId", id, "error", err)
			continue
		}
		if ok {
			queued++
		}
	}

	if queued > 0 {
		d.log.Info("stage recomputes queued", "queued", queued, "due", len(due))
	}
	return queued
}
