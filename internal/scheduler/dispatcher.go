package scheduler

import (
	"context"
	"time"

	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/platform/logger"
)

const defaultScanInterval = 15 * time.Minute

// DueLister finds the (template, event) pairs due at a point in time.
type DueLister interface {
	ListDuePairs(ctx context.Context, now time.Time) ([]transport.DuePair, error)
}

// AutomationDispatcher periodically scans for due automation pairs and
// queues one run per pair and day.
type AutomationDispatcher struct {
	lister   DueLister
	enqueuer Enqueuer
	log      *logger.Logger
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewAutomationDispatcher(lister DueLister, enqueuer Enqueuer, interval time.Duration, loc *time.Location, log *logger.Logger) *AutomationDispatcher {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AutomationDispatcher{
		lister:   lister,
		enqueuer: enqueuer,
		log:      log,
		interval: interval,
		loc:      loc,
		now:      time.Now,
	}
}

func (d *AutomationDispatcher) Run(ctx context.Context) {
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

// scan returns the number of newly queued pairs.
func (d *AutomationDispatcher) scan(ctx context.Context) int {
	now := d.now().In(d.loc)
	pairs, err := d.lister.ListDuePairs(ctx, now)
	if err != nil {
		d.log.Warn("automation scan failed", "error", err)
		return 0
	}

	day := now.Format("2006-01-02")
	queued := 0
	for _, pair := range pairs {
		ok, err := d.enqueuer.EnqueueAutomationRun(ctx, AutomationRunPayload{
			TemplateID: pair.TemplateID.String(),
			EventID:    pair.EventID.String(),
			Day:        day,
		})
		if err != nil {
			d.log.Warn("automation enqueue failed", "templateId", pair.TemplateID, "eventId", pair.EventID, "error", err)
			continue
		}
		if ok {
			queued++
		}
	}

	if queued > 0 {
		d.log.Info("automation runs queued", "queued", queued, "due", len(pairs))
	}
	return queued
}
