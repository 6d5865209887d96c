package scheduler

import (
	"context"
	"time"

	"minimusiker_backend/platform/logger"
)

const (
	defaultRetentionInterval = 6 * time.Hour
	defaultActivityRetention = 365 * 24 * time.Hour
)

// Pruner deletes rows created before a cutoff.
type Pruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// LogRetention periodically removes activity entries older than the retention.
type LogRetention struct {
	pruner    Pruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
}

func NewLogRetention(pruner Pruner, log *logger.Logger, interval, retention time.Duration) *LogRetention {
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	if retention <= 0 {
		retention = defaultActivityRetention
	}

	return &LogRetention{
		pruner:    pruner,
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

func (c *LogRetention) Run(ctx context.Context) {
	if c == nil || c.pruner == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *LogRetention) cleanup(ctx context.Context) {
	deleted, err := c.pruner.DeleteBefore(ctx, time.Now().Add(-c.retention))
	if err != nil {
		c.log.Warn("activity log cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("activity log cleanup deleted entries", "deleted", deleted)
	}
}
