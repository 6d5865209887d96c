package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"minimusiker_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	taskMaxRetry  = 3
	taskRetention = 36 * time.Hour
)

type Client struct {
	client *asynq.Client
	queue  string
}

// Enqueuer queues automation runs.
type Enqueuer interface {
	EnqueueAutomationRun(ctx context.Context, payload AutomationRunPayload) (bool, error)
}

// ReleaseEnqueuer queues stage recomputes for events past their release date.
type ReleaseEnqueuer interface {
	EnqueueStageRecompute(ctx context.Context, payload StageRecomputePayload) (bool, error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAutomationRun queues the pair once per day. It reports false when
// the pair was already queued for that day.
func (c *Client) EnqueueAutomationRun(ctx context.Context, payload AutomationRunPayload) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	task, err := NewAutomationRunTask(payload)
	if err != nil {
		return false, err
	}
	return c.enqueueOnce(ctx, task, payload.taskID())
}

// EnqueueStageRecompute queues one recompute per event and day.
func (c *Client) EnqueueStageRecompute(ctx context.Context, payload StageRecomputePayload) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	task, err := NewStageRecomputeTask(payload)
	if err != nil {
		return false, err
	}
	return c.enqueueOnce(ctx, task, payload.taskID())
}

func (c *Client) enqueueOnce(ctx context.Context, task *asynq.Task, taskID string) (bool, error) {
	_, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(taskID),
		asynq.MaxRetry(taskMaxRetry),
		asynq.Retention(taskRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
