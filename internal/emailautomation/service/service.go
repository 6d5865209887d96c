// Package service implements templated email automation: matching templates
// to events, resolving recipients and sending with at-most-once tracking.
package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"minimusiker_backend/internal/email"
	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/logger"
	"minimusiker_backend/platform/metrics"
)

const (
	defaultRateLimitBackoff = 2 * time.Second
	defaultMaxRetries       = 3
)

// Service provides business logic for email automation
type Service struct {
	repo       repository.AutomationRepository
	resolver   eventref.Resolver
	sender     email.Sender
	bus        events.Bus
	metrics    *metrics.Registry
	log        *logger.Logger
	limiter    *rate.Limiter
	backoff    time.Duration
	maxRetries int
	appBaseURL string
	loc        *time.Location
	now        func() time.Time
}

// Options carries the collaborators of the service.
type Options struct {
	Resolver         eventref.Resolver
	Sender           email.Sender
	Bus              events.Bus
	Metrics          *metrics.Registry
	Logger           *logger.Logger
	AppBaseURL       string
	Location         *time.Location
	MinSendInterval  time.Duration
	RateLimitBackoff time.Duration
	MaxRetries       int
}

// New creates a new email automation service
func New(repo repository.AutomationRepository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	sender := opts.Sender
	if sender == nil {
		sender = email.NoopSender{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	backoff := opts.RateLimitBackoff
	if backoff <= 0 {
		backoff = defaultRateLimitBackoff
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	limit := rate.Inf
	if opts.MinSendInterval > 0 {
		limit = rate.Every(opts.MinSendInterval)
	}

	return &Service{
		repo:       repo,
		resolver:   opts.Resolver,
		sender:     sender,
		bus:        opts.Bus,
		metrics:    opts.Metrics,
		log:        log,
		limiter:    rate.NewLimiter(limit, 1),
		backoff:    backoff,
		maxRetries: retries,
		appBaseURL: opts.AppBaseURL,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
