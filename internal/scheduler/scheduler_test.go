package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/logger"
)

type stubLister struct {
	pairs []transport.DuePair
	err   error
	at    time.Time
}

func (s *stubLister) ListDuePairs(_ context.Context, now time.Time) ([]transport.DuePair, error) {
	s.at = now
	return s.pairs, s.err
}

// memEnqueuer mimics per-day task ids.
type memEnqueuer struct {
	seen map[string]bool
	fail bool
}

func (m *memEnqueuer) EnqueueAutomationRun(_ context.Context, p AutomationRunPayload) (bool, error) {
	if m.fail {
		return false, errors.New("redis down")
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[p.taskID()] {
		return false, nil
	}
	m.seen[p.taskID()] = true
	return true, nil
}

type stubRunner struct {
	calls []uuid.UUID
	err   error
}

func (s *stubRunner) RunDuePair(_ context.Context, templateID, eventID uuid.UUID) (transport.BulkResponse, error) {
	s.calls = append(s.calls, templateID, eventID)
	return transport.BulkResponse{TemplateID: templateID, Sent: 1}, s.err
}

func newDispatcher(lister DueLister, enq Enqueuer, now time.Time) *AutomationDispatcher {
	berlin, _ := time.LoadLocation("Europe/Berlin")
	d := NewAutomationDispatcher(lister, enq, time.Minute, berlin, logger.Discard())
	d.now = func() time.Time { return now }
	return d
}

func TestDispatcherQueuesEachPairOncePerDay(t *testing.T) {
	lister := &stubLister{pairs: []transport.DuePair{
		{TemplateID: uuid.New(), EventID: uuid.New()},
		{TemplateID: uuid.New(), EventID: uuid.New()},
	}}
	enq := &memEnqueuer{}
	now := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)

	d := newDispatcher(lister, enq, now)
	assert.Equal(t, 2, d.scan(context.Background()))
	assert.Equal(t, 0, d.scan(context.Background()))

	d.now = func() time.Time { return now.Add(24 * time.Hour) }
	assert.Equal(t, 2, d.scan(context.Background()))
}

func TestDispatcherUsesLocalDay(t *testing.T) {
	lister := &stubLister{pairs: []transport.DuePair{{TemplateID: uuid.New(), EventID: uuid.New()}}}
	enq := &memEnqueuer{}
	// 23:30 UTC is already the next day in Berlin.
	d := newDispatcher(lister, enq, time.Date(2026, 5, 12, 23, 30, 0, 0, time.UTC))
	require.Equal(t, 1, d.scan(context.Background()))

	for id := range enq.seen {
		assert.Contains(t, id, ":2026-05-13")
	}
	assert.Equal(t, "Europe/Berlin", lister.at.Location().String())
}

func TestDispatcherSurvivesFailures(t *testing.T) {
	d := newDispatcher(&stubLister{err: errors.New("db down")}, &memEnqueuer{}, time.Now())
	assert.Equal(t, 0, d.scan(context.Background()))

	d = newDispatcher(&stubLister{pairs: []transport.DuePair{{TemplateID: uuid.New(), EventID: uuid.New()}}}, &memEnqueuer{fail: true}, time.Now())
	assert.Equal(t, 0, d.scan(context.Background()))
}

func TestWorkerRunsDuePair(t *testing.T) {
	runner := &stubRunner{}
	w := &Worker{runner: runner, log: logger.Discard()}
	tpl, ev := uuid.New(), uuid.New()

	task, err := NewAutomationRunTask(AutomationRunPayload{TemplateID: tpl.String(), EventID: ev.String(), Day: "2026-05-12"})
	require.NoError(t, err)
	require.NoError(t, w.handleAutomationRun(context.Background(), task))
	assert.Equal(t, []uuid.UUID{tpl, ev}, runner.calls)
}

func TestWorkerSkipsRetryOnBadPayload(t *testing.T) {
	w := &Worker{runner: &stubRunner{}, log: logger.Discard()}

	err := w.handleAutomationRun(context.Background(), asynq.NewTask(TaskAutomationRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, _ := NewAutomationRunTask(AutomationRunPayload{TemplateID: "nope", EventID: uuid.NewString()})
	assert.ErrorIs(t, w.handleAutomationRun(context.Background(), task), asynq.SkipRetry)
}

func TestWorkerPropagatesRunErrorForRetry(t *testing.T) {
	w := &Worker{runner: &stubRunner{err: errors.New("resolver down")}, log: logger.Discard()}
	task, _ := NewAutomationRunTask(AutomationRunPayload{TemplateID: uuid.NewString(), EventID: uuid.NewString()})

	err := w.handleAutomationRun(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

type stubReleaseLister struct {
	due []uuid.UUID
	err error
}

func (s *stubReleaseLister) ListReleaseDue(context.Context) ([]uuid.UUID, error) {
	return s.due, s.err
}

func (m *memEnqueuer) EnqueueStageRecompute(_ context.Context, p StageRecomputePayload) (bool, error) {
	if m.fail {
		return false, errors.New("redis down")
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[p.taskID()] {
		return false, nil
	}
	m.seen[p.taskID()] = true
	return true, nil
}

type stubRecomputer struct {
	calls []uuid.UUID
	err   error
}

func (s *stubRecomputer) RecomputeEvent(_ context.Context, eventID uuid.UUID) (pipeline.Result, error) {
	s.calls = append(s.calls, eventID)
	return pipeline.Result{Stage: pipeline.StageReleased}, s.err
}

func TestReleaseDispatcherQueuesEachEventOncePerDay(t *testing.T) {
	ev := uuid.New()
	enq := &memEnqueuer{}
	now := time.Date(2026, 6, 19, 6, 0, 0, 0, time.UTC)
	d := NewReleaseDispatcher(&stubReleaseLister{due: []uuid.UUID{ev}}, enq, time.Minute, time.UTC, logger.Discard())
	d.now = func() time.Time { return now }

	assert.Equal(t, 1, d.scan(context.Background()))
	assert.Equal(t, 0, d.scan(context.Background()))
	assert.True(t, enq.seen["stage:"+ev.String()+":2026-06-19"])

	d.now = func() time.Time { return now.Add(24 * time.Hour) }
	assert.Equal(t, 1, d.scan(context.Background()))
}

func TestReleaseDispatcherSurvivesFailures(t *testing.T) {
	d := NewReleaseDispatcher(&stubReleaseLister{err: errors.New("db down")}, &memEnqueuer{}, time.Minute, nil, logger.Discard())
	assert.Equal(t, 0, d.scan(context.Background()))

	d = NewReleaseDispatcher(&stubReleaseLister{due: []uuid.UUID{uuid.New()}}, &memEnqueuer{fail: true}, time.Minute, nil, logger.Discard())
	assert.Equal(t, 0, d.scan(context.Background()))
}

func TestWorkerRecomputesStage(t *testing.T) {
	recomputer := &stubRecomputer{}
	w := &Worker{recomputer: recomputer, log: logger.Discard()}
	ev := uuid.New()

	task, err := NewStageRecomputeTask(StageRecomputePayload{EventID: ev.String(), Day: "2026-06-19"})
	require.NoError(t, err)
	require.NoError(t, w.handleStageRecompute(context.Background(), task))
	assert.Equal(t, []uuid.UUID{ev}, recomputer.calls)
}

func TestWorkerStageRecomputeErrors(t *testing.T) {
	w := &Worker{recomputer: &stubRecomputer{}, log: logger.Discard()}
	err := w.handleStageRecompute(context.Background(), asynq.NewTask(TaskStageRecompute, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, _ := NewStageRecomputeTask(StageRecomputePayload{EventID: uuid.NewString()})

	w = &Worker{recomputer: &stubRecomputer{err: apperr.NotFound("event not found")}, log: logger.Discard()}
	assert.NoError(t, w.handleStageRecompute(context.Background(), task))

	w = &Worker{recomputer: &stubRecomputer{err: errors.New("db down")}, log: logger.Discard()}
	err = w.handleStageRecompute(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
