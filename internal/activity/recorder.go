package activity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/platform/logger"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
	drainTimeout     = 10 * time.Second
)

// Recorder accepts activity entries without blocking the caller and writes
// them from a single worker. A full queue drops the entry; drops and write
// failures are logged.
type Recorder struct {
	writer  Writer
	log     *logger.Logger
	queue   chan Entry
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder with a bounded queue.
func NewRecorder(writer Writer, size int, log *logger.Logger) *Recorder {
	if size <= 0 {
		size = defaultQueueSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{writer: writer, log: log, queue: make(chan Entry, size)}
}

// Record enqueues an entry and returns immediately.
func (r *Recorder) Record(entry Entry) bool {
	select {
	case r.queue <- entry:
		return true
	default:
		total := r.dropped.Add(1)
		r.log.Warn("activity queue full, entry dropped", "action", entry.Action, "droppedTotal", total)
		return false
	}
}

// Dropped returns the number of entries lost to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Start runs the worker until ctx is done; queued entries are drained
// before Wait returns.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

// Wait blocks until the worker stopped. Call it during shutdown after the
// context passed to Start was cancelled.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) run(ctx context.Context) {
	for {
		select {
		case entry := <-r.queue:
			r.write(context.WithoutCancel(ctx), entry)
		case <-ctx.Done():
			r.drain(context.WithoutCancel(ctx))
			return
		}
	}
}

func (r *Recorder) drain(ctx context.Context) {
	deadline := time.Now().Add(drainTimeout)
	for {
		select {
		case entry := <-r.queue:
			if time.Now().After(deadline) {
				r.log.Warn("activity drain timed out", "remaining", len(r.queue)+1)
				return
			}
			r.write(ctx, entry)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, entry Entry) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := r.writer.Insert(ctx, entry); err != nil {
		r.log.Error("failed to write activity", "action", entry.Action, "error", err)
	}
}

// Subscribe records the domain events that make up an event's history.
func (r *Recorder) Subscribe(bus events.Bus) {
	for _, name := range []string{
		events.BookingReceived{}.EventName(),
		events.DealUpdated{}.EventName(),
		events.ClassesImported{}.EventName(),
		events.RosterChanged{}.EventName(),
		events.AudioUploadConfirmed{}.EventName(),
		events.EventStageChanged{}.EventName(),
		events.EmailSent{}.EventName(),
		events.TaskCompleted{}.EventName(),
	} {
		bus.Subscribe(name, events.HandlerFunc(r.handle))
	}
}

func (r *Recorder) handle(_ context.Context, event events.Event) error {
	if entry, ok := entryFor(event); ok {
		r.Record(entry)
	}
	return nil
}

func entryFor(event events.Event) (Entry, bool) {
	e := Entry{Action: event.EventName()}
	switch ev := event.(type) {
	case events.BookingReceived:
		e.EventID = ref(ev.EventRecordID)
		e.Actor = ev.Source
		e.Details = map[string]any{"eventId": ev.EventID, "schoolName": ev.SchoolName, "eventDate": ev.EventDate}
	case events.DealUpdated:
		e.EventID = ref(ev.EventRecordID)
		e.Actor = ev.ActorID
		e.Details = map[string]any{"dealType": ev.DealType}
	case events.ClassesImported:
		e.EventID = ref(ev.EventRecordID)
		e.Actor = ev.ActorID
		e.Details = map[string]any{"created": ev.Created, "failed": ev.Failed}
	case events.RosterChanged:
		e.EventID = ref(ev.EventRecordID)
		e.Actor = ev.ActorID
		e.Details = map[string]any{"change": ev.Change}
	case events.AudioUploadConfirmed:
		e.EventID = ref(ev.EventRecordID)
		e.Actor = ev.ActorID
		e.Details = map[string]any{"audioFileId": ev.AudioFileID.String(), "fileType": ev.FileType, "target": ev.Target}
	case events.EventStageChanged:
		e.EventID = ref(ev.EventRecordID)
		e.Details = map[string]any{"from": ev.From, "to": ev.To}
	case events.EmailSent:
		e.EventID = ref(ev.EventRecordID)
		e.Details = map[string]any{"templateId": ev.TemplateID.String(), "recipient": ev.Recipient}
	case events.TaskCompleted:
		e.EventID = ref(ev.EventRecordID)
		e.Actor = ev.ActorID
		e.Details = map[string]any{"taskId": ev.TaskID.String(), "taskType": ev.TaskType}
		if ev.ShippingTaskID != nil {
			e.Details["shippingTaskId"] = ev.ShippingTaskID.String()
		}
	default:
		return Entry{}, false
	}
	return e, true
}

func ref(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
