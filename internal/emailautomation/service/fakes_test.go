package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/email"
	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

type registration struct {
	email string
	name  string
	child string
	buyer bool
}

type fakeRepo struct {
	mu            sync.Mutex
	templates     map[uuid.UUID]repository.Template
	logs          []repository.LogEntry
	teachers      map[uuid.UUID][]repository.Recipient
	registrations map[uuid.UUID][]registration
	eventDates    map[uuid.UUID]time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		templates:     make(map[uuid.UUID]repository.Template),
		teachers:      make(map[uuid.UUID][]repository.Recipient),
		registrations: make(map[uuid.UUID][]registration),
		eventDates:    make(map[uuid.UUID]time.Time),
	}
}

var _ repository.AutomationRepository = (*fakeRepo)(nil)

func (f *fakeRepo) addTemplate(t repository.Template) repository.Template {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.TriggerType == "" {
		t.TriggerType = TriggerScheduled
	}
	f.templates[t.ID] = t
	return t
}

func (f *fakeRepo) GetTemplate(_ context.Context, id uuid.UUID) (repository.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok {
		return repository.Template{}, apperr.NotFound("email template not found")
	}
	return t, nil
}

func (f *fakeRepo) ListTemplates(_ context.Context, p repository.ListTemplatesParams) ([]repository.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Template, 0)
	for _, t := range f.templates {
		if p.ActiveOnly && !t.Active {
			continue
		}
		if p.TriggerType != "" && t.TriggerType != p.TriggerType {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) CreateTemplate(_ context.Context, p repository.TemplateParams) (repository.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.templates {
		if t.Name == p.Name {
			return repository.Template{}, apperr.Conflict("an email template with this name already exists")
		}
	}
	t := fromParams(uuid.New(), p)
	f.templates[t.ID] = t
	return t, nil
}

func (f *fakeRepo) UpdateTemplate(_ context.Context, id uuid.UUID, p repository.TemplateParams) (repository.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[id]; !ok {
		return repository.Template{}, apperr.NotFound("email template not found")
	}
	t := fromParams(id, p)
	f.templates[id] = t
	return t, nil
}

func (f *fakeRepo) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.templates, id)
	return nil
}

func (f *fakeRepo) SeedTemplate(_ context.Context, p repository.TemplateParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.templates {
		if t.Name == p.Name {
			return false, nil
		}
	}
	t := fromParams(uuid.New(), p)
	f.templates[t.ID] = t
	return true, nil
}

func fromParams(id uuid.UUID, p repository.TemplateParams) repository.Template {
	return repository.Template{
		ID:                     id,
		Name:                   p.Name,
		Audience:               p.Audience,
		TriggerType:            p.TriggerType,
		TriggerDays:            p.TriggerDays,
		TriggerHour:            p.TriggerHour,
		FilterIsMinimusikertag: p.FilterIsMinimusikertag,
		FilterIsPlus:           p.FilterIsPlus,
		FilterIsSchulsong:      p.FilterIsSchulsong,
		FilterIsKita:           p.FilterIsKita,
		Active:                 p.Active,
		Subject:                p.Subject,
		BodyHTML:               p.BodyHTML,
	}
}

func (f *fakeRepo) HasSent(_ context.Context, templateID, eventID uuid.UUID, recipient string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sentIndex(templateID, eventID, recipient) >= 0, nil
}

func (f *fakeRepo) sentIndex(templateID, eventID uuid.UUID, recipient string) int {
	for i, l := range f.logs {
		if l.TemplateID == templateID && l.EventID == eventID && l.RecipientEmail == recipient && l.Status == repository.LogStatusSent {
			return i
		}
	}
	return -1
}

// InsertLog mirrors the partial unique index on sent rows.
func (f *fakeRepo) InsertLog(_ context.Context, p repository.LogParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Status == repository.LogStatusSent {
		if i := f.sentIndex(p.TemplateID, p.EventID, p.RecipientEmail); i >= 0 {
			if !p.Replace {
				return false, nil
			}
			f.logs[i].ProviderMessageID = p.ProviderMessageID
			return true, nil
		}
	}
	f.logs = append(f.logs, repository.LogEntry{
		ID:                uuid.New(),
		TemplateID:        p.TemplateID,
		EventID:           p.EventID,
		RecipientEmail:    p.RecipientEmail,
		Status:            p.Status,
		ProviderMessageID: p.ProviderMessageID,
		Error:             p.Error,
		CreatedAt:         time.Now(),
	})
	return true, nil
}

func (f *fakeRepo) ListLogs(_ context.Context, p repository.ListLogsParams) ([]repository.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.LogEntry, 0)
	for _, l := range f.logs {
		if p.EventID != nil && l.EventID != *p.EventID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepo) countLogs(status string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.logs {
		if l.Status == status {
			n++
		}
	}
	return n
}

func (f *fakeRepo) ListTeacherRecipients(_ context.Context, eventID uuid.UUID) ([]repository.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.Recipient(nil), f.teachers[eventID]...), nil
}

func (f *fakeRepo) ListParentRecipients(_ context.Context, eventID uuid.UUID, buyersOnly bool) ([]repository.Recipient, error) {
	return f.parents(eventID, repository.RoleParent, func(r registration) bool { return !buyersOnly || r.buyer }), nil
}

func (f *fakeRepo) ListNonBuyerRecipients(_ context.Context, eventID uuid.UUID) ([]repository.Recipient, error) {
	return f.parents(eventID, repository.RoleNonBuyer, func(r registration) bool { return !r.buyer }), nil
}

func (f *fakeRepo) parents(eventID uuid.UUID, role string, keep func(registration) bool) []repository.Recipient {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Recipient, 0)
	for _, r := range f.registrations[eventID] {
		if keep(r) {
			out = append(out, repository.Recipient{Email: strings.ToLower(r.email), Name: r.name, ChildName: r.child, Role: role})
		}
	}
	return out
}

func (f *fakeRepo) ListActiveEventIDs(_ context.Context, from, to time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, 0)
	for id, d := range f.eventDates {
		if !d.Before(from) && !d.After(to) {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeResolver struct {
	events map[string]*eventref.Event
}

func (f *fakeResolver) add(ev *eventref.Event) {
	f.events[ev.EventID] = ev
	f.events[ev.ID.String()] = ev
}

func (f *fakeResolver) Resolve(_ context.Context, input string) (*eventref.Event, error) {
	ev, ok := f.events[input]
	if !ok {
		return nil, apperr.NotFound("event not found")
	}
	copied := *ev
	return &copied, nil
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []email.Message
	calls  int
	errs   []error
	onSend func(n int)
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err == nil {
		f.sent = append(f.sent, msg)
	}
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return "", err
	}
	return "msg-" + msg.To, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}
