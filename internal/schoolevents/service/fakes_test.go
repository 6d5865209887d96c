package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/platform/apperr"
)

type fakeRepo struct {
	mu            sync.Mutex
	events        map[uuid.UUID]repository.Event
	bookings      map[string]repository.SchoolBooking
	teachers      map[uuid.UUID][]repository.EventTeacher
	staff         map[string]bool
	parents       map[string]bool
	registrations map[uuid.UUID]int
	getByIDCalls  int
	lookups       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:        map[uuid.UUID]repository.Event{},
		bookings:      map[string]repository.SchoolBooking{},
		teachers:      map[uuid.UUID][]repository.EventTeacher{},
		staff:         map[string]bool{},
		parents:       map[string]bool{},
		registrations: map[uuid.UUID]int{},
	}
}

func (f *fakeRepo) seed(e repository.Event) repository.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = "active"
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeRepo) find(match func(repository.Event) bool) (repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	for _, e := range f.events {
		if match(e) {
			return e, nil
		}
	}
	return repository.Event{}, apperr.NotFound("event not found")
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Event, error) {
	f.mu.Lock()
	f.getByIDCalls++
	f.mu.Unlock()
	return f.find(func(e repository.Event) bool { return e.ID == id })
}

func (f *fakeRepo) GetByEventID(_ context.Context, eventID string) (repository.Event, error) {
	return f.find(func(e repository.Event) bool { return e.EventID == eventID })
}

func (f *fakeRepo) GetByLegacyBookingID(_ context.Context, legacyID string) (repository.Event, error) {
	return f.find(func(e repository.Event) bool { return e.LegacyBookingID != nil && *e.LegacyBookingID == legacyID })
}

func (f *fakeRepo) GetBySchoolBookingID(_ context.Context, bookingID uuid.UUID) (repository.Event, error) {
	return f.find(func(e repository.Event) bool { return e.SchoolBookingID != nil && *e.SchoolBookingID == bookingID })
}

func (f *fakeRepo) List(context.Context, repository.ListParams) ([]repository.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListByTeacherEmail(_ context.Context, email string) ([]repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Event
	for id, ts := range f.teachers {
		for _, t := range ts {
			if t.Email == strings.ToLower(email) {
				out = append(out, f.events[id])
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, p repository.CreateEventParams) (repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.EventID == p.EventID {
			return repository.Event{}, apperr.Conflict("event already exists")
		}
	}
	now := time.Now()
	e := repository.Event{
		ID:                  uuid.New(),
		EventID:             p.EventID,
		LegacyBookingID:     p.LegacyBookingID,
		SchoolBookingID:     p.SchoolBookingID,
		SchoolName:          p.SchoolName,
		EventDate:           p.EventDate,
		DealType:            p.DealType,
		DealConfig:          p.DealConfig,
		IsMinimusikertag:    p.IsMinimusikertag,
		IsPlus:              p.IsPlus,
		IsKita:              p.IsKita,
		IsSchulsong:         p.IsSchulsong,
		AdminApprovalStatus: "pending",
		PipelineStage:       "no_raw_audio",
		EstimatedChildren:   p.EstimatedChildren,
		Status:              "active",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeRepo) update(id uuid.UUID, fn func(*repository.Event)) (repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return repository.Event{}, apperr.NotFound("event not found")
	}
	fn(&e)
	f.events[id] = e
	return e, nil
}

func (f *fakeRepo) UpdateDeal(_ context.Context, id uuid.UUID, p repository.UpdateDealParams) (repository.Event, error) {
	return f.update(id, func(e *repository.Event) {
		e.DealType = p.DealType
		e.DealConfig = p.DealConfig
		e.IsMinimusikertag = p.IsMinimusikertag
		e.IsPlus = p.IsPlus
		e.IsKita = p.IsKita
		e.IsSchulsong = p.IsSchulsong
		e.EstimatedChildren = p.EstimatedChildren
	})
}

func (f *fakeRepo) UpdateTimelineOverrides(_ context.Context, id uuid.UUID, raw string) (repository.Event, error) {
	return f.update(id, func(e *repository.Event) { e.TimelineOverrides = raw })
}

func (f *fakeRepo) UpdatePipelineCache(_ context.Context, id uuid.UUID, p repository.PipelineCacheParams) error {
	_, err := f.update(id, func(e *repository.Event) {
		e.AdminApprovalStatus = p.AdminApprovalStatus
		e.AllTracksApproved = p.AllTracksApproved
		e.PipelineStage = p.PipelineStage
		if e.SchulsongReleasedAt == nil {
			e.SchulsongReleasedAt = p.SchulsongReleasedAt
		}
	})
	return err
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Event, error) {
	return f.update(id, func(e *repository.Event) { e.Status = status })
}

func (f *fakeRepo) GetBookingBySimplybookID(_ context.Context, simplybookID string) (repository.SchoolBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[simplybookID]
	if !ok {
		return repository.SchoolBooking{}, apperr.NotFound("booking not found")
	}
	return b, nil
}

func (f *fakeRepo) CreateBooking(_ context.Context, p repository.CreateBookingParams) (repository.SchoolBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[p.SimplybookID]; ok {
		return repository.SchoolBooking{}, apperr.Conflict("booking already received")
	}
	b := repository.SchoolBooking{
		ID:                uuid.New(),
		SimplybookID:      p.SimplybookID,
		SchoolName:        p.SchoolName,
		ContactName:       p.ContactName,
		ContactEmail:      p.ContactEmail,
		ContactPhone:      p.ContactPhone,
		EventDate:         p.EventDate,
		EstimatedChildren: p.EstimatedChildren,
		RawPayload:        p.RawPayload,
		CreatedAt:         time.Now(),
	}
	f.bookings[p.SimplybookID] = b
	return b, nil
}

func (f *fakeRepo) AddTeacher(_ context.Context, eventID uuid.UUID, name, email string) (repository.EventTeacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := repository.EventTeacher{ID: uuid.New(), EventID: eventID, Name: name, Email: strings.ToLower(email)}
	f.teachers[eventID] = append(f.teachers[eventID], t)
	return t, nil
}

func (f *fakeRepo) ListTeachers(_ context.Context, eventID uuid.UUID) ([]repository.EventTeacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teachers[eventID], nil
}

func (f *fakeRepo) AssignStaff(_ context.Context, eventID uuid.UUID, staffID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staff[eventID.String()+role+staffID] = true
	return nil
}

func (f *fakeRepo) UnassignStaff(_ context.Context, eventID uuid.UUID, staffID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.staff, eventID.String()+role+staffID)
	return nil
}

func (f *fakeRepo) ListStaff(context.Context, uuid.UUID) ([]repository.StaffAssignment, error) {
	return nil, nil
}

func (f *fakeRepo) IsStaffAssigned(_ context.Context, eventID uuid.UUID, staffID, role string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staff[eventID.String()+role+staffID], nil
}

func (f *fakeRepo) IsTeacher(_ context.Context, eventID uuid.UUID, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teachers[eventID] {
		if t.Email == strings.ToLower(email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) IsParent(_ context.Context, eventID uuid.UUID, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parents[eventID.String()+strings.ToLower(email)], nil
}

func (f *fakeRepo) CountRegistrations(_ context.Context, eventID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registrations[eventID], nil
}

func (f *fakeRepo) HasMerchOrder(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
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
