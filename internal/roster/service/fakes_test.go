package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

type fakeRepo struct {
	mu      sync.Mutex
	classes map[uuid.UUID]repository.Class
	groups  map[uuid.UUID]repository.Group
	songs   map[uuid.UUID]repository.Song

	// afterCreateClass runs after every successful class insert.
	afterCreateClass func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		classes: make(map[uuid.UUID]repository.Class),
		groups:  make(map[uuid.UUID]repository.Group),
		songs:   make(map[uuid.UUID]repository.Song),
	}
}

var _ repository.RosterRepository = (*fakeRepo)(nil)

func (f *fakeRepo) GetClass(_ context.Context, id uuid.UUID) (repository.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.classes[id]
	if !ok {
		return repository.Class{}, apperr.NotFound("class not found")
	}
	return c, nil
}

func (f *fakeRepo) ListClasses(_ context.Context, eventID uuid.UUID) ([]repository.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Class, 0)
	for _, c := range f.classes {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) CreateClass(_ context.Context, p repository.ClassParams) (repository.Class, error) {
	f.mu.Lock()
	for _, c := range f.classes {
		if c.EventID == p.EventID && c.Name == p.Name {
			f.mu.Unlock()
			return repository.Class{}, apperr.Conflict("a class with this name already exists for the event")
		}
	}
	now := time.Now()
	c := repository.Class{
		ID:          uuid.New(),
		EventID:     p.EventID,
		Name:        p.Name,
		TeacherName: p.TeacherName,
		NumChildren: p.NumChildren,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.classes[c.ID] = c
	hook := f.afterCreateClass
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return c, nil
}

func (f *fakeRepo) UpdateClass(_ context.Context, id uuid.UUID, p repository.ClassParams) (repository.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.classes[id]
	if !ok {
		return repository.Class{}, apperr.NotFound("class not found")
	}
	c.Name, c.TeacherName, c.NumChildren = p.Name, p.TeacherName, p.NumChildren
	c.UpdatedAt = time.Now()
	f.classes[id] = c
	return c, nil
}

func (f *fakeRepo) DeleteClass(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.classes[id]; !ok {
		return apperr.NotFound("class not found")
	}
	delete(f.classes, id)
	return nil
}

func (f *fakeRepo) GetGroup(_ context.Context, id uuid.UUID) (repository.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return repository.Group{}, apperr.NotFound("group not found")
	}
	return g, nil
}

func (f *fakeRepo) ListGroups(_ context.Context, eventID uuid.UUID) ([]repository.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Group, 0)
	for _, g := range f.groups {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) CreateGroup(_ context.Context, p repository.GroupParams) (repository.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	g := repository.Group{
		ID:        uuid.New(),
		EventID:   p.EventID,
		Name:      p.Name,
		ClassIDs:  append([]uuid.UUID(nil), p.ClassIDs...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeRepo) UpdateGroup(_ context.Context, id uuid.UUID, p repository.GroupParams) (repository.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return repository.Group{}, apperr.NotFound("group not found")
	}
	g.Name = p.Name
	g.ClassIDs = append([]uuid.UUID(nil), p.ClassIDs...)
	g.UpdatedAt = time.Now()
	f.groups[id] = g
	return g, nil
}

func (f *fakeRepo) DeleteGroup(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return apperr.NotFound("group not found")
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeRepo) GetSong(_ context.Context, id uuid.UUID) (repository.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.songs[id]
	if !ok {
		return repository.Song{}, apperr.NotFound("song not found")
	}
	return s, nil
}

func (f *fakeRepo) ListSongs(_ context.Context, eventID uuid.UUID) ([]repository.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Song, 0)
	for _, s := range f.songs {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlbumOrder < out[j].AlbumOrder })
	return out, nil
}

func (f *fakeRepo) CreateSong(_ context.Context, p repository.SongParams) (repository.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := 0
	for _, s := range f.songs {
		if s.EventID == p.EventID && s.AlbumOrder > order {
			order = s.AlbumOrder
		}
	}
	now := time.Now()
	s := repository.Song{
		ID:         uuid.New(),
		EventID:    p.EventID,
		ClassID:    p.ClassID,
		GroupID:    p.GroupID,
		Title:      p.Title,
		Artist:     p.Artist,
		Notes:      p.Notes,
		AlbumOrder: order + 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.songs[s.ID] = s
	return s, nil
}

func (f *fakeRepo) UpdateSong(_ context.Context, id uuid.UUID, p repository.SongParams) (repository.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.songs[id]
	if !ok {
		return repository.Song{}, apperr.NotFound("song not found")
	}
	s.ClassID, s.GroupID, s.Title, s.Artist, s.Notes = p.ClassID, p.GroupID, p.Title, p.Artist, p.Notes
	f.songs[id] = s
	return s, nil
}

func (f *fakeRepo) DeleteSong(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.songs[id]; !ok {
		return apperr.NotFound("song not found")
	}
	delete(f.songs, id)
	return nil
}

func (f *fakeRepo) ReorderSongs(_ context.Context, _ uuid.UUID, ordered []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range ordered {
		s := f.songs[id]
		s.AlbumOrder = i + 1
		f.songs[id] = s
	}
	return nil
}

// fakeEvents resolves event ids and grants access from static maps.
type fakeEvents struct {
	byRef map[string]*eventref.Event
	staff map[string]bool
}

func newFakeEvents(evs ...*eventref.Event) *fakeEvents {
	f := &fakeEvents{byRef: make(map[string]*eventref.Event), staff: make(map[string]bool)}
	for _, ev := range evs {
		f.byRef[ev.EventID] = ev
	}
	return f
}

func (f *fakeEvents) Resolve(_ context.Context, input string) (*eventref.Event, error) {
	ev, ok := f.byRef[input]
	if !ok {
		return nil, apperr.NotFound("event not found")
	}
	return ev, nil
}

func (f *fakeEvents) IsStaffAssigned(_ context.Context, eventID uuid.UUID, staffID, role string) (bool, error) {
	return f.staff[eventID.String()+"|"+role+"|"+staffID], nil
}

func (f *fakeEvents) IsTeacher(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (f *fakeEvents) IsParent(context.Context, uuid.UUID, string) (bool, error) {
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
