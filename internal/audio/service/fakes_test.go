package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/adapters/storage"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

type fakeRepo struct {
	mu     sync.Mutex
	files  map[uuid.UUID]repository.AudioFile
	seq    int
	events *fakeEvents
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{files: make(map[uuid.UUID]repository.AudioFile)}
}

var _ repository.AudioRepository = (*fakeRepo)(nil)

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return repository.AudioFile{}, apperr.NotFound("audio file not found")
	}
	return file, nil
}

func (f *fakeRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]repository.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.AudioFile, 0)
	for _, file := range f.files {
		if file.EventID == eventID {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Upsert(_ context.Context, p repository.UpsertParams) (repository.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	stamp := time.Date(2026, 1, 1, 0, 0, f.seq, 0, time.UTC)
	for id, file := range f.files {
		if file.StorageKey == p.StorageKey {
			file.Filename, file.Format, file.UploadedBy = p.Filename, p.Format, p.UploadedBy
			file.Status = "ready"
			file.ApprovalStatus = "pending"
			file.TeacherApprovedAt = nil
			file.UpdatedAt = stamp
			f.files[id] = file
			return file, nil
		}
	}
	file := repository.AudioFile{
		ID:             uuid.New(),
		EventID:        p.EventID,
		ClassID:        p.ClassID,
		GroupID:        p.GroupID,
		Type:           p.Type,
		StorageKey:     p.StorageKey,
		Filename:       p.Filename,
		Format:         p.Format,
		Status:         "ready",
		ApprovalStatus: "pending",
		IsSchulsong:    p.IsSchulsong,
		UploadedBy:     p.UploadedBy,
		CreatedAt:      stamp,
		UpdatedAt:      stamp,
	}
	f.files[file.ID] = file
	return file, nil
}

func (f *fakeRepo) SetApproval(_ context.Context, id uuid.UUID, approval string) (repository.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return repository.AudioFile{}, apperr.NotFound("audio file not found")
	}
	file.ApprovalStatus = approval
	f.files[id] = file
	return file, nil
}

func (f *fakeRepo) SetTeacherApproved(_ context.Context, id uuid.UUID, at time.Time) (repository.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return repository.AudioFile{}, apperr.NotFound("audio file not found")
	}
	if file.TeacherApprovedAt == nil {
		file.TeacherApprovedAt = &at
	}
	f.files[id] = file
	return file, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[id]; !ok {
		return apperr.NotFound("audio file not found")
	}
	delete(f.files, id)
	return nil
}

func (f *fakeRepo) ListEventIDsAtStage(_ context.Context, stage string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	if f.events == nil {
		return ids, nil
	}
	ev := f.events.event
	if ev.Status == eventref.StatusActive && ev.PipelineStage == stage {
		ids = append(ids, ev.ID)
	}
	return ids, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// fakeStore keeps the set of uploaded keys.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]bool)}
}

func (s *fakeStore) put(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = true
}

func (s *fakeStore) SignedUploadURL(_ context.Context, key, _ string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://r2.example/put/" + key, FileKey: key, ExpiresAt: time.Now().Add(storage.PresignedURLTTL)}, nil
}

func (s *fakeStore) SignedDownloadURL(_ context.Context, key string, ttl time.Duration, _ string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://r2.example/get/" + key, FileKey: key, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key], nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// fakeEvents resolves and authorizes against a single event.
type fakeEvents struct {
	event    *eventref.Event
	staff    map[string]bool
	teachers map[string]bool
	parents  map[string]bool
}

func (f *fakeEvents) Resolve(_ context.Context, input string) (*eventref.Event, error) {
	if input != f.event.EventID && input != f.event.ID.String() {
		return nil, apperr.NotFound("event not found")
	}
	copied := *f.event
	return &copied, nil
}

func (f *fakeEvents) IsStaffAssigned(_ context.Context, _ uuid.UUID, staffID, role string) (bool, error) {
	return f.staff[role+":"+staffID], nil
}

func (f *fakeEvents) IsTeacher(_ context.Context, _ uuid.UUID, email string) (bool, error) {
	return f.teachers[email], nil
}

func (f *fakeEvents) IsParent(_ context.Context, _ uuid.UUID, email string) (bool, error) {
	return f.parents[email], nil
}

// UpdatePipelineCache writes the cached columns back onto the event so the
// next Resolve sees them.
func (f *fakeEvents) UpdatePipelineCache(_ context.Context, _ uuid.UUID, stage, adminStatus string, allApproved bool, releasedAt *time.Time) error {
	f.event.PipelineStage = stage
	f.event.AdminApprovalStatus = adminStatus
	f.event.AllTracksApproved = allApproved
	if f.event.SchulsongReleasedAt == nil {
		f.event.SchulsongReleasedAt = releasedAt
	}
	return nil
}

type fakeRoster struct {
	targets []choir.Target
	known   map[choir.Target]bool
}

func (r *fakeRoster) SongTargets(context.Context, uuid.UUID) ([]choir.Target, error) {
	return r.targets, nil
}

func (r *fakeRoster) HasTarget(_ context.Context, _ uuid.UUID, t choir.Target) (bool, error) {
	return r.known[t], nil
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

func (b *recordingBus) stageChanges() []events.EventStageChanged {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.EventStageChanged
	for _, e := range b.published {
		if changed, ok := e.(events.EventStageChanged); ok {
			out = append(out, changed)
		}
	}
	return out
}
