package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
)

var admin = httpkit.NewIdentity("admin-1", httpkit.RoleAdmin, "admin@minimusiker.de")

func testEvent(eventID string) *eventref.Event {
	return &eventref.Event{
		ID:         uuid.New(),
		EventID:    eventID,
		SchoolName: "Grundschule Süd",
		EventDate:  time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		Status:     eventref.StatusActive,
	}
}

func newTestService(evs ...*eventref.Event) (*Service, *fakeRepo, *fakeEvents, *recordingBus) {
	repo := newFakeRepo()
	fe := newFakeEvents(evs...)
	bus := &recordingBus{}
	return New(repo, fe, fe, bus, nil), repo, fe, bus
}

func createClasses(t *testing.T, svc *Service, ref string, names ...string) []transport.ClassResponse {
	t.Helper()
	out := make([]transport.ClassResponse, 0, len(names))
	for _, name := range names {
		c, err := svc.CreateClass(context.Background(), ref, admin, transport.ClassRequest{Name: name, NumChildren: 20})
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestCreateGroupRequiresTwoDistinctClasses(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	other := testEvent("other-20260520-00000002")
	svc, _, _, _ := newTestService(ev, other)
	ctx := context.Background()

	classes := createClasses(t, svc, ev.EventID, "1a", "1b")
	foreign := createClasses(t, svc, other.EventID, "2a")[0]

	cases := []struct {
		name     string
		classIDs []string
	}{
		{"one class", []string{classes[0].ID.String()}},
		{"same class twice", []string{classes[0].ID.String(), classes[0].ID.String()}},
		{"class of another event", []string{classes[0].ID.String(), foreign.ID.String()}},
		{"unknown class", []string{classes[0].ID.String(), uuid.NewString()}},
	}
	for _, tc := range cases {
		_, err := svc.CreateGroup(ctx, ev.EventID, admin, transport.GroupRequest{Name: "Chor", ClassIDs: tc.classIDs})
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%s: got %v", tc.name, err)
	}

	g, err := svc.CreateGroup(ctx, ev.EventID, admin, transport.GroupRequest{
		Name:     "Chor",
		ClassIDs: []string{classes[0].ID.String(), classes[1].ID.String()},
	})
	require.NoError(t, err)
	assert.Len(t, g.ClassIDs, 2)
	assert.Equal(t, choir.Group(g.ID), g.Target)
}

func TestImportClassesReportsPartialResults(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, _, bus := newTestService(ev)

	result, err := svc.ImportClasses(context.Background(), ev.EventID, admin, transport.ImportClassesRequest{
		Classes: []transport.ClassRequest{
			{Name: "1a", NumChildren: 22},
			{Name: "1a", NumChildren: 18},
			{Name: "   ", NumChildren: 10},
			{Name: "2b", NumChildren: 25},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, 2, result.Failed[1].Index)
	assert.False(t, result.Cancelled)

	require.Len(t, bus.published, 1)
	imported, ok := bus.published[0].(events.ClassesImported)
	require.True(t, ok)
	assert.Equal(t, 2, imported.Created)
	assert.Equal(t, 2, imported.Failed)
}

func TestImportClassesStopsOnCancellation(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, repo, _, _ := newTestService(ev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo.afterCreateClass = cancel

	result, err := svc.ImportClasses(ctx, ev.EventID, admin, transport.ImportClassesRequest{
		Classes: []transport.ClassRequest{{Name: "1a"}, {Name: "1b"}, {Name: "1c"}},
	})
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 2, result.Skipped)
}

func TestCreateSongAcceptsLegacyGroupTarget(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, _, _ := newTestService(ev)
	ctx := context.Background()

	classes := createClasses(t, svc, ev.EventID, "3a", "3b")
	g, err := svc.CreateGroup(ctx, ev.EventID, admin, transport.GroupRequest{
		Name:     "Dritte Klassen",
		ClassIDs: []string{classes[0].ID.String(), classes[1].ID.String()},
	})
	require.NoError(t, err)

	song, err := svc.CreateSong(ctx, ev.EventID, admin, transport.SongRequest{
		Target: "group_" + g.ID.String(),
		Title:  "Wir sind die Dritten",
	})
	require.NoError(t, err)
	assert.Equal(t, choir.Group(g.ID), song.Target)
	assert.Equal(t, "Dritte Klassen", song.TargetName)
	assert.Equal(t, 1, song.AlbumOrder)
}

func TestCreateSongRejectsForeignTarget(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	other := testEvent("other-20260520-00000002")
	svc, _, _, _ := newTestService(ev, other)

	foreign := createClasses(t, svc, other.EventID, "4a")[0]
	_, err := svc.CreateSong(context.Background(), ev.EventID, admin, transport.SongRequest{
		Target: "class:" + foreign.ID.String(),
		Title:  "Fremdes Lied",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)

	_, err = svc.CreateSong(context.Background(), ev.EventID, admin, transport.SongRequest{Target: "klasse-4a", Title: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
}

func TestReorderAlbum(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, _, _ := newTestService(ev)
	ctx := context.Background()

	class := createClasses(t, svc, ev.EventID, "1a")[0]
	var ids []string
	for _, title := range []string{"Eins", "Zwei", "Drei"} {
		song, err := svc.CreateSong(ctx, ev.EventID, admin, transport.SongRequest{Target: class.ID.String(), Title: title})
		require.NoError(t, err)
		ids = append(ids, song.ID.String())
	}

	_, err := svc.ReorderAlbum(ctx, ev.EventID, admin, transport.ReorderAlbumRequest{SongIDs: ids[:2]})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.ReorderAlbum(ctx, ev.EventID, admin, transport.ReorderAlbumRequest{SongIDs: []string{ids[0], ids[0], ids[1]}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	songs, err := svc.ReorderAlbum(ctx, ev.EventID, admin, transport.ReorderAlbumRequest{SongIDs: []string{ids[2], ids[0], ids[1]}})
	require.NoError(t, err)
	require.Len(t, songs, 3)
	assert.Equal(t, "Drei", songs[0].Title)
	assert.Equal(t, "Eins", songs[1].Title)
	assert.Equal(t, "Zwei", songs[2].Title)
	assert.Equal(t, "1a", songs[0].TargetName)
}

func TestSongTargetsAreDistinct(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, _, _ := newTestService(ev)
	ctx := context.Background()

	classes := createClasses(t, svc, ev.EventID, "1a", "1b")
	for _, title := range []string{"A", "B"} {
		_, err := svc.CreateSong(ctx, ev.EventID, admin, transport.SongRequest{Target: classes[0].ID.String(), Title: title})
		require.NoError(t, err)
	}

	targets, err := svc.SongTargets(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []choir.Target{choir.Class(classes[0].ID)}, targets)
}

func TestWritesRefusedOnCancelledEvent(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	ev.Status = eventref.StatusCancelled
	svc, _, _, _ := newTestService(ev)

	_, err := svc.CreateClass(context.Background(), ev.EventID, admin, transport.ClassRequest{Name: "1a"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.ListClasses(context.Background(), ev.EventID, admin)
	assert.NoError(t, err)
}

func TestStaffMustBeAssigned(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, fe, _ := newTestService(ev)
	staff := httpkit.NewIdentity("staff-7", httpkit.RoleStaff, "")

	_, err := svc.ListSongs(context.Background(), ev.EventID, staff)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	fe.staff[ev.ID.String()+"|"+httpkit.RoleStaff+"|staff-7"] = true
	_, err = svc.ListSongs(context.Background(), ev.EventID, staff)
	assert.NoError(t, err)
}

func TestAlbumPDF(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, _, _ := newTestService(ev)
	ctx := context.Background()

	class := createClasses(t, svc, ev.EventID, "1a")[0]
	_, err := svc.CreateSong(ctx, ev.EventID, admin, transport.SongRequest{Target: class.ID.String(), Title: "Grüne Wiese"})
	require.NoError(t, err)

	data, filename, err := svc.AlbumPDF(ctx, ev.EventID, admin)
	require.NoError(t, err)
	assert.Equal(t, "album-gs-sued-20260520-00000001.pdf", filename)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestHasTarget(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	other := testEvent("other-20260520-00000002")
	svc, _, _, _ := newTestService(ev, other)
	ctx := context.Background()

	class := createClasses(t, svc, ev.EventID, "1a")[0]

	ok, err := svc.HasTarget(ctx, ev.ID, choir.Class(class.ID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasTarget(ctx, other.ID, choir.Class(class.ID))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasTarget(ctx, ev.ID, choir.Group(uuid.New()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSongMutationsAnnounceRosterChanges(t *testing.T) {
	ev := testEvent("gs-sued-20260520-00000001")
	svc, _, _, bus := newTestService(ev)
	ctx := context.Background()

	class := createClasses(t, svc, ev.EventID, "2a")[0]
	assert.Empty(t, bus.published)

	song, err := svc.CreateSong(ctx, ev.EventID, admin, transport.SongRequest{Target: class.ID.String(), Title: "Frühling"})
	require.NoError(t, err)
	_, err = svc.UpdateSong(ctx, ev.EventID, song.ID, admin, transport.SongRequest{Target: class.ID.String(), Title: "Sommer"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSong(ctx, ev.EventID, song.ID, admin))
	require.NoError(t, svc.DeleteClass(ctx, ev.EventID, class.ID, admin))

	var changes []string
	for _, published := range bus.published {
		changed, ok := published.(events.RosterChanged)
		require.True(t, ok)
		assert.Equal(t, ev.ID, changed.EventRecordID)
		assert.Equal(t, "admin-1", changed.ActorID)
		changes = append(changes, changed.Change)
	}
	assert.Equal(t, []string{"song.created", "song.updated", "song.deleted", "class.deleted"}, changes)
}
