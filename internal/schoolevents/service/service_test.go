package service

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/schoolevents/deal"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/schoolevents/timeline"
	"minimusiker_backend/internal/schoolevents/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/cache"
	"minimusiker_backend/platform/httpkit"
)

func newTestService(repo *fakeRepo, bus *recordingBus) *Service {
	return New(repo, Options{
		Cache:      cache.NewMemoryCache(),
		CacheTTL:   time.Minute,
		Bus:        bus,
		AppBaseURL: "https://portal.example",
	})
}

func strPtr(s string) *string { return &s }

func TestResolveNumericSimplybookID(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()

	booking, err := repo.CreateBooking(ctx, repository.CreateBookingParams{SimplybookID: "48213", SchoolName: "GS Nord"})
	require.NoError(t, err)
	want := repo.seed(repository.Event{
		EventID:         "gs-nord-20260520-0a1b2c3d",
		SchoolBookingID: &booking.ID,
		SchoolName:      "GS Nord",
	})

	svc := newTestService(repo, nil)
	got, err := svc.Resolve(ctx, "48213")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "gs-nord-20260520-0a1b2c3d", got.EventID)
}

func TestResolveOrder(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()

	byEventID := repo.seed(repository.Event{EventID: "4711"})
	byLegacy := repo.seed(repository.Event{EventID: "other-20260101-aaaaaaaa", LegacyBookingID: strPtr("4711")})
	legacyOnly := repo.seed(repository.Event{EventID: "third-20260101-bbbbbbbb", LegacyBookingID: strPtr("L-99")})

	svc := newTestService(repo, nil)

	got, err := svc.Resolve(ctx, "4711")
	require.NoError(t, err)
	assert.Equal(t, byEventID.ID, got.ID, "exact event_id match wins over legacy id")

	got, err = svc.Resolve(ctx, "L-99")
	require.NoError(t, err)
	assert.Equal(t, legacyOnly.ID, got.ID)

	got, err = svc.Resolve(ctx, byLegacy.ID.String())
	require.NoError(t, err)
	assert.Equal(t, byLegacy.ID, got.ID)
}

func TestResolveNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	for _, input := range []string{"", "   ", "12345", "unknown-event", uuid.NewString()} {
		_, err := svc.Resolve(context.Background(), input)
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "input %q: %v", input, err)
	}
}

func TestResolveCachesHitsOnly(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()
	seeded := repo.seed(repository.Event{EventID: "legacy-target", LegacyBookingID: strPtr("L-1")})
	svc := newTestService(repo, nil)

	_, err := svc.Resolve(ctx, "L-1")
	require.NoError(t, err)
	lookupsAfterFirst := repo.lookups

	got, err := svc.Resolve(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, lookupsAfterFirst+1, repo.lookups, "cached resolution reads the record by id only")

	_, err = svc.Resolve(ctx, "missing")
	require.Error(t, err)
	before := repo.lookups
	_, err = svc.Resolve(ctx, "missing")
	require.Error(t, err)
	assert.Greater(t, repo.lookups-before, 1, "misses walk the whole chain again")
}

func TestResolveReadsFreshRecordThroughCache(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()
	seeded := repo.seed(repository.Event{EventID: "fresh-20260101-cccccccc", DealType: "mimu"})
	svc := newTestService(repo, nil)

	_, err := svc.Resolve(ctx, seeded.EventID)
	require.NoError(t, err)

	_, err = repo.UpdateDeal(ctx, seeded.ID, repository.UpdateDealParams{DealType: "schus", IsSchulsong: true})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, seeded.EventID)
	require.NoError(t, err)
	assert.Equal(t, "schus", got.DealType)
	assert.True(t, got.IsSchulsong)
}

func TestGenerateEventID(t *testing.T) {
	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	id := GenerateEventID("Grundschule Süd-Ost Übersee", date, "simplybook:1")
	assert.Regexp(t, regexp.MustCompile(`^grundschule-sued-ost-uebersee-20260520-[0-9a-f]{8}$`), id)
	assert.Equal(t, id, GenerateEventID("Grundschule Süd-Ost Übersee", date, "simplybook:1"))
	assert.NotEqual(t, id, GenerateEventID("Grundschule Süd-Ost Übersee", date, "simplybook:2"))

	assert.Regexp(t, `^event-20260520-[0-9a-f]{8}$`, GenerateEventID("!!!", date, "x"))

	long := GenerateEventID("Städtische Gemeinschaftsgrundschule an der langen Allee", date, "x")
	slug := long[:len(long)-len("-20260520-00000000")]
	assert.LessOrEqual(t, len(slug), maxSlugLength)
}

func TestIngestBookingIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)
	ctx := context.Background()

	req := transport.SimplybookBookingRequest{
		BookingID:         "90001",
		SchoolName:        "  Grundschule  am Park ",
		ContactName:       "Frau Müller",
		ContactEmail:      "Mueller@Schule.DE",
		ContactPhone:      "030 12345678",
		EventDate:         "2026-06-10",
		EstimatedChildren: 80,
		IsKita:            true,
	}

	first, err := svc.IngestBooking(ctx, req, `{"raw":true}`)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "Grundschule am Park", first.Event.SchoolName)
	assert.Equal(t, "mimu", first.Event.DealType)
	assert.True(t, first.Event.Flags.IsMinimusikertag)
	assert.True(t, first.Event.Flags.IsKita)
	require.NotNil(t, first.Event.Fee)
	assert.Equal(t, int64(15000), first.Event.Fee.TotalCents, "under-100 surcharge applies to 80 children")

	booking := repo.bookings["90001"]
	assert.Equal(t, "+493012345678", booking.ContactPhone)
	assert.Equal(t, "mueller@schule.de", booking.ContactEmail)

	second, err := svc.IngestBooking(ctx, req, `{"raw":true}`)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Event.ID, second.Event.ID)
	assert.Len(t, repo.events, 1)

	require.Len(t, bus.published, 1)
	received, ok := bus.published[0].(events.BookingReceived)
	require.True(t, ok)
	assert.Equal(t, first.Event.EventID, received.EventID)
	assert.Equal(t, "mueller@schule.de", received.ContactEmail)

	resolved, err := svc.Resolve(ctx, "90001")
	require.NoError(t, err)
	assert.Equal(t, first.Event.EventID, resolved.EventID)
}

func TestUpdateDealRederivesFlags(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)
	ctx := context.Background()
	seeded := repo.seed(repository.Event{EventID: "deal-20260101-dddddddd", DealType: "mimu", IsMinimusikertag: true, EstimatedChildren: 300})

	shirts := false
	resp, err := svc.UpdateDeal(ctx, seeded.EventID, "admin-1", transport.UpdateDealRequest{
		DealType: "mimu_scs",
		DealConfig: deal.Config{
			SCSAudioPricing:   deal.AudioPricingPlus,
			SCSShirtsIncluded: &shirts,
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Flags.IsPlus)
	assert.False(t, resp.Flags.IsMinimusikertag)
	assert.True(t, resp.Flags.IsSchulsong)
	require.NotNil(t, resp.Fee)
	assert.Equal(t, int64(275000), resp.Fee.TotalCents)

	stored := repo.events[seeded.ID]
	assert.Equal(t, deal.ParseConfig(stored.DealConfig).SCSAudioPricing, deal.AudioPricingPlus)

	// the stage cache depends on the schulsong flag, so the change is announced
	require.Len(t, bus.published, 1)
	updated, ok := bus.published[0].(events.DealUpdated)
	require.True(t, ok)
	assert.Equal(t, seeded.ID, updated.EventRecordID)
	assert.Equal(t, "mimu_scs", updated.DealType)
}

func TestUpdateDealRejectsUnknownFeeKey(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seeded := repo.seed(repository.Event{EventID: "fees-20260101-eeeeeeee", DealType: "mimu"})

	_, err := svc.UpdateDeal(context.Background(), seeded.EventID, "admin-1", transport.UpdateDealRequest{
		DealType:   "mimu",
		DealConfig: deal.Config{CustomFees: map[string]int64{"travel": 100}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateDeal(context.Background(), seeded.EventID, "admin-1", transport.UpdateDealRequest{
		DealType:   "mimu",
		DealConfig: deal.Config{CustomFees: map[string]int64{deal.FeeDistance: -1}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateDeal(context.Background(), seeded.EventID, "admin-1", transport.UpdateDealRequest{
		DealType:   "mimu",
		DealConfig: deal.Config{CustomFees: map[string]int64{deal.FeeBase: deal.MaxCustomFeeCents + 1}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateTimelineOverrides(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()
	seeded := repo.seed(repository.Event{
		EventID:   "tl-20260101-ffffffff",
		EventDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
	})

	resp, err := svc.UpdateTimelineOverrides(ctx, seeded.EventID, map[string]json.RawMessage{
		string(timeline.EarlyBirdDeadlineDays): json.RawMessage(`0`),
	})
	require.NoError(t, err)

	var early transport.ThresholdView
	for _, v := range resp.Thresholds {
		if v.Key == timeline.EarlyBirdDeadlineDays {
			early = v
		}
	}
	assert.Equal(t, 0, early.Days, "explicit zero override is kept")
	assert.True(t, early.Overridden)
	assert.Equal(t, "2026-06-10", early.Date)

	resp, err = svc.UpdateTimelineOverrides(ctx, seeded.EventID, map[string]json.RawMessage{
		string(timeline.EarlyBirdDeadlineDays): json.RawMessage(`null`),
	})
	require.NoError(t, err)
	for _, v := range resp.Thresholds {
		if v.Key == timeline.EarlyBirdDeadlineDays {
			assert.False(t, v.Overridden)
			assert.Equal(t, 19, v.Days)
		}
	}

	_, err = svc.UpdateTimelineOverrides(ctx, seeded.EventID, map[string]json.RawMessage{"nope": json.RawMessage(`3`)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCancelEventTwiceConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seeded := repo.seed(repository.Event{EventID: "cx-20260101-12345678"})

	_, err := svc.CancelEvent(context.Background(), seeded.EventID)
	require.NoError(t, err)
	_, err = svc.CancelEvent(context.Background(), seeded.EventID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestGetTeacherEventRequiresLink(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()
	seeded := repo.seed(repository.Event{EventID: "tv-20260101-87654321", EventDate: time.Now()})
	_, err := repo.AddTeacher(ctx, seeded.ID, "Herr Kurz", "kurz@schule.de")
	require.NoError(t, err)
	repo.registrations[seeded.ID] = 42

	view, err := svc.GetTeacherEvent(ctx, seeded.EventID, httpkit.NewIdentity("t-1", httpkit.RoleTeacher, "KURZ@schule.de"))
	require.NoError(t, err)
	assert.Equal(t, 42, view.Registrations)

	_, err = svc.GetTeacherEvent(ctx, seeded.EventID, httpkit.NewIdentity("t-2", httpkit.RoleTeacher, "other@schule.de"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestRegistrationQR(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	seeded := repo.seed(repository.Event{EventID: "qr-20260101-00000000"})

	png, name, err := svc.RegistrationQR(context.Background(), seeded.EventID, 10)
	require.NoError(t, err)
	assert.Equal(t, "qr-20260101-00000000-qr.png", name)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
