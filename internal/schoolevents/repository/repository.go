package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event represents the event database model
type Event struct {
	ID                  uuid.UUID  `db:"id"`
	EventID             string     `db:"event_id"`
	LegacyBookingID     *string    `db:"legacy_booking_id"`
	SchoolBookingID     *uuid.UUID `db:"school_booking_id"`
	SchoolName          string     `db:"school_name"`
	EventDate           time.Time  `db:"event_date"`
	DealType            string     `db:"deal_type"`
	DealConfig          string     `db:"deal_config"`
	IsMinimusikertag    bool       `db:"is_minimusikertag"`
	IsPlus              bool       `db:"is_plus"`
	IsKita              bool       `db:"is_kita"`
	IsSchulsong         bool       `db:"is_schulsong"`
	TimelineOverrides   string     `db:"timeline_overrides"`
	AdminApprovalStatus string     `db:"admin_approval_status"`
	AllTracksApproved   bool       `db:"all_tracks_approved"`
	PipelineStage       string     `db:"pipeline_stage"`
	SchulsongReleasedAt *time.Time `db:"schulsong_released_at"`
	EstimatedChildren   int        `db:"estimated_children"`
	Status              string     `db:"status"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// Repository provides database operations for school events
type Repository struct {
	pool *pgxpool.Pool
}

const eventNotFoundMsg = "event not found"

const eventColumns = `id, event_id, legacy_booking_id, school_booking_id, school_name, event_date,
	deal_type, deal_config, is_minimusikertag, is_plus, is_kita, is_schulsong, timeline_overrides,
	admin_approval_status, all_tracks_approved, pipeline_stage, schulsong_released_at, estimated_children, status,
	created_at, updated_at`

// New creates a new school events repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ EventsRepository = (*Repository)(nil)

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.EventID, &e.LegacyBookingID, &e.SchoolBookingID, &e.SchoolName, &e.EventDate,
		&e.DealType, &e.DealConfig, &e.IsMinimusikertag, &e.IsPlus, &e.IsKita, &e.IsSchulsong,
		&e.TimelineOverrides, &e.AdminApprovalStatus, &e.AllTracksApproved, &e.PipelineStage, &e.SchulsongReleasedAt,
		&e.EstimatedChildren, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *Repository) getOne(ctx context.Context, op, where string, arg interface{}) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + where + ` LIMIT 1`
	e, err := scanEvent(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, apperr.NotFound(eventNotFoundMsg)
		}
		return Event{}, fmt.Errorf("failed to get event by %s: %w", op, err)
	}
	return e, nil
}

// GetByID retrieves an event by its record ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Event, error) {
	return r.getOne(ctx, "id", "id = $1", id)
}

// GetByEventID retrieves an event by its generated event ID
func (r *Repository) GetByEventID(ctx context.Context, eventID string) (Event, error) {
	return r.getOne(ctx, "event_id", "event_id = $1", eventID)
}

// GetByLegacyBookingID retrieves the oldest event carrying the legacy booking ID
func (r *Repository) GetByLegacyBookingID(ctx context.Context, legacyID string) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE legacy_booking_id = $1 ORDER BY created_at ASC LIMIT 1`
	e, err := scanEvent(r.pool.QueryRow(ctx, query, legacyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, apperr.NotFound(eventNotFoundMsg)
		}
		return Event{}, fmt.Errorf("failed to get event by legacy booking id: %w", err)
	}
	return e, nil
}

// GetBySchoolBookingID retrieves the event linked to a school booking
func (r *Repository) GetBySchoolBookingID(ctx context.Context, bookingID uuid.UUID) (Event, error) {
	return r.getOne(ctx, "school booking", "school_booking_id = $1", bookingID)
}

// Create inserts a new event
func (r *Repository) Create(ctx context.Context, p CreateEventParams) (Event, error) {
	query := `
		INSERT INTO events (
			event_id, legacy_booking_id, school_booking_id, school_name, event_date, deal_type,
			deal_config, is_minimusikertag, is_plus, is_kita, is_schulsong, estimated_children
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query,
		p.EventID, p.LegacyBookingID, p.SchoolBookingID, p.SchoolName, p.EventDate, p.DealType,
		p.DealConfig, p.IsMinimusikertag, p.IsPlus, p.IsKita, p.IsSchulsong, p.EstimatedChildren,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Event{}, apperr.Conflict("event already exists")
		}
		return Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

// UpdateDeal stores the deal type, its config and the derived flags
func (r *Repository) UpdateDeal(ctx context.Context, id uuid.UUID, p UpdateDealParams) (Event, error) {
	query := `
		UPDATE events SET
			deal_type = $2,
			deal_config = $3,
			is_minimusikertag = $4,
			is_plus = $5,
			is_kita = $6,
			is_schulsong = $7,
			estimated_children = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query,
		id, p.DealType, p.DealConfig, p.IsMinimusikertag, p.IsPlus, p.IsKita, p.IsSchulsong, p.EstimatedChildren,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, apperr.NotFound(eventNotFoundMsg)
		}
		return Event{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return e, nil
}

// UpdateTimelineOverrides replaces the stored overrides JSON
func (r *Repository) UpdateTimelineOverrides(ctx context.Context, id uuid.UUID, raw string) (Event, error) {
	query := `UPDATE events SET timeline_overrides = $2, updated_at = now() WHERE id = $1 RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query, id, raw))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, apperr.NotFound(eventNotFoundMsg)
		}
		return Event{}, fmt.Errorf("failed to update timeline overrides: %w", err)
	}
	return e, nil
}

// UpdatePipelineCache writes the cached pipeline fields.
// schulsong_released_at is only stamped once.
func (r *Repository) UpdatePipelineCache(ctx context.Context, id uuid.UUID, p PipelineCacheParams) error {
	query := `
		UPDATE events SET
			admin_approval_status = $2,
			all_tracks_approved = $3,
			pipeline_stage = $4,
			schulsong_released_at = COALESCE(schulsong_released_at, $5),
			updated_at = now()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, p.AdminApprovalStatus, p.AllTracksApproved, p.PipelineStage, p.SchulsongReleasedAt)
	if err != nil {
		return fmt.Errorf("failed to update pipeline cache: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(eventNotFoundMsg)
	}
	return nil
}

// UpdateStatus sets the event status (active or cancelled)
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Event, error) {
	query := `UPDATE events SET status = $2, updated_at = now() WHERE id = $1 RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, apperr.NotFound(eventNotFoundMsg)
		}
		return Event{}, fmt.Errorf("failed to update event status: %w", err)
	}
	return e, nil
}

// List returns a filtered page of events and the total count
func (r *Repository) List(ctx context.Context, p ListParams) ([]Event, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if p.Status != "" {
		add("status = $%d", p.Status)
	}
	if p.DealType != "" {
		add("deal_type = $%d", p.DealType)
	}
	if p.From != nil {
		add("event_date >= $%d", *p.From)
	}
	if p.To != nil {
		add("event_date <= $%d", *p.To)
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		add("(school_name ILIKE $%[1]d OR event_id ILIKE $%[1]d)", "%"+s+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, p.Offset)
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY event_date ASC, created_at ASC LIMIT $%d OFFSET $%d`,
		eventColumns, where, len(args)-1, len(args))

	items, err := r.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByTeacherEmail returns the active events a teacher is linked to
func (r *Repository) ListByTeacherEmail(ctx context.Context, email string) ([]Event, error) {
	query := `SELECT ` + prefixColumns("e") + ` FROM events e
		JOIN event_teachers t ON t.event_id = e.id
		WHERE t.email = $1 AND e.status = 'active'
		ORDER BY e.event_date ASC`
	return r.queryEvents(ctx, query, strings.ToLower(email))
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return items, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(eventColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
