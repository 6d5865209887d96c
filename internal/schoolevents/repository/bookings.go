package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SchoolBooking is a booking received from SimplyBook.
type SchoolBooking struct {
	ID                uuid.UUID `db:"id"`
	SimplybookID      string    `db:"simplybook_id"`
	SchoolName        string    `db:"school_name"`
	ContactName       string    `db:"contact_name"`
	ContactEmail      string    `db:"contact_email"`
	ContactPhone      string    `db:"contact_phone"`
	EventDate         time.Time `db:"event_date"`
	EstimatedChildren int       `db:"estimated_children"`
	RawPayload        string    `db:"raw_payload"`
	CreatedAt         time.Time `db:"created_at"`
}

const bookingColumns = `id, simplybook_id, school_name, contact_name, contact_email, contact_phone,
	event_date, estimated_children, raw_payload, created_at`

func scanBooking(row pgx.Row) (SchoolBooking, error) {
	var b SchoolBooking
	err := row.Scan(&b.ID, &b.SimplybookID, &b.SchoolName, &b.ContactName, &b.ContactEmail,
		&b.ContactPhone, &b.EventDate, &b.EstimatedChildren, &b.RawPayload, &b.CreatedAt)
	return b, err
}

// GetBookingBySimplybookID retrieves a booking by its SimplyBook ID
func (r *Repository) GetBookingBySimplybookID(ctx context.Context, simplybookID string) (SchoolBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM school_bookings WHERE simplybook_id = $1`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, simplybookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SchoolBooking{}, apperr.NotFound("booking not found")
		}
		return SchoolBooking{}, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// CreateBooking inserts a booking. A duplicate SimplyBook ID is a Conflict.
func (r *Repository) CreateBooking(ctx context.Context, p CreateBookingParams) (SchoolBooking, error) {
	query := `
		INSERT INTO school_bookings (
			simplybook_id, school_name, contact_name, contact_email, contact_phone,
			event_date, estimated_children, raw_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.pool.QueryRow(ctx, query,
		p.SimplybookID, p.SchoolName, p.ContactName, p.ContactEmail, p.ContactPhone,
		p.EventDate, p.EstimatedChildren, p.RawPayload,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return SchoolBooking{}, apperr.Conflict("booking already received")
		}
		return SchoolBooking{}, fmt.Errorf("failed to create booking: %w", err)
	}
	return b, nil
}
