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
	"github.com/jackc/pgx/v5/pgxpool"
)

// Template represents the email_templates database model
type Template struct {
	ID                     uuid.UUID `db:"id"`
	Name                   string    `db:"name"`
	Audience               []string  `db:"audience"`
	TriggerType            string    `db:"trigger_type"`
	TriggerDays            int       `db:"trigger_days"`
	TriggerHour            *int      `db:"trigger_hour"`
	FilterIsMinimusikertag *bool     `db:"filter_is_minimusikertag"`
	FilterIsPlus           *bool     `db:"filter_is_plus"`
	FilterIsSchulsong      *bool     `db:"filter_is_schulsong"`
	FilterIsKita           *bool     `db:"filter_is_kita"`
	Active                 bool      `db:"active"`
	Subject                string    `db:"subject"`
	BodyHTML               string    `db:"body_html"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

// Repository provides database operations for email automation
type Repository struct {
	pool *pgxpool.Pool
}

const (
	templateNotFoundMsg = "email template not found"
	templateColumns     = `id, name, audience, trigger_type, trigger_days, trigger_hour,
		filter_is_minimusikertag, filter_is_plus, filter_is_schulsong, filter_is_kita,
		active, subject, body_html, created_at, updated_at`
)

// New creates a new email automation repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ AutomationRepository = (*Repository)(nil)

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(
		&t.ID, &t.Name, &t.Audience, &t.TriggerType, &t.TriggerDays, &t.TriggerHour,
		&t.FilterIsMinimusikertag, &t.FilterIsPlus, &t.FilterIsSchulsong, &t.FilterIsKita,
		&t.Active, &t.Subject, &t.BodyHTML, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// GetTemplate retrieves a template by ID
func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, apperr.NotFound(templateNotFoundMsg)
		}
		return Template{}, fmt.Errorf("failed to get email template: %w", err)
	}
	return t, nil
}

// ListTemplates returns templates ordered by trigger offset, then name
func (r *Repository) ListTemplates(ctx context.Context, params ListTemplatesParams) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates
		WHERE ($1::boolean = false OR active)
		  AND ($2::text = '' OR trigger_type = $2)
		ORDER BY trigger_days ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, params.ActiveOnly, params.TriggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	defer rows.Close()

	items := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email template: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// CreateTemplate inserts a new template
func (r *Repository) CreateTemplate(ctx context.Context, p TemplateParams) (Template, error) {
	query := `
		INSERT INTO email_templates (
			name, audience, trigger_type, trigger_days, trigger_hour,
			filter_is_minimusikertag, filter_is_plus, filter_is_schulsong, filter_is_kita,
			active, subject, body_html
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + templateColumns

	t, err := scanTemplate(r.pool.QueryRow(ctx, query, templateArgs(p)...))
	if err != nil {
		return Template{}, mapTemplateWriteError("create", err)
	}
	return t, nil
}

// UpdateTemplate replaces the writable fields of a template
func (r *Repository) UpdateTemplate(ctx context.Context, id uuid.UUID, p TemplateParams) (Template, error) {
	query := `
		UPDATE email_templates SET
			name = $2, audience = $3, trigger_type = $4, trigger_days = $5, trigger_hour = $6,
			filter_is_minimusikertag = $7, filter_is_plus = $8, filter_is_schulsong = $9, filter_is_kita = $10,
			active = $11, subject = $12, body_html = $13, updated_at = now()
		WHERE id = $1
		RETURNING ` + templateColumns

	args := append([]any{id}, templateArgs(p)...)
	t, err := scanTemplate(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, apperr.NotFound(templateNotFoundMsg)
		}
		return Template{}, mapTemplateWriteError("update", err)
	}
	return t, nil
}

// DeleteTemplate removes a template that has no send history
func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("template has send history, deactivate it instead")
		}
		return fmt.Errorf("failed to delete email template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}
	return nil
}

// SeedTemplate inserts a default template when the name is still free.
func (r *Repository) SeedTemplate(ctx context.Context, p TemplateParams) (bool, error) {
	query := `
		INSERT INTO email_templates (
			name, audience, trigger_type, trigger_days, trigger_hour,
			filter_is_minimusikertag, filter_is_plus, filter_is_schulsong, filter_is_kita,
			active, subject, body_html
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (name) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, templateArgs(p)...)
	if err != nil {
		return false, fmt.Errorf("failed to seed email template: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func templateArgs(p TemplateParams) []any {
	return []any{
		p.Name, p.Audience, p.TriggerType, p.TriggerDays, p.TriggerHour,
		p.FilterIsMinimusikertag, p.FilterIsPlus, p.FilterIsSchulsong, p.FilterIsKita,
		p.Active, p.Subject, p.BodyHTML,
	}
}

func mapTemplateWriteError(op string, err error) error {
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("an email template with this name already exists")
	}
	return fmt.Errorf("failed to %s email template: %w", op, err)
}
