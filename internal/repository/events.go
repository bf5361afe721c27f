package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const eventColumns = `id, title, description, date, end_date, venue, type, created_at, updated_at`

// EventRepository stores events.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository constructs a repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ID, e.Title, e.Description, e.Date, e.EndDate, e.Venue, e.Type, e.CreatedAt, e.UpdatedAt)
	return translate("insert event", err)
}

// Update rewrites an event.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title=$2, description=$3, date=$4, end_date=$5, venue=$6, type=$7, updated_at=$8
		WHERE id=$1
	`, e.ID, e.Title, e.Description, e.Date, e.EndDate, e.Venue, e.Type, e.UpdatedAt)
	if err != nil {
		return translate("update event", err)
	}
	return notFoundIfNone("update event", tag)
}

// Delete removes an event. Its registrations go with it through the foreign
// key cascade.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return translate("delete event", err)
	}
	return notFoundIfNone("delete event", tag)
}

// GetByID returns an event by id.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id))
	if err != nil {
		return nil, translate("select event", err)
	}
	return e, nil
}

// List returns all events ordered by start date.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC`)
	if err != nil {
		return nil, translate("list events", err)
	}
	defer rows.Close()
	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, translate("scan event", err)
		}
		events = append(events, *e)
	}
	return events, translate("list events", rows.Err())
}

// Count returns the number of events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, translate("count events", err)
}

// CountUpcoming counts events starting at or after now.
func (r *EventRepository) CountUpcoming(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE date >= $1`, now).Scan(&n)
	return n, translate("count upcoming events", err)
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.EndDate, &e.Venue, &e.Type, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

const registrationColumns = `id, event_id, name, email, registration_no, mobile_no, semester, status, created_at`

// RegistrationRepository stores event registrations.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository constructs a repository.
func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Create inserts a registration. A second registration with the same email
// for the same event yields model.ErrConflict.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_registrations (`+registrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, reg.ID, reg.EventID, reg.Name, reg.Email, reg.RegistrationNo, reg.MobileNo, reg.Semester, reg.Status, reg.CreatedAt)
	return translate("insert registration", err)
}

// ListByEvent returns the registrations of one event, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return r.list(ctx, `SELECT `+registrationColumns+` FROM event_registrations WHERE event_id=$1 ORDER BY created_at DESC`, eventID)
}

// ListByEmail returns every registration made with the address, newest first.
func (r *RegistrationRepository) ListByEmail(ctx context.Context, email string) ([]model.Registration, error) {
	return r.list(ctx, `SELECT `+registrationColumns+` FROM event_registrations WHERE email=$1 ORDER BY created_at DESC`, email)
}

// CountByEvent returns how many registrations an event has.
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id=$1`, eventID).Scan(&n)
	return n, translate("count registrations", err)
}

// DeleteByEvent removes the registrations of an event.
func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_registrations WHERE event_id=$1`, eventID)
	return translate("delete registrations", err)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, arg string) ([]model.Registration, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, translate("list registrations", err)
	}
	defer rows.Close()
	regs := []model.Registration{}
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.Name, &reg.Email, &reg.RegistrationNo,
			&reg.MobileNo, &reg.Semester, &reg.Status, &reg.CreatedAt); err != nil {
			return nil, translate("scan registration", err)
		}
		regs = append(regs, reg)
	}
	return regs, translate("list registrations", rows.Err())
}
