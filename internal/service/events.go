package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

// EventInput is the editable part of an event.
type EventInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	EndDate     *time.Time      `json:"end_date"`
	Venue       string          `json:"venue"`
	Type        model.EventType `json:"type"`
}

// RegistrationInput is a public event sign-up.
type RegistrationInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	RegistrationNo string `json:"registration_no"`
	MobileNo       string `json:"mobile_no"`
	Semester       string `json:"semester"`
}

// EventService manages events and registrations.
type EventService struct {
	events        EventRepository
	registrations RegistrationRepository
	tasks         TaskQueue
	log           *slog.Logger
	now           func() time.Time
	newID         func() string
}

// NewEventService creates an EventService. tasks may be nil, in which case
// no confirmation mail is sent.
func NewEventService(events EventRepository, registrations RegistrationRepository, tasks TaskQueue, log *slog.Logger) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		tasks:         tasks,
		log:           log.With("service", "events"),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// List returns all events by start date.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("event %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Create stores a new event.
func (s *EventService) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	e := &model.Event{ID: s.newID()}
	apply(e, in)
	e.Normalize(s.now())
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// Update replaces the editable fields of an event.
func (s *EventService) Update(ctx context.Context, id string, in EventInput) (*model.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(e, in)
	e.Normalize(s.now())
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Delete removes an event together with its registrations.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.registrations.DeleteByEvent(ctx, id); err != nil {
		return fmt.Errorf("delete registrations: %w", err)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// Register signs someone up for an event and queues a confirmation mail.
// Failing to queue the mail does not fail the registration.
func (s *EventService) Register(ctx context.Context, eventID string, in RegistrationInput) (*model.Registration, error) {
	e, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	r := &model.Registration{
		ID:             s.newID(),
		EventID:        e.ID,
		Name:           in.Name,
		Email:          in.Email,
		RegistrationNo: in.RegistrationNo,
		MobileNo:       in.MobileNo,
		Semester:       in.Semester,
	}
	r.Normalize(s.now())
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.registrations.Create(ctx, r); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("registration for this event with this email %w", model.ErrConflict)
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	if s.tasks != nil {
		payload := queue.ConfirmationPayload{
			RegistrationID: r.ID,
			Name:           r.Name,
			Email:          r.Email,
			RegistrationNo: r.RegistrationNo,
			EventTitle:     e.Title,
			EventDate:      e.Date,
			EventEndDate:   e.EndDate,
			Venue:          e.Venue,
		}
		if err := s.tasks.EnqueueConfirmation(ctx, payload); err != nil {
			s.log.Error("queue confirmation mail", "registration", r.ID, "error", err)
		}
	}
	return r, nil
}

// RegistrationsByEmail returns the registrations made with an address whose
// event still exists.
func (s *EventService) RegistrationsByEmail(ctx context.Context, email string) ([]model.RegistrationWithEvent, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrBadRequest)
	}
	regs, err := s.registrations.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	out := make([]model.RegistrationWithEvent, 0, len(regs))
	for _, r := range regs {
		e, err := s.events.GetByID(ctx, r.EventID)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get event: %w", err)
		}
		out = append(out, model.RegistrationWithEvent{Registration: r, Event: e})
	}
	return out, nil
}

// RegistrationsForEvent returns the registrations of an event, newest first.
func (s *EventService) RegistrationsForEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// Summaries returns every event with its registration count, latest first.
func (s *EventService) Summaries(ctx context.Context) ([]model.EventSummary, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventSummary, len(events))
	for i := range events {
		n, err := s.registrations.CountByEvent(ctx, events[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count registrations: %w", err)
		}
		// Reverse to latest first.
		out[len(events)-1-i] = model.EventSummary{Event: events[i], RegistrationCount: n}
	}
	return out, nil
}

func apply(e *model.Event, in EventInput) {
	e.Title = in.Title
	e.Description = in.Description
	e.Date = in.Date
	e.EndDate = in.EndDate
	e.Venue = in.Venue
	e.Type = in.Type
}

// Seed creates the given events. With reset, every existing event and its
// registrations are removed first.
func (s *EventService) Seed(ctx context.Context, inputs []EventInput, reset bool) ([]model.Event, error) {
	if reset {
		existing, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if err := s.Delete(ctx, e.ID); err != nil {
				return nil, fmt.Errorf("reset event %s: %w", e.ID, err)
			}
		}
	}
	created := make([]model.Event, 0, len(inputs))
	for _, in := range inputs {
		e, err := s.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", in.Title, err)
		}
		created = append(created, *e)
	}
	return created, nil
}
