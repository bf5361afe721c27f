package model

import (
	"fmt"
	"strings"
	"time"
)

// EventType separates events that are still open from past ones.
type EventType string

const (
	EventUpcoming EventType = "upcoming"
	EventPast     EventType = "past"
)

// RegistrationStatus tracks a registration after sign-up.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusAttended   RegistrationStatus = "attended"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// Event is a club event members can register for.
type Event struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Venue       string     `json:"venue"`
	Type        EventType  `json:"type"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Normalize trims input, defaults the type and stamps timestamps.
func (e *Event) Normalize(now time.Time) {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Venue = strings.TrimSpace(e.Venue)
	if e.Type == "" {
		e.Type = EventUpcoming
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

// Validate checks a normalized event.
func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("%w: please add a title", ErrBadRequest)
	}
	if len([]rune(e.Title)) > 100 {
		return fmt.Errorf("%w: title cannot be more than 100 characters", ErrBadRequest)
	}
	if e.Description == "" {
		return fmt.Errorf("%w: please add a description", ErrBadRequest)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: please add a date", ErrBadRequest)
	}
	if e.EndDate != nil && e.EndDate.Before(e.Date) {
		return fmt.Errorf("%w: end date is before start date", ErrBadRequest)
	}
	if e.Venue == "" {
		return fmt.Errorf("%w: please add a venue", ErrBadRequest)
	}
	if e.Type != EventUpcoming && e.Type != EventPast {
		return fmt.Errorf("%w: unknown event type %q", ErrBadRequest, e.Type)
	}
	return nil
}

// Registration is a sign-up for an event. Registrations are unique per event
// and email.
type Registration struct {
	ID             string             `json:"_id"`
	EventID        string             `json:"event"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	RegistrationNo string             `json:"registration_no"`
	MobileNo       string             `json:"mobile_no"`
	Semester       string             `json:"semester"`
	Status         RegistrationStatus `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// Normalize canonicalizes a registration before validation.
func (r *Registration) Normalize(now time.Time) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.RegistrationNo = strings.ToUpper(strings.TrimSpace(r.RegistrationNo))
	r.MobileNo = DigitsOnly(r.MobileNo)
	r.Semester = strings.TrimSpace(r.Semester)
	if r.Status == "" {
		r.Status = StatusRegistered
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
}

// Validate checks a normalized registration.
func (r *Registration) Validate() error {
	if r.EventID == "" {
		return fmt.Errorf("%w: event is required", ErrBadRequest)
	}
	if r.Name == "" || r.Email == "" || r.RegistrationNo == "" || r.MobileNo == "" || r.Semester == "" {
		return fmt.Errorf("%w: please provide all required fields", ErrBadRequest)
	}
	if !ValidEmail(r.Email) {
		return fmt.Errorf("%w: please provide a valid email", ErrBadRequest)
	}
	if len(r.MobileNo) != 10 {
		return fmt.Errorf("%w: please provide a valid 10-digit mobile number", ErrBadRequest)
	}
	switch r.Status {
	case StatusRegistered, StatusAttended, StatusCancelled:
	default:
		return fmt.Errorf("%w: unknown registration status %q", ErrBadRequest, r.Status)
	}
	return nil
}

// EventSummary is an event with its registration count, as listed on the
// admin dashboard.
type EventSummary struct {
	Event
	RegistrationCount int `json:"registrationCount"`
}

// RegistrationWithEvent pairs a registration with the event it belongs to.
type RegistrationWithEvent struct {
	Registration
	Event *Event `json:"eventDetails,omitempty"`
}
