// Package storage contains the in-memory persistence layer used when no
// database is configured and in tests. Go keeps each package in its own
// folder; files in the folder share a namespace.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

// MemoryStore keeps every collection in maps guarded by one RWMutex. RWMutex
// lets us differentiate read locks (multiple concurrent readers) from write
// locks (single writer), which suits the request-heavy nature of APIs.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]model.User
	events        map[string]model.Event
	registrations map[string]model.Registration
	resources     map[string]model.Resource
	galleries     map[string]*model.Gallery
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]model.User),
		events:        make(map[string]model.Event),
		registrations: make(map[string]model.Registration),
		resources:     make(map[string]model.Resource),
		galleries:     make(map[string]*model.Gallery),
	}
}

// Users returns the user collection.
func (m *MemoryStore) Users() *Users { return &Users{m} }

// Events returns the event collection.
func (m *MemoryStore) Events() *Events { return &Events{m} }

// Registrations returns the registration collection.
func (m *MemoryStore) Registrations() *Registrations { return &Registrations{m} }

// Resources returns the resource collection.
func (m *MemoryStore) Resources() *Resources { return &Resources{m} }

// Galleries returns the gallery collection.
func (m *MemoryStore) Galleries() *Galleries { return &Galleries{m} }

// Ping always succeeds; it lets the store stand in for a database in health
// checks.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, model.ErrNotFound)
}

// Users implements the user repository.
type Users struct{ m *MemoryStore }

func (s *Users) Create(ctx context.Context, u *model.User) error {
	s.m.mu.Lock()
	// defer schedules code to run when the function returns, guaranteeing the
	// mutex unlock even if the function exits early.
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[u.ID]; ok {
		return fmt.Errorf("user id: %w", model.ErrConflict)
	}
	if err := s.uniqueUser(u); err != nil {
		return err
	}
	s.m.users[u.ID] = *u
	return nil
}

func (s *Users) Update(ctx context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[u.ID]; !ok {
		return notFound("user")
	}
	if err := s.uniqueUser(u); err != nil {
		return err
	}
	s.m.users[u.ID] = *u
	return nil
}

// uniqueUser enforces the email and registration number constraints. The
// caller holds the write lock.
func (s *Users) uniqueUser(u *model.User) error {
	for id, other := range s.m.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return fmt.Errorf("email: %w", model.ErrConflict)
		}
		if other.RegistrationNo == u.RegistrationNo {
			return fmt.Errorf("registration number: %w", model.ErrConflict)
		}
	}
	return nil
}

func (s *Users) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.m.mu.RLock()
	// Read locks allow multiple concurrent readers, improving throughput.
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]model.User, 0, len(s.m.users))
	for _, u := range s.m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Users) Count(ctx context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.m.users), nil
}

func (s *Users) CountActiveSince(ctx context.Context, t time.Time) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	n := 0
	for _, u := range s.m.users {
		if u.LastLoginAt != nil && !u.LastLoginAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// Events implements the event repository.
type Events struct{ m *MemoryStore }

func (s *Events) Create(ctx context.Context, e *model.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[e.ID]; ok {
		return fmt.Errorf("event id: %w", model.ErrConflict)
	}
	s.m.events[e.ID] = *e
	return nil
}

func (s *Events) Update(ctx context.Context, e *model.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[e.ID]; !ok {
		return notFound("event")
	}
	s.m.events[e.ID] = *e
	return nil
}

// Delete removes the event and, like the database cascade, its
// registrations.
func (s *Events) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[id]; !ok {
		return notFound("event")
	}
	delete(s.m.events, id)
	for rid, r := range s.m.registrations {
		if r.EventID == id {
			delete(s.m.registrations, rid)
		}
	}
	return nil
}

func (s *Events) GetByID(ctx context.Context, id string) (*model.Event, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	e, ok := s.m.events[id]
	if !ok {
		return nil, notFound("event")
	}
	return &e, nil
}

func (s *Events) List(ctx context.Context) ([]model.Event, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]model.Event, 0, len(s.m.events))
	for _, e := range s.m.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Events) Count(ctx context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.m.events), nil
}

func (s *Events) CountUpcoming(ctx context.Context, now time.Time) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	n := 0
	for _, e := range s.m.events {
		if !e.Date.Before(now) {
			n++
		}
	}
	return n, nil
}

// Registrations implements the registration repository.
type Registrations struct{ m *MemoryStore }

func (s *Registrations) Create(ctx context.Context, r *model.Registration) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[r.EventID]; !ok {
		return notFound("event")
	}
	for _, other := range s.m.registrations {
		if other.EventID == r.EventID && other.Email == r.Email {
			return fmt.Errorf("registration: %w", model.ErrConflict)
		}
	}
	s.m.registrations[r.ID] = *r
	return nil
}

func (s *Registrations) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	out := s.filter(func(r model.Registration) bool { return r.EventID == eventID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Registrations) ListByEmail(ctx context.Context, email string) ([]model.Registration, error) {
	out := s.filter(func(r model.Registration) bool { return r.Email == email })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Registrations) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return len(s.filter(func(r model.Registration) bool { return r.EventID == eventID })), nil
}

func (s *Registrations) DeleteByEvent(ctx context.Context, eventID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, r := range s.m.registrations {
		if r.EventID == eventID {
			delete(s.m.registrations, id)
		}
	}
	return nil
}

func (s *Registrations) filter(keep func(model.Registration) bool) []model.Registration {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := []model.Registration{}
	for _, r := range s.m.registrations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Resources implements the resource repository.
type Resources struct{ m *MemoryStore }

func (s *Resources) Create(ctx context.Context, r *model.Resource) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.resources[r.ID]; ok {
		return fmt.Errorf("resource id: %w", model.ErrConflict)
	}
	s.m.resources[r.ID] = *r
	return nil
}

func (s *Resources) Update(ctx context.Context, r *model.Resource) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.resources[r.ID]; !ok {
		return notFound("resource")
	}
	s.m.resources[r.ID] = *r
	return nil
}

func (s *Resources) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.resources[id]; !ok {
		return notFound("resource")
	}
	delete(s.m.resources, id)
	return nil
}

func (s *Resources) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.resources[id]
	if !ok {
		return nil, notFound("resource")
	}
	return &r, nil
}

func (s *Resources) List(ctx context.Context) ([]model.Resource, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]model.Resource, 0, len(s.m.resources))
	for _, r := range s.m.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Galleries implements the gallery repository. Documents are cloned on the
// way in and out so callers never share a photo slice with the store.
type Galleries struct{ m *MemoryStore }

func (s *Galleries) Save(ctx context.Context, g *model.Gallery) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.galleries[g.ID] = g.Clone()
	return nil
}

func (s *Galleries) GetByID(ctx context.Context, id string) (*model.Gallery, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	g, ok := s.m.galleries[id]
	if !ok {
		return nil, notFound("gallery")
	}
	return g.Clone(), nil
}

func (s *Galleries) List(ctx context.Context) ([]model.Gallery, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]model.Gallery, 0, len(s.m.galleries))
	for _, g := range s.m.galleries {
		out = append(out, *g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Galleries) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.galleries[id]; !ok {
		return notFound("gallery")
	}
	delete(s.m.galleries, id)
	return nil
}
