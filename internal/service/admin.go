package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const activeWindow = 30 * 24 * time.Hour

// Stats summarizes the club for the admin dashboard.
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveUsers    int `json:"activeUsers"`
	TotalEvents    int `json:"totalEvents"`
	UpcomingEvents int `json:"upcomingEvents"`
}

// AdminService backs the admin dashboard.
type AdminService struct {
	users  UserRepository
	events EventRepository
	now    func() time.Time
}

// NewAdminService creates an AdminService.
func NewAdminService(users UserRepository, events EventRepository) *AdminService {
	return &AdminService{
		users:  users,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetRole changes a member's role. Only superadmins may call it.
func (s *AdminService) SetRole(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error) {
	if actor.Role != model.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: only superadmins can change roles", model.ErrForbidden)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", model.ErrBadRequest)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = role
	u.IsAdmin = role != model.RoleUser
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// MakeAdmin promotes the member with the given email to role, which must
// grant admin rights.
func (s *AdminService) MakeAdmin(ctx context.Context, email string, role model.Role) (*model.User, error) {
	if role != model.RoleAdmin && role != model.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: role must be admin or superadmin", model.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	u.Role = role
	u.IsAdmin = true
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Stats counts users and events.
func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	now := s.now()
	var st Stats
	var err error
	if st.TotalUsers, err = s.users.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	if st.ActiveUsers, err = s.users.CountActiveSince(ctx, now.Add(-activeWindow)); err != nil {
		return Stats{}, fmt.Errorf("count active users: %w", err)
	}
	if st.TotalEvents, err = s.events.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count events: %w", err)
	}
	if st.UpcomingEvents, err = s.events.CountUpcoming(ctx, now); err != nil {
		return Stats{}, fmt.Errorf("count upcoming events: %w", err)
	}
	return st, nil
}
