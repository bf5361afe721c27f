package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Role is the authorization level of a member.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is a registered club member.
type User struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	RegistrationNo string     `json:"registration_no"`
	Branch         string     `json:"branch"`
	Semester       string     `json:"semester"`
	Mobile         string     `json:"mobile"`
	IsAdmin        bool       `json:"isAdmin"`
	Role           Role       `json:"role"`
	LastLoginAt    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// HasAdminRights is true for admins and superadmins.
func (u *User) HasAdminRights() bool {
	return u.IsAdmin || u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// Promote grants admin rights without downgrading a superadmin.
func (u *User) Promote() {
	u.IsAdmin = true
	if u.Role != RoleSuperAdmin {
		u.Role = RoleAdmin
	}
}

// Normalize canonicalizes user input before it is validated and stored.
func (u *User) Normalize(now time.Time) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.RegistrationNo = strings.ToUpper(strings.TrimSpace(u.RegistrationNo))
	u.Branch = strings.TrimSpace(u.Branch)
	u.Semester = strings.TrimSpace(u.Semester)
	u.Mobile = DigitsOnly(u.Mobile)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Role == RoleAdmin || u.Role == RoleSuperAdmin {
		u.IsAdmin = true
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// Validate checks a normalized user.
func (u *User) Validate() error {
	if n := len([]rune(u.Name)); n < 2 || n > 50 {
		return fmt.Errorf("%w: name must be between 2 and 50 characters", ErrBadRequest)
	}
	if !ValidEmail(u.Email) {
		return fmt.Errorf("%w: please provide a valid email", ErrBadRequest)
	}
	if u.RegistrationNo == "" {
		return fmt.Errorf("%w: registration number is required", ErrBadRequest)
	}
	if u.Branch == "" {
		return fmt.Errorf("%w: branch is required", ErrBadRequest)
	}
	if u.Semester == "" {
		return fmt.Errorf("%w: semester is required", ErrBadRequest)
	}
	if n := len(u.Mobile); n < 10 || n > 12 {
		return fmt.Errorf("%w: please provide a valid mobile number", ErrBadRequest)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrBadRequest, u.Role)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail accepts a bare address with a dotted domain.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// DigitsOnly strips everything but decimal digits.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
