package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const minPasswordLength = 6

// AuthConfig configures token signing and password hashing.
type AuthConfig struct {
	Secret      []byte
	TokenTTL    time.Duration
	BcryptCost  int
	AdminEmails []string
}

// AuthService handles registration, login, profile changes and JWT tokens.
type AuthService struct {
	users  UserRepository
	cfg    AuthConfig
	admins map[string]bool
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, cfg AuthConfig, log *slog.Logger) *AuthService {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[model.NormalizeEmail(email)] = true
	}
	return &AuthService{
		users:  users,
		cfg:    cfg,
		admins: admins,
		log:    log.With("service", "auth"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RegistrationNo string `json:"registration_no"`
	Branch         string `json:"branch"`
	Semester       string `json:"semester"`
	Mobile         string `json:"mobile"`
}

// ProfileUpdate carries the profile fields a member may change. Nil fields
// are left alone.
type ProfileUpdate struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	RegistrationNo *string `json:"registration_no"`
	Branch         *string `json:"branch"`
	Semester       *string `json:"semester"`
	Mobile         *string `json:"mobile"`
}

// Register creates a member account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	if len(in.Password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", model.ErrBadRequest, minPasswordLength)
	}
	u := &model.User{
		ID:             s.newID(),
		Name:           in.Name,
		Email:          in.Email,
		RegistrationNo: in.RegistrationNo,
		Branch:         in.Branch,
		Semester:       in.Semester,
		Mobile:         in.Mobile,
	}
	u.Normalize(s.now())
	if s.admins[u.Email] {
		u.Promote()
	}
	if err := u.Validate(); err != nil {
		return nil, "", err
	}
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return nil, "", fmt.Errorf("user with this email %w", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, "", fmt.Errorf("user with this email or registration number %w", model.ErrConflict)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.generateJWT(u)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	s.log.Info("user registered", "user", u.ID, "role", u.Role)
	return u, token, nil
}

// Login verifies credentials, records the login and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: please provide email and password", model.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
	}

	now := s.now()
	u.LastLoginAt = &now
	if s.admins[u.Email] {
		u.Promote()
	}
	u.UpdatedAt = now
	if err := s.users.Update(ctx, u); err != nil {
		return nil, "", fmt.Errorf("record login: %w", err)
	}

	token, err := s.generateJWT(u)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return u, token, nil
}

// ValidateToken parses and validates a JWT token string and returns the user
// id from its sub claim.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil {
		return "", model.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", model.ErrUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", model.ErrUnauthorized
	}
	return sub, nil
}

// Authenticate resolves a token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	id, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", model.ErrUnauthorized)
		}
		return nil, err
	}
	return u, nil
}

// Me returns the current user, granting admin rights to configured admin
// addresses.
func (s *AuthService) Me(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if s.admins[u.Email] && !u.HasAdminRights() {
		u.Promote()
		u.UpdatedAt = s.now()
		if err := s.users.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of upd.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Name, upd.Name)
	set(&u.Email, upd.Email)
	set(&u.RegistrationNo, upd.RegistrationNo)
	set(&u.Branch, upd.Branch)
	set(&u.Semester, upd.Semester)
	set(&u.Mobile, upd.Mobile)
	u.Normalize(s.now())
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("email or registration number %w", model.ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", model.ErrBadRequest)
	}
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", model.ErrBadRequest, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ListUsers returns every member.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AuthService) generateJWT(u *model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.Secret)
}
