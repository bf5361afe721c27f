package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const userColumns = `id, name, email, password_hash, registration_no, branch, semester, mobile, is_admin, role, last_login_at, created_at, updated_at`

// UserRepository stores members in the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a user. Duplicate email or registration number yields
// model.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.RegistrationNo, u.Branch, u.Semester, u.Mobile,
		u.IsAdmin, u.Role, u.LastLoginAt, u.CreatedAt, u.UpdatedAt)
	return translate("insert user", err)
}

// Update rewrites every mutable column of the user.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name=$2, email=$3, password_hash=$4, registration_no=$5, branch=$6, semester=$7,
			mobile=$8, is_admin=$9, role=$10, last_login_at=$11, updated_at=$12
		WHERE id=$1
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.RegistrationNo, u.Branch, u.Semester, u.Mobile,
		u.IsAdmin, u.Role, u.LastLoginAt, u.UpdatedAt)
	if err != nil {
		return translate("update user", err)
	}
	return notFoundIfNone("update user", tag)
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate("select user", err)
	}
	return u, nil
}

// GetByEmail returns a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate("select user by email", err)
	}
	return u, nil
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate("scan user", err)
		}
		users = append(users, *u)
	}
	return users, translate("list users", rows.Err())
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, translate("count users", err)
}

// CountActiveSince counts users who logged in at or after t.
func (r *UserRepository) CountActiveSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_login_at >= $1`, t).Scan(&n)
	return n, translate("count active users", err)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RegistrationNo, &u.Branch,
		&u.Semester, &u.Mobile, &u.IsAdmin, &u.Role, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
