package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const resourceColumns = `id, title, description, url, type, domain, uploaded_by, created_at, updated_at`

// ResourceRepository stores shared learning resources.
type ResourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository constructs a repository.
func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// Create inserts a resource.
func (r *ResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, res.ID, res.Title, res.Description, res.URL, res.Type, res.Domain, res.UploadedBy, res.CreatedAt, res.UpdatedAt)
	return translate("insert resource", err)
}

// Update rewrites a resource. The uploader never changes.
func (r *ResourceRepository) Update(ctx context.Context, res *model.Resource) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE resources
		SET title=$2, description=$3, url=$4, type=$5, domain=$6, updated_at=$7
		WHERE id=$1
	`, res.ID, res.Title, res.Description, res.URL, res.Type, res.Domain, res.UpdatedAt)
	if err != nil {
		return translate("update resource", err)
	}
	return notFoundIfNone("update resource", tag)
}

// Delete removes a resource.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id=$1`, id)
	if err != nil {
		return translate("delete resource", err)
	}
	return notFoundIfNone("delete resource", tag)
}

// GetByID returns a resource by id.
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	res, err := scanResource(r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id=$1`, id))
	if err != nil {
		return nil, translate("select resource", err)
	}
	return res, nil
}

// List returns every resource, newest first.
func (r *ResourceRepository) List(ctx context.Context) ([]model.Resource, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate("list resources", err)
	}
	defer rows.Close()
	out := []model.Resource{}
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, translate("scan resource", err)
		}
		out = append(out, *res)
	}
	return out, translate("list resources", rows.Err())
}

func scanResource(row pgx.Row) (*model.Resource, error) {
	var res model.Resource
	if err := row.Scan(&res.ID, &res.Title, &res.Description, &res.URL, &res.Type, &res.Domain,
		&res.UploadedBy, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}
