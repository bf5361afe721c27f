package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const galleryColumns = `id, title, description, thumbnail, thumbnail_public_id, photos, created_by, created_at, updated_at`

// GalleryRepository stores gallery documents. The photo list lives in a JSONB
// column and is always written back whole.
type GalleryRepository struct {
	pool *pgxpool.Pool
}

// NewGalleryRepository constructs a repository.
func NewGalleryRepository(pool *pgxpool.Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

// Save inserts the gallery or replaces the stored document. Concurrent saves
// of the same gallery are last-write-wins.
func (r *GalleryRepository) Save(ctx context.Context, g *model.Gallery) error {
	photos, err := json.Marshal(g.Photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO galleries (`+galleryColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			thumbnail = EXCLUDED.thumbnail,
			thumbnail_public_id = EXCLUDED.thumbnail_public_id,
			photos = EXCLUDED.photos,
			updated_at = EXCLUDED.updated_at
	`, g.ID, g.Title, g.Description, g.Thumbnail, g.ThumbnailPublicID, string(photos), g.CreatedBy, g.CreatedAt, g.UpdatedAt)
	return translate("save gallery", err)
}

// GetByID returns a gallery by id.
func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*model.Gallery, error) {
	g, err := scanGallery(r.pool.QueryRow(ctx, `SELECT `+galleryColumns+` FROM galleries WHERE id=$1`, id))
	if err != nil {
		return nil, translate("select gallery", err)
	}
	return g, nil
}

// List returns every gallery, newest first.
func (r *GalleryRepository) List(ctx context.Context) ([]model.Gallery, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+galleryColumns+` FROM galleries ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate("list galleries", err)
	}
	defer rows.Close()
	out := []model.Gallery{}
	for rows.Next() {
		g, err := scanGallery(rows)
		if err != nil {
			return nil, translate("scan gallery", err)
		}
		out = append(out, *g)
	}
	return out, translate("list galleries", rows.Err())
}

// Delete removes a gallery record.
func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM galleries WHERE id=$1`, id)
	if err != nil {
		return translate("delete gallery", err)
	}
	return notFoundIfNone("delete gallery", tag)
}

func scanGallery(row pgx.Row) (*model.Gallery, error) {
	var (
		g      model.Gallery
		photos []byte
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Thumbnail, &g.ThumbnailPublicID, &photos,
		&g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Photos = []model.Photo{}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &g.Photos); err != nil {
			return nil, fmt.Errorf("decode photos of %s: %w", g.ID, err)
		}
	}
	return &g, nil
}
