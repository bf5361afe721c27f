package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
)

var (
	_ service.UserRepository         = (*UserRepository)(nil)
	_ service.EventRepository        = (*EventRepository)(nil)
	_ service.RegistrationRepository = (*RegistrationRepository)(nil)
	_ service.ResourceRepository     = (*ResourceRepository)(nil)
	_ service.GalleryRepository      = (*GalleryRepository)(nil)
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("op", nil))

	err := translate("select user", pgx.ErrNoRows)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "select user")

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err = translate("insert user", fmt.Errorf("exec: %w", dup))
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Contains(t, err.Error(), "users_email_key")

	other := errors.New("connection reset")
	err = translate("list", other)
	assert.ErrorIs(t, err, other)
	assert.False(t, errors.Is(err, model.ErrNotFound))
}

func TestNotFoundIfNone(t *testing.T) {
	assert.ErrorIs(t, notFoundIfNone("delete", pgconn.NewCommandTag("DELETE 0")), model.ErrNotFound)
	assert.NoError(t, notFoundIfNone("delete", pgconn.NewCommandTag("DELETE 1")))
}

func TestScanGalleryDecodesPhotos(t *testing.T) {
	row := fakeRow{values: []any{
		"g1", "Fest", "", "https://cdn/genx_gallery/t.png", "genx_gallery/t",
		[]byte(`[{"_id":"p1","url":"https://cdn/genx_gallery/a.jpg","public_id":"genx_gallery/a","order":0}]`),
		"u1",
	}}
	g, err := scanGallery(row)
	assert.NoError(t, err)
	assert.Len(t, g.Photos, 1)
	assert.Equal(t, "genx_gallery/a", g.Photos[0].PublicID)
}

// fakeRow fills the leading string and []byte destinations and leaves the
// rest untouched.
type fakeRow struct {
	values []any
}

func (r fakeRow) Scan(dest ...any) error {
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		}
	}
	return nil
}
