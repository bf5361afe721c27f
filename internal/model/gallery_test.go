package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyPublicID(t *testing.T) {
	cases := map[string]string{
		"https://host/x/y/genx_gallery/abc123.jpg":      "genx_gallery/abc123",
		"https://host/v1/genx_gallery/photo.final.webp": "genx_gallery/photo",
		"https://host/noext":                            "genx_gallery/noext",
		"abc.png":                                       "genx_gallery/abc",
	}
	for url, want := range cases {
		assert.Equal(t, want, LegacyPublicID(url), url)
	}
}

func TestGalleryNormalizeBackfillsPublicIDs(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	g := &Gallery{
		Title:     "  Hackathon  ",
		Thumbnail: "https://host/genx_gallery/thumb.png",
		Photos: []Photo{
			{ID: "1", URL: "https://host/genx_gallery/one.jpg"},
			{ID: "2", URL: "https://host/genx_gallery/two.jpg", PublicID: "genx_gallery/kept"},
		},
	}

	g.Normalize(now)

	assert.Equal(t, "Hackathon", g.Title)
	assert.Equal(t, "genx_gallery/thumb", g.ThumbnailPublicID)
	assert.Equal(t, "genx_gallery/one", g.Photos[0].PublicID)
	assert.Equal(t, "genx_gallery/kept", g.Photos[1].PublicID)
	assert.Equal(t, now, g.CreatedAt)
	assert.Equal(t, now, g.Photos[0].CreatedAt)
	require.NoError(t, g.Validate())
}

func TestGalleryValidate(t *testing.T) {
	g := &Gallery{Thumbnail: "https://host/a.png"}
	g.Normalize(time.Now())
	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))

	g = &Gallery{Title: "t"}
	g.Normalize(time.Now())
	assert.ErrorIs(t, g.Validate(), ErrBadRequest)
}

func TestGalleryCloneIsDeep(t *testing.T) {
	g := &Gallery{Photos: []Photo{{ID: "a"}}}
	c := g.Clone()
	c.Photos[0].ID = "b"
	c.Photos = append(c.Photos, Photo{ID: "c"})
	assert.Equal(t, "a", g.Photos[0].ID)
	assert.Len(t, g.Photos, 1)
	assert.Equal(t, 0, g.PhotoIndex("a"))
	assert.Equal(t, -1, g.PhotoIndex("zzz"))
}

func TestUploadErrorMessage(t *testing.T) {
	cause := errors.New("timeout")
	err := &UploadError{FileName: "a.jpg", Err: cause}
	assert.Equal(t, "Failed to upload a.jpg: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}
