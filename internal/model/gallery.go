package model

import (
	"fmt"
	"strings"
	"time"
)

// AssetFolder is the image host folder every gallery asset lives in. Legacy
// public ids are derived against it, so it is not configurable.
const AssetFolder = "genx_gallery"

// Photo is a single image embedded in a gallery document.
type Photo struct {
	ID        string    `json:"_id"`
	URL       string    `json:"url"`
	PublicID  string    `json:"public_id"`
	Caption   string    `json:"caption,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Gallery is persisted as one document: the photo list is read, modified and
// written back as a whole.
type Gallery struct {
	ID                string    `json:"_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Thumbnail         string    `json:"thumbnail"`
	ThumbnailPublicID string    `json:"thumbnail_public_id"`
	Photos            []Photo   `json:"photos"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LegacyPublicID derives the image host identifier of an asset uploaded
// before public ids were recorded: the last path segment of the URL, cut at
// its first dot, inside AssetFolder.
func LegacyPublicID(url string) string {
	segments := strings.Split(url, "/")
	last := segments[len(segments)-1]
	name := strings.Split(last, ".")[0]
	return AssetFolder + "/" + name
}

// Normalize fills in what a gallery must carry before it is written: public
// ids for legacy assets, photo defaults and timestamps. It is called by every
// write path.
func (g *Gallery) Normalize(now time.Time) {
	g.Title = strings.TrimSpace(g.Title)
	g.Description = strings.TrimSpace(g.Description)
	if g.ThumbnailPublicID == "" && g.Thumbnail != "" {
		g.ThumbnailPublicID = LegacyPublicID(g.Thumbnail)
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	if g.Photos == nil {
		g.Photos = []Photo{}
	}
	for i := range g.Photos {
		p := &g.Photos[i]
		if p.PublicID == "" && p.URL != "" {
			p.PublicID = LegacyPublicID(p.URL)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	}
}

// Validate checks the invariants of a normalized gallery.
func (g *Gallery) Validate() error {
	if g.Title == "" {
		return fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	if g.Thumbnail == "" {
		return fmt.Errorf("%w: thumbnail is required", ErrBadRequest)
	}
	if g.ThumbnailPublicID == "" {
		return fmt.Errorf("%w: thumbnail public id is required", ErrBadRequest)
	}
	for i, p := range g.Photos {
		if p.URL == "" {
			return fmt.Errorf("%w: photo %d has no url", ErrBadRequest, i)
		}
		if p.PublicID == "" {
			return fmt.Errorf("%w: photo %d has no public id", ErrBadRequest, i)
		}
	}
	return nil
}

// PhotoIndex returns the position of the photo with the given id, or -1.
func (g *Gallery) PhotoIndex(photoID string) int {
	for i, p := range g.Photos {
		if p.ID == photoID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate the photo list freely.
func (g *Gallery) Clone() *Gallery {
	c := *g
	if g.Photos != nil {
		c.Photos = make([]Photo, len(g.Photos))
		copy(c.Photos, g.Photos)
	}
	return &c
}
