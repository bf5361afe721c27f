// Package service implements the club's use cases on top of the stores, the
// image host and the task queue.
package service

import (
	"context"
	"time"

	"github.com/abhay-kr-0705/GEN-X/internal/imagehost"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
)

// UserRepository persists members.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, t time.Time) (int, error)
}

// EventRepository persists events.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Count(ctx context.Context) (int, error)
	CountUpcoming(ctx context.Context, now time.Time) (int, error)
}

// RegistrationRepository persists event registrations.
type RegistrationRepository interface {
	Create(ctx context.Context, r *model.Registration) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByEmail(ctx context.Context, email string) ([]model.Registration, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}

// ResourceRepository persists shared resources.
type ResourceRepository interface {
	Create(ctx context.Context, r *model.Resource) error
	Update(ctx context.Context, r *model.Resource) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context) ([]model.Resource, error)
}

// GalleryRepository persists gallery documents. Save writes the whole
// document.
type GalleryRepository interface {
	Save(ctx context.Context, g *model.Gallery) error
	GetByID(ctx context.Context, id string) (*model.Gallery, error)
	List(ctx context.Context) ([]model.Gallery, error)
	Delete(ctx context.Context, id string) error
}

// ImageHost stores and removes media.
type ImageHost interface {
	Upload(ctx context.Context, path string, opts imagehost.UploadOptions) (imagehost.Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// TaskQueue hands work to the background worker.
type TaskQueue interface {
	EnqueueAssetDestroy(ctx context.Context, payload queue.DestroyAssetPayload) error
	EnqueueConfirmation(ctx context.Context, payload queue.ConfirmationPayload) error
}

// Pacer spaces out calls to the image host. Wait is called before every
// upload, so the spacing applies to upload starts. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}
