package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhay-kr-0705/GEN-X/internal/imagehost"
	"github.com/abhay-kr-0705/GEN-X/internal/media"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

// GalleryConfig tunes the gallery service.
type GalleryConfig struct {
	UploadTimeout   time.Duration
	MaxCreatePhotos int
	ThumbnailMaxDim int
}

// GalleryService manages galleries and their photos on the image host.
type GalleryService struct {
	galleries GalleryRepository
	host      ImageHost
	pacer     Pacer
	cleanup   *cleaner
	cfg       GalleryConfig
	log       *slog.Logger

	now       func() time.Time
	newID     func() string
	downscale func(src, contentType string, maxDim int) (string, bool, error)
}

// NewGalleryService creates a GalleryService. pacer and tasks may be nil.
func NewGalleryService(galleries GalleryRepository, host ImageHost, tasks TaskQueue, pacer Pacer, cfg GalleryConfig, log *slog.Logger) *GalleryService {
	log = log.With("service", "gallery")
	return &GalleryService{
		galleries: galleries,
		host:      host,
		pacer:     pacer,
		cleanup:   &cleaner{host: host, tasks: tasks, log: log},
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		downscale: media.Downscale,
	}
}

// CreateGalleryInput is a new gallery with its spooled uploads.
type CreateGalleryInput struct {
	Title       string
	Description string
	Thumbnail   *model.LocalFile
	Photos      []model.LocalFile
	CreatedBy   string
}

// List returns every gallery, newest first.
func (s *GalleryService) List(ctx context.Context) ([]model.Gallery, error) {
	galleries, err := s.galleries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list galleries: %w", err)
	}
	return galleries, nil
}

// Get returns one gallery.
func (s *GalleryService) Get(ctx context.Context, id string) (*model.Gallery, error) {
	return s.load(ctx, id)
}

// Create uploads the thumbnail and then the initial photos one at a time and
// stores the gallery. If anything fails, every asset uploaded so far is
// destroyed and nothing is stored.
func (s *GalleryService) Create(ctx context.Context, in CreateGalleryInput) (*model.Gallery, error) {
	spooled := append([]model.LocalFile(nil), in.Photos...)
	if in.Thumbnail != nil {
		spooled = append(spooled, *in.Thumbnail)
	}
	defer func() { s.cleanup.removeFiles(spooled...) }()

	if in.Title == "" || in.Thumbnail == nil {
		return nil, fmt.Errorf("%w: please provide title and thumbnail", model.ErrBadRequest)
	}
	if s.cfg.MaxCreatePhotos > 0 && len(in.Photos) > s.cfg.MaxCreatePhotos {
		return nil, fmt.Errorf("%w: at most %d photos per gallery upload", model.ErrBadRequest, s.cfg.MaxCreatePhotos)
	}

	thumb, resized := s.prepareThumbnail(*in.Thumbnail)
	if resized != nil {
		spooled = append(spooled, *resized)
	}
	asset, err := s.host.Upload(ctx, thumb.Path, s.uploadOptions())
	if err != nil {
		return nil, &model.UploadError{FileName: in.Thumbnail.Name, Err: err}
	}
	uploaded := []string{asset.PublicID}

	photos, ids, err := s.uploadSequential(ctx, in.Photos, 0)
	uploaded = append(uploaded, ids...)
	if err != nil {
		s.cleanup.destroyAssets(ctx, "gallery create failed", uploaded...)
		return nil, err
	}

	g := &model.Gallery{
		ID:                s.newID(),
		Title:             in.Title,
		Description:       in.Description,
		Thumbnail:         asset.SecureURL,
		ThumbnailPublicID: asset.PublicID,
		Photos:            photos,
		CreatedBy:         in.CreatedBy,
	}
	if err := s.save(ctx, g); err != nil {
		s.cleanup.destroyAssets(ctx, "gallery save failed", uploaded...)
		return nil, err
	}
	s.log.Info("gallery created", "gallery", g.ID, "photos", len(photos))
	return g, nil
}

// AddPhotos appends a batch of photos to a gallery. The files are uploaded
// strictly in order; the first failure aborts the batch, destroys what this
// call already uploaded and leaves the stored gallery untouched. Spooled
// files are removed on every path.
func (s *GalleryService) AddPhotos(ctx context.Context, galleryID string, files []model.LocalFile) (*model.Gallery, error) {
	defer s.cleanup.removeFiles(files...)

	g, err := s.load(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", model.ErrBadRequest)
	}

	photos, uploaded, err := s.uploadSequential(ctx, files, len(g.Photos))
	if err != nil {
		s.log.Warn("photo batch aborted", "gallery", galleryID, "uploaded", len(uploaded), "error", err)
		s.cleanup.destroyAssets(ctx, "photo batch failed", uploaded...)
		return nil, err
	}

	g.Photos = append(g.Photos, photos...)
	if err := s.save(ctx, g); err != nil {
		s.cleanup.destroyAssets(ctx, "gallery save failed", uploaded...)
		return nil, err
	}
	s.log.Info("photos added", "gallery", g.ID, "count", len(photos), "total", len(g.Photos))
	return g, nil
}

// RemovePhoto destroys a photo on the image host and then drops it from the
// gallery. If the host refuses, the gallery is left as it was.
func (s *GalleryService) RemovePhoto(ctx context.Context, galleryID, photoID string) (*model.Gallery, error) {
	g, err := s.load(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	idx := g.PhotoIndex(photoID)
	if idx < 0 {
		return nil, fmt.Errorf("photo %w", model.ErrNotFound)
	}
	publicID := g.Photos[idx].PublicID
	if publicID == "" {
		publicID = model.LegacyPublicID(g.Photos[idx].URL)
	}
	if err := s.host.Destroy(ctx, publicID); err != nil {
		return nil, fmt.Errorf("destroy photo %s: %w", publicID, err)
	}
	g.Photos = append(g.Photos[:idx], g.Photos[idx+1:]...)
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ReplaceThumbnail uploads a new thumbnail, stores it and then destroys the
// previous one best-effort.
func (s *GalleryService) ReplaceThumbnail(ctx context.Context, galleryID string, file *model.LocalFile) (*model.Gallery, error) {
	var spooled []model.LocalFile
	if file != nil {
		spooled = append(spooled, *file)
	}
	defer func() { s.cleanup.removeFiles(spooled...) }()

	g, err := s.load(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%w: no thumbnail uploaded", model.ErrBadRequest)
	}

	thumb, resized := s.prepareThumbnail(*file)
	if resized != nil {
		spooled = append(spooled, *resized)
	}
	asset, err := s.host.Upload(ctx, thumb.Path, s.uploadOptions())
	if err != nil {
		return nil, &model.UploadError{FileName: file.Name, Err: err}
	}

	old := g.ThumbnailPublicID
	if old == "" && g.Thumbnail != "" {
		old = model.LegacyPublicID(g.Thumbnail)
	}
	g.Thumbnail = asset.SecureURL
	g.ThumbnailPublicID = asset.PublicID
	if err := s.save(ctx, g); err != nil {
		s.cleanup.destroyAssets(ctx, "thumbnail save failed", asset.PublicID)
		return nil, err
	}
	s.cleanup.destroyAssets(ctx, "thumbnail replaced", old)
	return g, nil
}

// Delete destroys the thumbnail and every photo independently, then removes
// the gallery record. A failed destroy does not stop the others or the
// record deletion.
func (s *GalleryService) Delete(ctx context.Context, galleryID string) error {
	g, err := s.load(ctx, galleryID)
	if err != nil {
		return err
	}
	g.Normalize(s.now())

	ids := make([]string, 0, len(g.Photos)+1)
	ids = append(ids, g.ThumbnailPublicID)
	for _, p := range g.Photos {
		ids = append(ids, p.PublicID)
	}
	s.cleanup.destroyAssets(ctx, "gallery deleted", ids...)

	if err := s.galleries.Delete(ctx, galleryID); err != nil {
		return fmt.Errorf("delete gallery: %w", err)
	}
	s.log.Info("gallery deleted", "gallery", galleryID, "assets", len(ids))
	return nil
}

// UploadImage stores a single image and returns its hosted form.
func (s *GalleryService) UploadImage(ctx context.Context, file model.LocalFile) (imagehost.Asset, error) {
	defer s.cleanup.removeFiles(file)
	asset, err := s.host.Upload(ctx, file.Path, s.uploadOptions())
	if err != nil {
		return imagehost.Asset{}, &model.UploadError{FileName: file.Name, Err: err}
	}
	return asset, nil
}

// BackfillPublicIDs stores every gallery that still has assets without a
// public id, deriving the ids from their URLs. It returns how many galleries
// were rewritten.
func (s *GalleryService) BackfillPublicIDs(ctx context.Context) (int, error) {
	galleries, err := s.galleries.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list galleries: %w", err)
	}
	updated := 0
	for i := range galleries {
		g := &galleries[i]
		if !missingPublicIDs(g) {
			continue
		}
		if err := s.save(ctx, g); err != nil {
			return updated, fmt.Errorf("backfill gallery %s: %w", g.ID, err)
		}
		updated++
	}
	return updated, nil
}

func missingPublicIDs(g *model.Gallery) bool {
	if g.ThumbnailPublicID == "" {
		return true
	}
	for _, p := range g.Photos {
		if p.PublicID == "" {
			return true
		}
	}
	return false
}

// uploadSequential pushes files to the host one after another. It returns
// the photos built so far and the public ids already uploaded, also on
// failure, so the caller can roll them back.
func (s *GalleryService) uploadSequential(ctx context.Context, files []model.LocalFile, firstOrder int) ([]model.Photo, []string, error) {
	photos := make([]model.Photo, 0, len(files))
	uploaded := make([]string, 0, len(files))
	for i, f := range files {
		if s.pacer != nil {
			if err := s.pacer.Wait(ctx); err != nil {
				return photos, uploaded, &model.UploadError{FileName: f.Name, Err: err}
			}
		}
		asset, err := s.host.Upload(ctx, f.Path, s.uploadOptions())
		if err != nil {
			return photos, uploaded, &model.UploadError{FileName: f.Name, Err: err}
		}
		uploaded = append(uploaded, asset.PublicID)
		photos = append(photos, model.Photo{
			ID:       s.newID(),
			URL:      asset.SecureURL,
			PublicID: asset.PublicID,
			Order:    firstOrder + i,
		})
	}
	return photos, uploaded, nil
}

// prepareThumbnail downsizes oversized thumbnails. The second return value is
// the extra file written, if any.
func (s *GalleryService) prepareThumbnail(f model.LocalFile) (model.LocalFile, *model.LocalFile) {
	path, resized, err := s.downscale(f.Path, f.ContentType, s.cfg.ThumbnailMaxDim)
	if err != nil {
		s.log.Warn("thumbnail resize failed, uploading original", "file", f.Name, "error", err)
		return f, nil
	}
	if !resized {
		return f, nil
	}
	out := f
	out.Path = path
	return out, &out
}

func (s *GalleryService) uploadOptions() imagehost.UploadOptions {
	return imagehost.UploadOptions{
		Folder:       model.AssetFolder,
		ResourceType: imagehost.ResourceAuto,
		Timeout:      s.cfg.UploadTimeout,
	}
}

func (s *GalleryService) load(ctx context.Context, id string) (*model.Gallery, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("gallery %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	return g, nil
}

func (s *GalleryService) save(ctx context.Context, g *model.Gallery) error {
	g.Normalize(s.now())
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.galleries.Save(ctx, g); err != nil {
		return fmt.Errorf("save gallery: %w", err)
	}
	return nil
}
