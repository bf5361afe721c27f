package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/abhay-kr-0705/GEN-X/internal/imagehost"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
	pdfutil "github.com/abhay-kr-0705/GEN-X/internal/pdf"
)

const (
	resourceFolder     = "genx_resources"
	resourceExcerptLen = 280
)

// ResourceInput is the editable part of a resource.
type ResourceInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url"`
	Type        model.ResourceType `json:"type"`
	Domain      string             `json:"domain"`
}

// UploadedDocument is a stored resource file.
type UploadedDocument struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Pages    int    `json:"pages,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
}

// ResourceService manages shared learning resources. Only the uploader or
// an admin may change a resource.
type ResourceService struct {
	resources ResourceRepository
	host      ImageHost
	cleanup   *cleaner
	timeout   time.Duration
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewResourceService creates a ResourceService.
func NewResourceService(resources ResourceRepository, host ImageHost, uploadTimeout time.Duration, log *slog.Logger) *ResourceService {
	log = log.With("service", "resources")
	return &ResourceService{
		resources: resources,
		host:      host,
		cleanup:   &cleaner{host: host, log: log},
		timeout:   uploadTimeout,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// List returns all resources, newest first.
func (s *ResourceService) List(ctx context.Context) ([]model.Resource, error) {
	out, err := s.resources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return out, nil
}

// Create stores a resource owned by the given user.
func (s *ResourceService) Create(ctx context.Context, owner *model.User, in ResourceInput) (*model.Resource, error) {
	r := &model.Resource{ID: s.newID(), UploadedBy: owner.ID}
	applyResource(r, in)
	r.Normalize(s.now())
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.resources.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return r, nil
}

// Update replaces the editable fields of a resource.
func (s *ResourceService) Update(ctx context.Context, actor *model.User, id string, in ResourceInput) (*model.Resource, error) {
	r, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applyResource(r, in)
	r.Normalize(s.now())
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.resources.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update resource: %w", err)
	}
	return r, nil
}

// Delete removes a resource.
func (s *ResourceService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}

// UploadDocument stores a resource file on the image host. PDFs also get a
// page count and a text excerpt; a PDF that cannot be read is still stored.
func (s *ResourceService) UploadDocument(ctx context.Context, file model.LocalFile) (*UploadedDocument, error) {
	defer s.cleanup.removeFiles(file)

	doc := &UploadedDocument{}
	if file.ContentType == "application/pdf" {
		if summary, err := summarizePDF(file.Path); err != nil {
			s.log.Warn("pdf summary failed", "file", file.Name, "error", err)
		} else {
			doc.Pages = summary.Pages
			doc.Excerpt = summary.Excerpt
		}
	}

	asset, err := s.host.Upload(ctx, file.Path, imagehost.UploadOptions{
		Folder:       resourceFolder,
		ResourceType: imagehost.ResourceRaw,
		Timeout:      s.timeout,
	})
	if err != nil {
		return nil, &model.UploadError{FileName: file.Name, Err: err}
	}
	doc.URL = asset.SecureURL
	doc.PublicID = asset.PublicID
	return doc, nil
}

func summarizePDF(path string) (pdfutil.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return pdfutil.Summary{}, err
	}
	defer f.Close()
	return pdfutil.Summarize(f, resourceExcerptLen)
}

func (s *ResourceService) owned(ctx context.Context, actor *model.User, id string) (*model.Resource, error) {
	r, err := s.resources.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("resource %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if r.UploadedBy != actor.ID && !actor.HasAdminRights() {
		return nil, fmt.Errorf("%w: not authorized to change this resource", model.ErrForbidden)
	}
	return r, nil
}

func applyResource(r *model.Resource, in ResourceInput) {
	r.Title = in.Title
	r.Description = in.Description
	r.URL = in.URL
	r.Type = in.Type
	r.Domain = in.Domain
}
