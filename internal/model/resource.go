package model

import (
	"fmt"
	"strings"
	"time"
)

// ResourceType is the kind of material a resource points at.
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceVideo    ResourceType = "video"
	ResourceLink     ResourceType = "link"
)

// Domains lists the subject areas a resource can be filed under.
var Domains = []string{
	"Web Development",
	"AI and ML",
	"Data Science",
	"Cybersecurity",
	"Cloud Computing",
	"DevOps",
	"Blockchain",
	"UI/UX Design",
	"Competitive Programming",
	"Robotics and IoT",
	"Creativity",
	"Outreach",
	"Other",
}

// Resource is a piece of learning material shared by a member.
type Resource struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Type        ResourceType `json:"type"`
	Domain      string       `json:"domain,omitempty"`
	UploadedBy  string       `json:"uploaded_by"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Normalize trims input and stamps timestamps.
func (r *Resource) Normalize(now time.Time) {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.URL = strings.TrimSpace(r.URL)
	r.Domain = strings.TrimSpace(r.Domain)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// Validate checks a normalized resource.
func (r *Resource) Validate() error {
	if r.Title == "" || r.Description == "" || r.URL == "" {
		return fmt.Errorf("%w: title, description and url are required", ErrBadRequest)
	}
	switch r.Type {
	case ResourceDocument, ResourceVideo, ResourceLink:
	default:
		return fmt.Errorf("%w: unknown resource type %q", ErrBadRequest, r.Type)
	}
	if r.Domain != "" && !validDomain(r.Domain) {
		return fmt.Errorf("%w: unknown domain %q", ErrBadRequest, r.Domain)
	}
	if r.UploadedBy == "" {
		return fmt.Errorf("%w: uploader is required", ErrBadRequest)
	}
	return nil
}

func validDomain(d string) bool {
	for _, known := range Domains {
		if known == d {
			return true
		}
	}
	return false
}
