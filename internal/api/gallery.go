package api

import (
	"net/http"
	"strings"

	"github.com/abhay-kr-0705/GEN-X/internal/service"
)

func (s *Server) handleListGalleries(w http.ResponseWriter, r *http.Request) {
	galleries, err := s.svc.Galleries.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, galleries)
}

func (s *Server) handleGetGallery(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Galleries.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// Spooled files are handed to the gallery service, which removes them once
// the upload is done or has failed.
func (s *Server) handleCreateGallery(w http.ResponseWriter, r *http.Request) {
	form, err := s.spoolForm(w, r, map[string]int{"thumbnail": 1, "photos": s.cfg.MaxGalleryPhotos})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := s.svc.Galleries.Create(r.Context(), service.CreateGalleryInput{
		Title:       strings.TrimSpace(form.values["title"]),
		Description: strings.TrimSpace(form.values["description"]),
		Thumbnail:   form.first("thumbnail"),
		Photos:      form.files["photos"],
		CreatedBy:   userFromContext(r.Context()).ID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	form, err := s.spoolForm(w, r, map[string]int{"image": 1})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	file := form.first("image")
	if file == nil {
		s.respondError(w, r, errNoFile("file"))
		return
	}
	asset, err := s.svc.Galleries.UploadImage(r.Context(), *file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": asset.SecureURL})
}

func (s *Server) handleAddPhotos(w http.ResponseWriter, r *http.Request) {
	form, err := s.spoolForm(w, r, map[string]int{"photos": s.cfg.MaxBatchFiles})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := s.svc.Galleries.AddPhotos(r.Context(), r.PathValue("id"), form.files["photos"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Galleries.RemovePhoto(r.Context(), r.PathValue("id"), r.PathValue("photoId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleReplaceThumbnail(w http.ResponseWriter, r *http.Request) {
	form, err := s.spoolForm(w, r, map[string]int{"thumbnail": 1})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := s.svc.Galleries.ReplaceThumbnail(r.Context(), r.PathValue("id"), form.first("thumbnail"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGallery(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Galleries.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Gallery deleted successfully")
}
