package api

import (
	"fmt"
	"net/http"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
)

// envelope is the {success, data} shape used by the resource and admin
// routes.
type envelope struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Data    any  `json:"data"`
}

func counted[T any](items []T) envelope {
	n := len(items)
	return envelope{Success: true, Count: &n, Data: items}
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Resources.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	var in service.ResourceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.svc.Resources.Create(r.Context(), userFromContext(r.Context()), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Data: res})
}

func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	var in service.ResourceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.svc.Resources.Update(r.Context(), userFromContext(r.Context()), r.PathValue("id"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: res})
}

func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Resources.Delete(r.Context(), userFromContext(r.Context()), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: struct{}{}})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	form, err := s.spoolForm(w, r, map[string]int{"document": 1})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	file := form.first("document")
	if file == nil {
		s.respondError(w, r, errNoFile("document"))
		return
	}
	doc, err := s.svc.Resources.UploadDocument(r.Context(), *file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{Success: true, Data: doc})
}

func errNoFile(field string) error {
	return fmt.Errorf("%w: no %s uploaded", model.ErrBadRequest, field)
}
