package api

import (
	"net/http"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Auth.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counted(users))
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.svc.Admin.SetRole(r.Context(), userFromContext(r.Context()), r.PathValue("id"), in.Role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: u})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Admin.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: st})
}

func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	sums, err := s.svc.Events.Summaries(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counted(sums))
}

func (s *Server) handleAdminEventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.svc.Events.RegistrationsForEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counted(regs))
}

func (s *Server) handleAdminCreateEvent(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.createEvent(w, r); ok {
		respondJSON(w, http.StatusCreated, envelope{Success: true, Data: e})
	}
}

func (s *Server) handleAdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.updateEvent(w, r); ok {
		respondJSON(w, http.StatusOK, envelope{Success: true, Data: e})
	}
}

func (s *Server) handleAdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Events.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: struct{}{}})
}
