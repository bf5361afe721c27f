package api

import (
	"net/http"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Events.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleRegistrationsByEmail(w http.ResponseWriter, r *http.Request) {
	regs, err := s.svc.Events.RegistrationsByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, regs)
}

func (s *Server) handleEventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.svc.Events.RegistrationsForEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, regs)
}

func (s *Server) handleRegisterForEvent(w http.ResponseWriter, r *http.Request) {
	var in service.RegistrationInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	reg, err := s.svc.Events.Register(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, struct {
		Message      string              `json:"message"`
		Registration *model.Registration `json:"registration"`
	}{"Successfully registered for the event", reg})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.createEvent(w, r)
	if ok {
		respondJSON(w, http.StatusCreated, e)
	}
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.updateEvent(w, r)
	if ok {
		respondJSON(w, http.StatusOK, e)
	}
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Events.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Event deleted")
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	var in service.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	e, err := s.svc.Events.Create(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return e, true
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	var in service.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	e, err := s.svc.Events.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return e, true
}
