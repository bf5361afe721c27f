// Package api exposes the club backend over HTTP. Handlers decode requests,
// call the services and map their errors to status codes.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
)

// Services bundles the domain services the API calls.
type Services struct {
	Auth      *service.AuthService
	Events    *service.EventService
	Resources *service.ResourceService
	Galleries *service.GalleryService
	Admin     *service.AdminService
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes HTTP endpoints for the club API.
type Server struct {
	cfg    *config.Config
	svc    Services
	checks map[string]Pinger
	log    *slog.Logger
	logins *ipLimiter

	server *http.Server
	once   sync.Once
}

// New constructs a Server. checks name the dependencies reported by the
// health endpoint.
func New(cfg *config.Config, svc Services, checks map[string]Pinger, log *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		svc:    svc,
		checks: checks,
		log:    log.With("component", "api"),
		logins: newIPLimiter(loginRate, loginBurst),
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return s.corsMiddleware(securityHeaders(s.loggingMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.cfg.Address,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", "address", s.cfg.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.rateLimited(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("PUT /api/auth/update-profile", s.requireAuth(s.handleUpdateProfile))
	mux.HandleFunc("PUT /api/auth/change-password", s.requireAuth(s.handleChangePassword))
	mux.HandleFunc("GET /api/auth/users", s.requireAuth(s.handleListUsers))

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/registrations", s.handleRegistrationsByEmail)
	mux.HandleFunc("GET /api/events/{id}", s.requireAuth(s.handleGetEvent))
	mux.HandleFunc("GET /api/events/{id}/registrations", s.requireAdmin(s.handleEventRegistrations))
	mux.HandleFunc("POST /api/events/{id}/register", s.handleRegisterForEvent)
	mux.HandleFunc("POST /api/events", s.requireAdmin(s.handleCreateEvent))
	mux.HandleFunc("PUT /api/events/{id}", s.requireAdmin(s.handleUpdateEvent))
	mux.HandleFunc("DELETE /api/events/{id}", s.requireAdmin(s.handleDeleteEvent))

	mux.HandleFunc("GET /api/resources", s.handleListResources)
	mux.HandleFunc("POST /api/resources", s.requireAuth(s.handleCreateResource))
	mux.HandleFunc("POST /api/resources/upload", s.requireAuth(s.handleUploadDocument))
	mux.HandleFunc("PUT /api/resources/{id}", s.requireAuth(s.handleUpdateResource))
	mux.HandleFunc("DELETE /api/resources/{id}", s.requireAuth(s.handleDeleteResource))

	mux.HandleFunc("GET /api/gallery", s.handleListGalleries)
	mux.HandleFunc("GET /api/gallery/{id}", s.handleGetGallery)
	mux.HandleFunc("POST /api/gallery", s.requireAuth(s.handleCreateGallery))
	mux.HandleFunc("POST /api/gallery/upload", s.requireAuth(s.handleUploadImage))
	mux.HandleFunc("PUT /api/gallery/{id}/photos", s.requireAuth(s.handleAddPhotos))
	mux.HandleFunc("DELETE /api/gallery/{id}/photos/{photoId}", s.requireAuth(s.handleRemovePhoto))
	mux.HandleFunc("PUT /api/gallery/{id}/thumbnail", s.requireAuth(s.handleReplaceThumbnail))
	mux.HandleFunc("DELETE /api/gallery/{id}", s.requireAuth(s.handleDeleteGallery))

	mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleAdminUsers))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", s.requireAdmin(s.handleSetRole))
	mux.HandleFunc("GET /api/admin/stats", s.requireAdmin(s.handleStats))
	mux.HandleFunc("GET /api/admin/events", s.requireAdmin(s.handleAdminEvents))
	mux.HandleFunc("GET /api/admin/events/{id}/registrations", s.requireAdmin(s.handleAdminEventRegistrations))
	mux.HandleFunc("POST /api/admin/events", s.requireAdmin(s.handleAdminCreateEvent))
	mux.HandleFunc("PUT /api/admin/events/{id}", s.requireAdmin(s.handleAdminUpdateEvent))
	mux.HandleFunc("DELETE /api/admin/events/{id}", s.requireAdmin(s.handleAdminDeleteEvent))

	mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	status := http.StatusOK
	body := map[string]string{"status": "ok", "message": "Server is running"}
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			s.log.Warn("health check failed", "dependency", name, "error", err)
			body[name] = "disconnected"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "connected"
	}
	respondJSON(w, status, body)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, map[string]string{
		"status":  "error",
		"message": "Route " + r.URL.Path + " not found",
	})
}
