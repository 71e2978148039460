// Package web provides the HTTP server and handlers for the task board API.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sheetboard/sheetboard/internal/config"
	"github.com/sheetboard/sheetboard/internal/core"
	"github.com/sheetboard/sheetboard/internal/web/middleware"
)

// Server is the HTTP server for the task board service.
type Server struct {
	cache    *core.Cache
	saver    *core.Saver
	hub      *core.Hub
	launcher *core.Launcher
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cache *core.Cache, saver *core.Saver, hub *core.Hub, launcher *core.Launcher, cfg *config.Config) *Server {
	s := &Server{
		cache:    cache,
		saver:    saver,
		hub:      hub,
		launcher: launcher,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/events", s.handleEvents)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/data", s.handleData)
		r.Post("/save-task", s.handleSaveTask)

		// External application delegation
		r.Post("/open-file", s.handleOpenFile)
		r.Post("/close-file", s.handleCloseFile)
		r.Get("/file-status", s.handleFileStatus)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 for SSE
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
