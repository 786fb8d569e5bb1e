package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/michaelbrown/polyrun/internal/config"
	"github.com/michaelbrown/polyrun/internal/dispatch"
)

// Server is the HTTP front end of the dispatcher.
type Server struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	runs       *RunTracker
	logger     *slog.Logger
	router     chi.Router
	http       *http.Server
}

// New creates a Server.
func New(cfg *config.Config, d *dispatch.Dispatcher, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		runs:       NewRunTracker(),
		logger:     logger,
		router:     chi.NewRouter(),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		// WebSocket (no JSON content-type)
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)

			r.Get("/health", s.handleHealth)

			r.Get("/languages", s.handleListLanguages)
			r.Get("/languages/{key}", s.handleGetLanguage)

			r.Post("/execute", s.handleExecute)
			r.Get("/runs", s.handleListRuns)
		})
	})

	// Same-origin path to the remote service for browser clients, which
	// cannot call it directly.
	if s.cfg.Server.ProxyPath != "" && s.cfg.Server.ProxyTarget != "" {
		proxy, err := newRemoteProxy(s.logger, s.cfg.Server.ProxyTarget)
		if err != nil {
			return fmt.Errorf("creating remote proxy: %w", err)
		}
		r.Post(s.cfg.Server.ProxyPath, proxy.ServeHTTP)
	}
	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("polyrun server starting", "url", "http://localhost"+addr)
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests. Runs already dispatched are not
// aborted; Shutdown waits for their handlers up to the timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server", "in_flight", len(s.runs.List()))

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
