// Package api exposes the catalog and progress ledger over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/codecrack/catalog-server/internal/catalog"
	"github.com/codecrack/catalog-server/internal/progress"
)

// HealthCheck reports the liveness of one backing service.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP API server.
type Server struct {
	router  *chi.Mux
	snap    *catalog.Snapshot
	tracker *progress.Tracker
	hub     *hub
	checks  map[string]HealthCheck
}

// NewServer creates the API server over the given catalog snapshot and
// progress tracker. checks are probed by the readiness endpoint.
func NewServer(snap *catalog.Snapshot, tracker *progress.Tracker, checks map[string]HealthCheck) *Server {
	s := &Server{
		snap:    snap,
		tracker: tracker,
		hub:     newHub(),
		checks:  checks,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/questions", s.handleListQuestions)
			r.Get("/questions/random", s.handleRandomQuestion)
			r.Get("/topics", s.handleListTopics)
			r.Get("/partitions", s.handleListPartitions)
			r.Get("/progress", s.handleGetProgress)
			r.Post("/progress", s.handleToggleProgress)
		})

		// The watch stream stays open indefinitely, so no timeout here.
		r.Get("/progress/watch", s.handleWatchProgress)
	})

	s.router = r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
