package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// healthCheckTimeout bounds the database check behind /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Client address must be settled before anything reads it.
	if s.cfg.API.TrustProxy {
		r.Use(middleware.RealIP)
	}

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	// Monitoring (no access gate)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Post(s.cfg.Gateway.Route, s.handleGateway)

		r.Group(func(r chi.Router) {
			r.Use(s.accessMiddleware)

			r.Get("/functions", s.handleFunctions)
			r.Get("/executions", s.handleListExecutions)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"code":    ErrCodeUnavailable,
			"version": s.version,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// FunctionInfo describes one registered SQL function.
type FunctionInfo struct {
	Name          string `json:"name"`
	Signature     string `json:"signature"`
	Documentation string `json:"documentation,omitempty"`
}

// handleFunctions lists the SQL functions available to queries.
func (s *Server) handleFunctions(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.Names()
	out := make([]FunctionInfo, 0, len(names))
	for _, name := range names {
		sig, _ := s.registry.Signature(name)
		doc, _ := s.registry.Documentation(name)
		out = append(out, FunctionInfo{Name: name, Signature: sig, Documentation: doc})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(out),
		"functions": out,
	})
}
