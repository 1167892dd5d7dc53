package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/ups-monitor/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Dashboard
	r.Get("/", s.handleDashboard)
	r.Handle("/static/*", http.StripPrefix("/static", panel.Static(s.staticDir)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", s.handleHistory)
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
	})

	r.Get(s.wsPath(), s.handleWebSocket)

	if s.mcp != nil && s.cfg.MCP.Enabled {
		path := s.cfg.MCP.Path
		if path == "" {
			path = "/mcp"
		}
		r.Handle(path, s.mcp)
	}

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// healthCheckTimeout bounds every dependency check of /api/health.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports uptime and runs every registered dependency check.
// Any failing check turns the status to "degraded" with 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK

	checks := make(map[string]string, len(s.checks))
	for name, hc := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := hc.HealthCheck(ctx)
		cancel()

		if err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":            status,
		"version":           s.version,
		"uptime_seconds":    int64(time.Since(s.startTime).Seconds()),
		"websocket_clients": s.hub.ClientCount(),
		"checks":            checks,
	})
}

// handleMetrics serves the Prometheus registry.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.Handler().ServeHTTP(w, r)
}
