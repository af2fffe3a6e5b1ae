// Package api provides the HTTP server for the sandbox training pipeline.
// It exposes the cron trigger and the admin sandbox-control endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/battle"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/budget"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/killswitch"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/scenario"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/tactic"
)

// Server is the sandbox HTTP API server.
type Server struct {
	orch     *battle.Orchestrator
	ks       *killswitch.Controller
	injector *scenario.Injector
	promoter *tactic.Service
	governor *budget.Governor

	cronToken      string
	adminToken     string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(orch *battle.Orchestrator, ks *killswitch.Controller, injector *scenario.Injector, promoter *tactic.Service, governor *budget.Governor, cronToken, adminToken string) *Server {
	return &Server{
		orch:       orch,
		ks:         ks,
		injector:   injector,
		promoter:   promoter,
		governor:   governor,
		cronToken:  cronToken,
		adminToken: adminToken,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute)) // batches hold the request open
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "sandbox pipeline is running",
		})
	})

	// Cron trigger — bearer-token protected
	r.Route("/cron", func(r chi.Router) {
		r.Use(requireBearer(s.cronToken))
		r.Post("/train", s.handleTrain)
	})

	// Admin sandbox controls
	r.Route("/sandbox", func(r chi.Router) {
		r.Use(requireBearer(s.adminToken))
		r.Get("/kill-switch", s.handleKillSwitchStatus)
		r.Post("/kill-switch", s.handleKillSwitchAction)
		r.Get("/scenario-status", s.handleScenarioStatus)
		r.Post("/inject-scenario", s.handleInjectScenario)
		r.Post("/resume-scenario", s.handleResumeScenario)
		r.Post("/promote-tactic", s.handlePromoteTactic)
		r.Get("/budget", s.handleBudget)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// requireBearer rejects requests whose Authorization header does not carry
// the expected bearer token. Auth fails before any side effect.
func requireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			auth := r.Header.Get("Authorization")
			if token == "" || !strings.HasPrefix(auth, prefix) ||
				strings.TrimSpace(auth[len(prefix):]) != token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the admin console.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
