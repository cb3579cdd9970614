// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the JSON HTTP interface of the daemon.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/memorec/internal/account"
	"github.com/ManuGH/memorec/internal/api/middleware"
	"github.com/ManuGH/memorec/internal/health"
	"github.com/ManuGH/memorec/internal/recorder"
	"github.com/ManuGH/memorec/internal/recordings"
)

// Config holds the HTTP surface settings.
type Config struct {
	// RecordingsDir bounds which files the audio endpoint may serve.
	RecordingsDir string
	// AuthRateLimit is requests per minute per IP on account routes; 0 disables.
	AuthRateLimit int
	// TracingService enables otelhttp spans under this service name.
	TracingService string
	// DisableMetrics drops the Prometheus middleware and /metrics.
	DisableMetrics bool
	// Health serves /healthz and /readyz; nil means a manager without checks.
	Health *health.Manager
}

// Server wires the services to HTTP routes.
type Server struct {
	cfg      Config
	registry *recordings.Registry
	accounts *account.Service
	recorder *recorder.Service
	router   chi.Router
}

// New builds the router. All services are required.
func New(cfg Config, registry *recordings.Registry, accounts *account.Service, rec *recorder.Service) *Server {
	if cfg.Health == nil {
		cfg.Health = health.NewManager("")
	}
	s := &Server{
		cfg:      cfg,
		registry: registry,
		accounts: accounts,
		recorder: rec,
	}
	cfg.Health.SetDetails(s.healthDetails)
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  !s.cfg.DisableMetrics,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	r.Get("/healthz", s.cfg.Health.ServeHealth)
	r.Get("/readyz", s.cfg.Health.ServeReady)
	if !s.cfg.DisableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/account", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthRateLimit(s.cfg.AuthRateLimit))
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
				r.Post("/reset", s.handleResetPassword)
			})
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
		})

		r.Route("/recordings", func(r chi.Router) {
			r.Get("/", s.handleListRecordings)
			r.Post("/", s.handleAddRecording)
			r.Delete("/", s.handleRemoveRecording)
			r.Post("/sync", s.handleSync)
			r.Get("/audio", s.handleAudio)
		})

		r.Route("/capture", func(r chi.Router) {
			r.Get("/", s.handleCaptureStatus)
			r.Post("/start", s.handleCaptureStart)
			r.Post("/stop", s.handleCaptureStop)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route_not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed on this route")
	})
	return r
}

func (s *Server) healthDetails() map[string]any {
	return map[string]any{
		"recordings": s.registry.Len(),
		"dirty":      s.registry.Dirty(),
		"recording":  s.recorder.Status().Recording,
	}
}
