// Package server exposes a simulator.Scheduler over the scheduler HTTP
// contract: every response is a {code, message, data} envelope and
// failures are answered with HTTP 400 and a non-zero code.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/schedview/internal/config"
	"github.com/me/schedview/internal/simulator"
)

// Server is the schedsim REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.SimConfig
	startTime time.Time
	sched     *simulator.Scheduler
	cors      bool
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithCORS allows cross-origin requests from any origin, for browser
// front ends served elsewhere.
func WithCORS() Option {
	return func(s *Server) {
		s.cors = true
	}
}

// New creates a Server with all routes registered. A nil sched gets a fresh
// scheduler built from cfg.
func New(cfg config.SimConfig, sched *simulator.Scheduler, logger *slog.Logger, opts ...Option) *Server {
	if sched == nil {
		sched = simulator.New(simulator.Params{
			Processors:   cfg.Processors,
			MaxProcesses: cfg.MaxProcesses,
			MemorySize:   cfg.MemorySize,
			OSSize:       cfg.OSSize,
		})
	}
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		sched:     sched,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Scheduler returns the scheduler the server drives.
func (s *Server) Scheduler() *simulator.Scheduler {
	return s.sched
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	if s.cors {
		r.Use(corsMiddleware)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/status", s.handleStatus)
	r.Post("/process", s.handleCreateProcess)
	r.Post("/schedule", s.handleSchedule)
	r.Post("/suspend/{pid}", s.handleSuspend)
	r.Post("/resume/{pid}", s.handleResume)
	r.Get("/processor-status", s.handleProcessorStatus)
	r.Post("/reset", s.handleReset)
}
