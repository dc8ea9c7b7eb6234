//
// Tencent is pleased to support the open source community by making trpc-agent-composer available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-composer is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the composer backend over HTTP: evaluation set
// editing and runs, metric configuration, and MCP server validation.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset"
	evalsetinmemory "trpc.group/trpc-go/trpc-agent-composer/evaluation/evalset/inmemory"
	"trpc.group/trpc-go/trpc-agent-composer/evaluation/metric"
	metricinmemory "trpc.group/trpc-go/trpc-agent-composer/evaluation/metric/inmemory"
	"trpc.group/trpc-go/trpc-agent-composer/evaluation/runner"
	"trpc.group/trpc-go/trpc-agent-composer/log"
	"trpc.group/trpc-go/trpc-agent-composer/mcpcheck"
)

// Server serves the composer REST API.
type Server struct {
	router *mux.Router

	evalSetManager evalset.Manager // evalSetManager persists evaluation sets.
	metricManager  metric.Manager  // metricManager persists configured eval metrics per eval set.
	evalRunner     *runner.Runner
	validator      *mcpcheck.Validator

	promRegistry   *prometheus.Registry
	requestCounter *prometheus.CounterVec
	probeCounter   *prometheus.CounterVec
	evalRunCounter prometheus.Counter
}

// Option configures the Server instance.
type Option func(*Server)

// WithEvalSetManager overrides the default in-memory eval set manager.
func WithEvalSetManager(m evalset.Manager) Option {
	return func(s *Server) {
		if m != nil {
			s.evalSetManager = m
		}
	}
}

// WithMetricManager overrides the default in-memory eval metric manager.
func WithMetricManager(m metric.Manager) Option {
	return func(s *Server) {
		if m != nil {
			s.metricManager = m
		}
	}
}

// WithRunner overrides the evaluation runner.
func WithRunner(r *runner.Runner) Option {
	return func(s *Server) {
		if r != nil {
			s.evalRunner = r
		}
	}
}

// WithValidator overrides the MCP validator.
func WithValidator(v *mcpcheck.Validator) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
	}
}

// New creates a Server with the given options. Components not overridden use
// in-memory backends.
func New(opts ...Option) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		evalSetManager: evalsetinmemory.New(),
		metricManager:  metricinmemory.New(),
		validator:      mcpcheck.NewValidator(mcpcheck.NewRegistry()),
		promRegistry:   prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evalRunner == nil {
		s.evalRunner = runner.New(s.evalSetManager, s.metricManager)
	}

	factory := promauto.With(s.promRegistry)
	s.requestCounter = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "composer_http_requests_total",
		Help: "HTTP requests served, by method, route and status code.",
	}, []string{"method", "route", "code"})
	s.probeCounter = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "composer_mcp_probes_total",
		Help: "MCP validation probes issued, by resulting status.",
	}, []string{"status"})
	s.evalRunCounter = factory.NewCounter(prometheus.CounterOpts{
		Name: "composer_evaluation_runs_total",
		Help: "Evaluation runs executed.",
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Content-Disposition"},
	})
	s.router.Use(c.Handler)
	s.router.Use(s.instrument)
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr and serves the API until the listener fails.
func (s *Server) Serve(addr string) error {
	log.Infof("composer server listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}",
		s.handleGetEvaluation).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}",
		s.handlePatchEvaluation).Methods(http.MethodPatch)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/run",
		s.handleRunEvaluation).Methods(http.MethodPost)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/export",
		s.handleExportEvaluation).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/config",
		s.handleGetMetricConfig).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/config",
		s.handleSetMetricConfig).Methods(http.MethodPost)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/config",
		s.handleResetMetricConfig).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/evaluation/metrics", s.handleListMetrics).Methods(http.MethodGet)
	s.router.HandleFunc("/api/mcp/validate", s.handleValidateMCP).Methods(http.MethodPost)

	s.router.Handle("/metrics",
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	preflight := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}", preflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/run", preflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/api/agents/{agent}/evaluations/{evalId}/config", preflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/api/mcp/validate", preflight).Methods(http.MethodOptions)
}

// instrument counts every served request by route template and status code.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.requestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.code)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
