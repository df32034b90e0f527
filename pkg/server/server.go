// Package server exposes graph solving over HTTP.
//
// # Routes
//
//	GET    /healthz                          liveness
//	GET    /version                          build information
//	GET    /metrics                          Prometheus metrics (when enabled)
//	GET    /v1/components                    registered component types
//	POST   /v1/solve                         run the pipeline on a document
//	POST   /v1/render/{format}               solve and return one diagram
//	GET    /v1/documents                     stored document keys
//	GET    /v1/documents/{key}               fetch a stored document
//	PUT    /v1/documents/{key}               store a document
//	DELETE /v1/documents/{key}               delete a stored document
//	POST   /v1/sessions                      open a live session on a document
//	GET    /v1/sessions/{id}                 session document and outputs
//	POST   /v1/sessions/{id}/sets            override literals, quick-solve
//	POST   /v1/sessions/{id}/connections     link two slots, quick-solve
//	DELETE /v1/sessions/{id}/connections     unlink two slots, quick-solve
//	DELETE /v1/sessions/{id}                 close a session
//
// Errors are JSON objects {"code": ..., "error": ...} with the HTTP status
// derived from the error code.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/metrics"
	"github.com/matzehuels/treeflow/pkg/observability"
	"github.com/matzehuels/treeflow/pkg/pipeline"
	"github.com/matzehuels/treeflow/pkg/session"
	"github.com/matzehuels/treeflow/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Config wires the server's dependencies. Nil fields get defaults.
type Config struct {
	Registry *components.Registry
	Docs     store.Store
	Cache    store.Store
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Logger   *log.Logger
	Timeout  time.Duration
}

// Server holds the HTTP handlers' shared state.
type Server struct {
	runner   *pipeline.Runner
	sessions *session.Manager
	metrics  *metrics.Metrics
	logger   *log.Logger
	timeout  time.Duration
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	if cfg.Registry == nil {
		cfg.Registry = components.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewManager(cfg.Registry, session.DefaultTTL)
		cfg.Sessions.SetLogger(cfg.Logger)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = pipeline.DefaultTimeout
	}
	return &Server{
		runner:   pipeline.NewRunner(cfg.Registry, cfg.Docs, cfg.Cache, cfg.Logger),
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		timeout:  cfg.Timeout,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.health)
	r.Get("/version", s.version)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/components", s.listComponents)
		r.Post("/solve", s.solve)
		r.Post("/render/{format}", s.render)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.listDocuments)
			r.Get("/{key}", s.getDocument)
			r.Put("/{key}", s.putDocument)
			r.Delete("/{key}", s.deleteDocument)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Get("/{id}", s.getSession)
			r.Delete("/{id}", s.deleteSession)
			r.Post("/{id}/sets", s.sessionSets)
			r.Post("/{id}/connections", s.sessionConnect)
			r.Delete("/{id}/connections", s.sessionDisconnect)
		})
	})
	return r
}

// instrument logs each request and reports it to the HTTP hooks, labelled
// by route pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r.Body = http.MaxBytesReader(ww, r.Body, maxBodyBytes)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", d, "request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, session.DefaultCleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
