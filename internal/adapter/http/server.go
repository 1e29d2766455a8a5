// Package http exposes the map and chart renderers over HTTP together with
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/state-visit-map/internal/domain"
	"github.com/couchcryptid/state-visit-map/internal/pipeline"
)

// Renderer runs map and chart renders.
type Renderer interface {
	RenderMap(ctx context.Context, req pipeline.MapRequest) (*pipeline.MapResult, error)
	RenderCharts(ctx context.Context, req pipeline.ChartRequest) (*pipeline.ChartResult, error)
}

// ArtifactLocator resolves previously written artifacts.
type ArtifactLocator interface {
	Path(kind domain.ArtifactKind, name string) (string, error)
}

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	DataDir        string // InputData is resolved inside this directory
	ImageDir       string
	AllowedOrigins []string
}

// Server serves rendered maps and charts plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	renderer   Renderer
	artifacts  ArtifactLocator
	dataDir    string
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes.
func NewServer(opts Options, renderer Renderer, artifacts ArtifactLocator, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		renderer:  renderer,
		artifacts: artifacts,
		dataDir:   opts.DataDir,
		logger:    logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/GeoSpatialGraph", s.handleMap)
	r.Get("/Charts", s.handleCharts)
	r.Get("/charts/{name}", s.handleChartPage)
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(opts.ImageDir))))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
