package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-etl-service/internal/report"
)

// ReportSource serves read-only views of the stored history.
type ReportSource interface {
	AggregateByCity(ctx context.Context) (map[string]float64, error)
	TimeSeriesByCity(ctx context.Context) (map[string][]report.Point, error)
	Build(ctx context.Context) (report.Report, error)
}

// Server exposes health, readiness, metrics, and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportSource
	chart      report.Renderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /report,
// and the /api/v1/report JSON routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportSource, chart report.Renderer, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		chart:   chart,
		logger:  logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/report", s.handleChart)
	r.Route("/api/v1/report", func(r chi.Router) {
		r.Get("/averages", s.handleAverages)
		r.Get("/timeseries", s.handleTimeSeries)
	})

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

func (s *Server) handleAverages(w http.ResponseWriter, r *http.Request) {
	avgs, err := s.reports.AggregateByCity(r.Context())
	if err != nil {
		s.writeError(w, "averages", err)
		return
	}
	writeJSON(w, http.StatusOK, avgs)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.reports.TimeSeriesByCity(r.Context())
	if err != nil {
		s.writeError(w, "timeseries", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Build(r.Context())
	if err != nil {
		s.writeError(w, "chart", err)
		return
	}
	var buf bytes.Buffer
	if err := s.chart.Render(&buf, rep); err != nil {
		s.writeError(w, "chart", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

func (s *Server) writeError(w http.ResponseWriter, view string, err error) {
	s.logger.Error("report view failed", "view", view, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
