// Package httpapi exposes the monitor's snapshot, findings, and advisory
// endpoints plus the operational health and metrics routes.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinderbloom/heatrisk/internal/domain"
	"github.com/cinderbloom/heatrisk/internal/pipeline"
)

// Pipeline is the snapshot surface the API serves. Implemented by
// *pipeline.Pipeline; tests substitute a stub.
type Pipeline interface {
	Refresh(ctx context.Context) (pipeline.Snapshot, error)
	Latest() (pipeline.Snapshot, bool)
	CheckReadiness(ctx context.Context) error
	EvaluateRegion(region string) (domain.Finding, bool)
}

// Advisor generates a mitigation briefing for one overheating region.
// Implemented by the gemini client; a nil Advisor disables the endpoint.
type Advisor interface {
	Assess(ctx context.Context, region string, temperature float64) (string, error)
}

// Server exposes the REST API, health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	pl         Pipeline
	advisor    Advisor
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes. advisor may be nil.
func NewServer(addr string, pl Pipeline, advisor Advisor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pl:      pl,
		advisor: advisor,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/v1/findings", s.handleFindings)
	mux.HandleFunc("GET /api/v1/regions/{name}", s.handleRegion)
	mux.HandleFunc("GET /api/v1/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/v1/advisory", s.handleAdvisory)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pl.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.pl.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.pl.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}

	findings := snap.Findings
	if r.URL.Query().Get("triggered") == "true" {
		triggered := make([]domain.Finding, 0, len(findings))
		for _, f := range findings {
			if f.Triggered {
				triggered = append(triggered, f)
			}
		}
		findings = triggered
	}
	writeJSON(w, http.StatusOK, findings)
}

// handleRegion evaluates one planning area by name. An unknown name is a
// valid query answered with a NOT_FOUND finding, so the HTTP status stays
// 200; 404 is reserved for unknown routes.
func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.pl.Latest(); !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}

	f, _ := s.pl.EvaluateRegion(r.PathValue("name"))
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.pl.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="unified_dataset.csv"`)
	if err := pipeline.WriteCSV(w, snap.Records); err != nil {
		s.logger.Error("csv export failed", "error", err)
	}
}

func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeError(w, http.StatusServiceUnavailable, "advisory generation is disabled")
		return
	}

	region := r.URL.Query().Get("region")
	if region == "" {
		writeError(w, http.StatusBadRequest, "region query parameter is required")
		return
	}

	snap, ok := s.pl.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}

	var rec *domain.FusedRecord
	for i := range snap.Records {
		if snap.Records[i].Region == region {
			rec = &snap.Records[i]
			break
		}
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "region not in latest snapshot")
		return
	}
	if rec.AvgTemperature == nil {
		writeError(w, http.StatusUnprocessableEntity, "region has no temperature measurement")
		return
	}

	text, err := s.advisor.Assess(r.Context(), region, *rec.AvgTemperature)
	if err != nil {
		s.logger.Error("advisory generation failed", "region", region, "error", err)
		writeError(w, http.StatusBadGateway, "advisory generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"region": region, "advisory": text})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.pl.Refresh(r.Context())
	if err != nil {
		s.logger.Error("manual refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
