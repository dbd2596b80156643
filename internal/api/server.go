// Package api exposes the SkillLens HTTP surface: health, latest analysis
// lookup, job enqueueing, and queue stats.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aryan1718/SkillLens/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	router *chi.Mux
	store  store.Store
	logger *slog.Logger
}

// NewServer creates the API server with its routes configured.
func NewServer(st store.Store, logger *slog.Logger) *Server {
	s := &Server{router: chi.NewRouter(), store: st, logger: logger}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/skills/{skill_id}/analysis", s.getLatestAnalysis)
	s.router.Post("/artifacts/{artifact_id}/analyze", s.postEnqueueAnalyze)
	s.router.Get("/jobs/stats", s.getJobStats)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// analysisResponse is the wire shape of one analysis row.
type analysisResponse struct {
	ID           string          `json:"id"`
	ArtifactID   string          `json:"artifact_id"`
	Status       string          `json:"status"`
	TrustBadge   *string         `json:"trust_badge"`
	OverallScore *float64        `json:"overall_score"`
	SecurityData json.RawMessage `json:"security_data,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

func (s *Server) getLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	skillID := chi.URLParam(r, "skill_id")
	analysis, err := s.store.LatestAnalysis(r.Context(), skillID)
	if err != nil {
		s.logger.Error("Failed to load latest analysis", "skill_id", skillID, "error", err)
		http.Error(w, "failed to load analysis", http.StatusInternalServerError)
		return
	}
	if analysis == nil {
		http.Error(w, "no analysis for skill", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, analysisResponse{
		ID:           analysis.ID,
		ArtifactID:   analysis.ArtifactID,
		Status:       analysis.Status,
		TrustBadge:   analysis.TrustBadge,
		OverallScore: analysis.OverallScore,
		SecurityData: analysis.SecurityData,
		ErrorMessage: analysis.ErrorMessage,
	})
}

func (s *Server) postEnqueueAnalyze(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "artifact_id")
	artifact, err := s.store.GetArtifact(r.Context(), artifactID)
	if err != nil {
		s.logger.Error("Failed to load artifact", "artifact_id", artifactID, "error", err)
		http.Error(w, "failed to load artifact", http.StatusInternalServerError)
		return
	}
	if artifact == nil {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}

	job, err := s.store.EnqueueAnalyzeJob(r.Context(), artifactID)
	if err != nil {
		s.logger.Error("Failed to enqueue analyze job", "artifact_id", artifactID, "error", err)
		http.Error(w, "failed to enqueue job", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.ID,
		"analysis_id": job.AnalysisID,
		"status":      job.Status,
	})
}

func (s *Server) getJobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.JobStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to load job stats", "error", err)
		http.Error(w, "failed to load job stats", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}
