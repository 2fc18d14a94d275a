// Package server exposes the scoring pipeline over a thin HTTP surface.
// The handlers are deliberately plain adapters over the engine; request
// routing and API versioning plumbing live outside the core.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oakmont-ai/scorecard/internal/common"
	"github.com/oakmont-ai/scorecard/internal/engine"
	"github.com/oakmont-ai/scorecard/internal/model"
	"github.com/oakmont-ai/scorecard/internal/retrain"
	"github.com/oakmont-ai/scorecard/internal/service"
)

// Server wires the engine, retrainer and version store behind HTTP
// handlers.
type Server struct {
	engine    *engine.ScoringEngine
	retrainer *retrain.Retrainer
	versions  service.VersionStore
	defaults  retrain.Options
	retrainMu sync.Mutex
}

// New creates a server.
func New(eng *engine.ScoringEngine, retrainer *retrain.Retrainer, versions service.VersionStore, defaults retrain.Options) *Server {
	return &Server{
		engine:    eng,
		retrainer: retrainer,
		versions:  versions,
		defaults:  defaults,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/score", s.handleScore)
	mux.HandleFunc("POST /v1/score/batch", s.handleScoreBatch)
	mux.HandleFunc("POST /v1/feedback", s.handleFeedback)
	mux.HandleFunc("POST /v1/retrain", s.handleRetrain)
	mux.HandleFunc("POST /v1/reload", s.handleReload)
	mux.HandleFunc("GET /v1/versions", s.handleVersions)
	mux.HandleFunc("GET /v1/readiness", s.handleReadiness)
	return mux
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.engine.Available() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"message": "model bundle not loaded; scoring unavailable until reload succeeds",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var app model.Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.engine.ScoreApplication(r.Context(), app)
	if err != nil {
		writeScoringError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	var apps []model.Application
	if err := json.NewDecoder(r.Body).Decode(&apps); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.engine.Available() {
		writeError(w, http.StatusServiceUnavailable, common.ErrBundleUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.ScoreBatch(r.Context(), apps))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecordID string `json:"record_id"`
		Outcome  *int   `json:"outcome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RecordID == "" || req.Outcome == nil {
		writeError(w, http.StatusBadRequest, "record_id and outcome are required")
		return
	}

	if err := s.engine.Feedback(r.Context(), req.RecordID, *req.Outcome); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	if r.ContentLength != 0 {
		var req struct {
			MinSamples       *int     `json:"min_samples"`
			MinFeedbackRatio *float64 `json:"min_feedback_ratio"`
			TestFraction     *float64 `json:"test_fraction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.MinSamples != nil {
			opts.MinSamples = *req.MinSamples
		}
		if req.MinFeedbackRatio != nil {
			opts.MinFeedbackRatio = *req.MinFeedbackRatio
		}
		if req.TestFraction != nil {
			opts.TestFraction = *req.TestFraction
		}
	}

	if !s.retrainMu.TryLock() {
		writeError(w, http.StatusConflict, "a retraining run is already in flight")
		return
	}
	defer s.retrainMu.Unlock()

	result, err := s.retrainer.Run(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.Reload(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersions(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.versions.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	readiness, err := s.retrainer.Readiness(r.Context(), s.defaults.MinSamples, s.defaults.MinFeedbackRatio)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, readiness)
}

func writeScoringError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrBundleUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
