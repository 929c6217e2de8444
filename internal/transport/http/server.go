package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"reviewguard/internal/batch"
	"reviewguard/internal/config"
	"reviewguard/internal/detector"
)

const serviceName = "reviewguard"

// Server exposes the detector over HTTP.
type Server struct {
	detector       *detector.Detector
	runner         *batch.Runner
	logger         *zap.Logger
	requestTimeout time.Duration
	maxBodyBytes   int64
	maxBatchBytes  int64
}

// NewServer wires the handlers. Batch bodies are never capped below the size
// of a full batch of valid reviews.
func NewServer(det *detector.Detector, runner *batch.Runner, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		detector:       det,
		runner:         runner,
		logger:         logger,
		requestTimeout: cfg.RequestTimeout,
		maxBodyBytes:   cfg.MaxBodyBytes,
		maxBatchBytes:  max(cfg.MaxBodyBytes, det.Rules().MaxBatchBytes()),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "endpoint not found: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Get("/", s.index)
	r.Get("/healthz", s.health)
	r.Get("/swagger", serveSwaggerUI)
	r.Get("/swagger/", serveSwaggerUI)
	r.Get("/swagger/openapi.yaml", serveSwaggerYAML)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/model/info", s.modelInfo)
		r.Route("/analyze", func(r chi.Router) {
			r.Post("/single", s.analyzeSingle)
			r.Post("/batch", s.analyzeBatch)
			r.Post("/quick", s.analyzeQuick)
		})
	})
	return r
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Review authenticity scoring API",
		"version": s.detector.Rules().Version(),
		"endpoints": map[string]string{
			"docs":           "/swagger",
			"health":         "/api/v1/health",
			"analyze_single": "/api/v1/analyze/single",
			"analyze_batch":  "/api/v1/analyze/batch",
			"quick_analyze":  "/api/v1/analyze/quick",
			"model_info":     "/api/v1/model/info",
		},
		"features": detector.Categories,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"timestamp":     time.Now().UTC(),
		"model_version": s.detector.Rules().Version(),
		"service":       serviceName,
	})
}

func (s *Server) modelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.detector.Info())
}

func (s *Server) analyzeSingle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	review, err := detector.DecodeReview(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.detector.Analyze(review)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !wantDetails(r) {
		result = result.WithoutDetails()
	}
	writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Reviews []json.RawMessage `json:"reviews"`
}

func (s *Server) analyzeBatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBatchBytes))
	decoder.DisallowUnknownFields()
	var payload batchRequest
	if err := decoder.Decode(&payload); err != nil {
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) {
			err = fmt.Errorf("%w: decode JSON: %v", detector.ErrMalformed, err)
		}
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.RunRaw(ctx, payload.Reviews)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !wantDetails(r) {
		res = res.WithoutDetails()
	}
	writeJSON(w, http.StatusOK, res)
}

type quickResponse struct {
	IsFake     bool           `json:"is_fake"`
	Confidence float64        `json:"confidence"`
	Label      detector.Label `json:"label"`
	Summary    string         `json:"summary"`
	TopFlags   []string       `json:"top_flags"`
}

func (s *Server) analyzeQuick(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rating, err := strconv.Atoi(strings.TrimSpace(query.Get("rating")))
	if err != nil {
		s.fail(w, r, &detector.ValidationError{Field: "rating", Reason: "must be an integer between 1 and 5"})
		return
	}
	result, err := s.detector.Analyze(detector.ReviewInput{Text: query.Get("text"), Rating: rating})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	flags := result.Flags
	if len(flags) > 3 {
		flags = flags[:3]
	}
	writeJSON(w, http.StatusOK, quickResponse{
		IsFake:     result.IsFake,
		Confidence: result.ConfidenceScore,
		Label:      result.Label,
		Summary:    result.Explanation[0],
		TopFlags:   flags,
	})
}

func wantDetails(r *http.Request) bool {
	details, err := strconv.ParseBool(r.URL.Query().Get("details"))
	return err == nil && details
}
