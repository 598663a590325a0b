// Package api exposes the validation pipeline over HTTP: submit a
// dataset collection plus a convention and receive the findings and the
// run decision.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"waterprep/db/clickhouse"
	"waterprep/decision/policy"
	"waterprep/internal/convention"
	"waterprep/internal/ingest"
	"waterprep/internal/preprocess"
	"waterprep/internal/results"
	"waterprep/pkg/platform"
)

// Server is the HTTP API server.
type Server struct {
	httpServer   *http.Server
	store        *clickhouse.Store
	policyEngine *policy.Engine
	config       *Config
	logger       zerolog.Logger
}

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 50 * 1024 * 1024, // gridded payloads are large
		CORSOrigins:    []string{"*"},
	}
}

// NewServer creates a new API server. The store is optional; without it
// the validate endpoint still works but reports are not persisted.
func NewServer(store *clickhouse.Store, config *Config, logger zerolog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		store:        store,
		policyEngine: policy.NewEngine(),
		config:       config,
		logger:       logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/api/v1/validate", platform.APIKeyMiddleware(http.HandlerFunc(s.handleValidate)))
	mux.Handle("/api/v1/runs/", platform.APIKeyMiddleware(http.HandlerFunc(s.handleGetRun)))

	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info().Int("port", s.config.Port).Msg("API server starting")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains it on SIGINT or
// SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.logger.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonResponse(w, http.StatusOK, map[string]string{
			"status": "ready",
			"store":  "disabled",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.jsonError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// =============================================================================
// VALIDATE ENDPOINT
// =============================================================================

// DatasetPayload is one dataset in a validation request. The raw bytes
// use the same JSON layout as on-disk dataset files.
type DatasetPayload struct {
	Sector   string          `json:"sector"`
	Variable string          `json:"variable"`
	Dataset  json.RawMessage `json:"dataset"`
}

// ValidateRequest is the API request for a validation run.
type ValidateRequest struct {
	Convention  convention.Convention `json:"convention"`
	Datasets    []DatasetPayload      `json:"datasets"`
	StartYear   int                   `json:"start_year"`
	EndYear     int                   `json:"end_year"`
	TimeExtend  bool                  `json:"time_extend"`
	StoreReport bool                  `json:"store_report"`
}

// ValidateResponse is the API response for a validation run.
type ValidateResponse struct {
	RunID      string                   `json:"run_id,omitempty"`
	Outcome    policy.Outcome           `json:"outcome"`
	Results    *results.Results         `json:"results"`
	Evaluation *policy.EvaluationResult `json:"evaluation"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if err := req.Convention.Validate(); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid convention: %v", err))
		return
	}
	if req.StartYear > req.EndYear {
		s.jsonError(w, http.StatusBadRequest, "start_year must not exceed end_year")
		return
	}

	items := make([]preprocess.Item, 0, len(req.Datasets))
	for _, p := range req.Datasets {
		ds, err := ingest.Decode(p.Dataset, p.Sector+"/"+p.Variable)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid dataset: %v", err))
			return
		}
		items = append(items, preprocess.Item{
			Dataset:  ds,
			Sector:   p.Sector,
			Variable: p.Variable,
		})
	}

	_, res := preprocess.Process(items, &req.Convention, preprocess.Options{
		StartYear:  req.StartYear,
		EndYear:    req.EndYear,
		TimeExtend: req.TimeExtend,
	})
	eval := s.policyEngine.Evaluate(res)

	resp := ValidateResponse{
		Outcome:    eval.Outcome,
		Results:    res,
		Evaluation: eval,
	}

	if req.StoreReport && s.store != nil {
		run := clickhouse.NewRun(req.StartYear, req.EndYear, req.TimeExtend, len(items), eval.Outcome)
		if err := s.store.SaveRun(r.Context(), run, res); err != nil {
			// Persistence failure does not invalidate the evaluation.
			s.logger.Error().Err(err).Msg("failed to store run report")
		} else {
			resp.RunID = run.ID.String()
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// RUN ENDPOINT
// =============================================================================

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.jsonError(w, http.StatusNotImplemented, "report store is disabled")
		return
	}

	id, err := uuid.Parse(r.URL.Path[len("/api/v1/runs/"):])
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	ctx := r.Context()
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "run not found")
		return
	}
	findings, err := s.store.ListFindings(ctx, id)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load findings: %v", err))
		return
	}

	type findingResponse struct {
		Category string `json:"category"`
		Path     string `json:"path,omitempty"`
	}
	resp := struct {
		ID           string            `json:"id"`
		StartYear    int32             `json:"start_year"`
		EndYear      int32             `json:"end_year"`
		TimeExtend   bool              `json:"time_extend"`
		Outcome      string            `json:"outcome"`
		DatasetCount uint32            `json:"dataset_count"`
		CreatedAt    string            `json:"created_at"`
		Findings     []findingResponse `json:"findings"`
	}{
		ID:           run.ID.String(),
		StartYear:    run.StartYear,
		EndYear:      run.EndYear,
		TimeExtend:   run.TimeExtend,
		Outcome:      run.Outcome,
		DatasetCount: run.DatasetCount,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
		Findings:     make([]findingResponse, 0, len(findings)),
	}
	for _, f := range findings {
		resp.Findings = append(resp.Findings, findingResponse{Category: f.Category, Path: f.Path})
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
