// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/config"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
	"churn-workers/internal/common/observability"
	"churn-workers/internal/common/validation"
	"churn-workers/internal/models"
)

const (
	maxBodyBytes = 1 << 20

	predictOperation = "http-predict"
)

// Checker reports whether a dependency is usable. Registered checkers gate /ready.
type Checker func(ctx context.Context) error

// Server exposes the prediction API next to the health and metrics endpoints.
type Server struct {
	engine *churn.Engine
	schema *validation.Schema
	obs    *observability.Observability
	logger logger.Logger
	checks map[string]Checker
}

type Option func(*Server)

// WithReadinessCheck adds a named dependency check to /ready.
func WithReadinessCheck(name string, check Checker) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// WithObservability records requests through the OTel meter as well.
func WithObservability(obs *observability.Observability) Option {
	return func(s *Server) {
		s.obs = obs
	}
}

func New(engine *churn.Engine, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		schema: validation.MustCompile(models.ClientFeaturesSchema),
		logger: log.WithFields(map[string]interface{}{"component": "http"}),
		checks: make(map[string]Checker),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// HTTPServer wraps Handler with the configured address and timeouts.
func (s *Server) HTTPServer(cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	start := time.Now()
	record, err := s.decodeRecord(w, r)
	if err != nil {
		s.writeError(r.Context(), w, err, start)
		return
	}

	prediction, err := s.engine.Predict(record)
	metrics.ChurnPredictionDuration.WithLabelValues(metrics.SourceHTTP).Observe(time.Since(start).Seconds())
	if err != nil {
		s.writeError(r.Context(), w, errors.FromChurnError(err), start)
		return
	}

	metrics.ChurnPredictions.WithLabelValues(string(prediction.RiskLevel), metrics.SourceHTTP).Inc()
	s.obs.RecordRiskLevel(r.Context(), string(prediction.RiskLevel))
	s.obs.RecordJobProcessed(r.Context(), predictOperation, "success")
	s.obs.RecordJobDuration(r.Context(), predictOperation, time.Since(start), "success")

	s.logger.Debug("prediction served", map[string]interface{}{
		"riskLevel":   prediction.RiskLevel,
		"probability": prediction.ChurnProbability,
		"reasons":     len(prediction.Reasons),
	})
	s.writeJSON(w, http.StatusOK, prediction)
}

// decodeRecord reads the body as a JSON object, keeping numbers as json.Number,
// and checks it against the client feature schema.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (churn.Record, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewInputParsingError(fmt.Errorf("request body exceeds %d bytes", maxBodyBytes))
		}
		return nil, errors.NewInputParsingError(err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	if payload == nil {
		return nil, errors.NewInputParsingError(stderrors.New("request body must be a JSON object"))
	}

	result, err := s.schema.Validate(payload)
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}
	if !result.Valid {
		stdErr := errors.NewInputValidationError(result.Summary())
		stdErr.Metadata = map[string]interface{}{"fields": result.Errors}
		return nil, stdErr
	}
	return churn.Record(payload), nil
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	if stdErr.Code == errors.ErrCodeInputAlignmentFailed {
		metrics.ChurnAlignmentFailures.WithLabelValues(metrics.SourceHTTP).Inc()
	}
	s.obs.RecordJobProcessed(ctx, predictOperation, "error")
	s.obs.RecordJobDuration(ctx, predictOperation, time.Since(start), "error")

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"status":    status,
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("prediction failed", fields)
	} else {
		s.logger.Warn("prediction rejected", fields)
	}
	s.writeJSON(w, status, stdErr)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failed": failed})
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
