// Package chi is the HTTP transport: webhook intake, health and
// metrics endpoints.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	syncuc "github.com/kailas-cloud/vecsync/internal/usecase/sync"
)

// errorCode is the machine-readable code in error responses.
type errorCode string

const (
	codeBadRequest    errorCode = "bad_request"
	codeQueueFull     errorCode = "queue_full"
	codeInternalError errorCode = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// webhookResponse acknowledges an accepted delivery.
type webhookResponse struct {
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
}

// healthResponse is the JSON body of GET /health.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Intake accepts webhook deliveries for asynchronous processing.
// *sync.Dispatcher implements it.
type Intake interface {
	Enqueue(ev syncuc.Event) (string, error)
}

// Server is the HTTP API server.
type Server struct {
	intake Intake
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(intake Intake, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{
		intake: intake,
		health: health,
		logger: logger,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chiv5.Router) {
	r.Post("/v1/webhooks/connector", s.HandleWebhook)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// HandleWebhook handles POST /v1/webhooks/connector. The delivery is
// acknowledged as soon as it is buffered; processing happens on the
// dispatcher's worker pool.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev syncuc.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if ev.Type == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Event type is required")
		return
	}

	id, err := s.intake.Enqueue(ev)
	if err != nil {
		if errors.Is(err, syncuc.ErrQueueFull) {
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusServiceUnavailable, codeQueueFull, "delivery queue full, retry later")
			return
		}
		s.logger.Error("enqueue delivery", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		DeliveryID: id,
		Status:     "accepted",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
