package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/pipeline"
)

const maxPayloadBytes = 1 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Ingester normalizes and stores one pushed payload.
type Ingester interface {
	Ingest(ctx context.Context, p domain.Payload) (int, error)
}

// ProviderAdmin runs the administrative provider operations.
type ProviderAdmin interface {
	Prune(ctx context.Context, provider string, keep []string) (int, error)
	Resume(ctx context.Context, provider string) (bool, error)
}

// Server exposes health, readiness, metrics, push ingestion and provider
// administration endpoints.
type Server struct {
	httpServer *http.Server
	ingester   Ingester
	admin      ProviderAdmin
	limiter    domain.RateLimiter
	logger     *slog.Logger
}

// NewServer creates an HTTP server. A nil limiter accepts every push.
func NewServer(addr string, ready ReadinessChecker, ingester Ingester, admin ProviderAdmin, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	r := mux.NewRouter()

	s := &Server{
		ingester: ingester,
		admin:    admin,
		limiter:  limiter,
		logger:   logger,
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady(ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/payloads/{provider}", s.handlePush).Methods(http.MethodPost)
	v1.HandleFunc("/providers/{provider}/prune", s.handlePrune).Methods(http.MethodPost)
	v1.HandleFunc("/providers/{provider}/resume", s.handleResume).Methods(http.MethodPost)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(r)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Debug("http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handlePush ingests an already-fetched provider payload. The optional guid
// query parameter selects the catalog station for providers whose payloads
// carry no identity.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if s.limiter != nil && !s.limiter.Allow(provider, "push") {
		writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
		return
	}

	var guid int64
	if v := r.URL.Query().Get("guid"); v != "" {
		g, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("guid must be an integer"))
			return
		}
		guid = g
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	n, err := s.ingester.Ingest(r.Context(), domain.Payload{
		Provider:   provider,
		GUID:       guid,
		Body:       body,
		ReceivedAt: domain.Now(),
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"provider": provider, "modules": n})
}

type pruneRequest struct {
	Keep []string `json:"keep"`
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	var req pruneRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("body must be {\"keep\": [station ids]}"))
		return
	}

	n, err := s.admin.Prune(r.Context(), provider, req.Keep)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "pruned": n})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	was, err := s.admin.Resume(r.Context(), provider)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "resumed": was})
}

func statusFor(err error) int {
	switch pipeline.Classify(err) {
	case pipeline.ClassUnknown:
		return http.StatusNotFound
	case pipeline.ClassMalformed, pipeline.ClassNotFound:
		return http.StatusUnprocessableEntity
	case pipeline.ClassSuspended:
		return http.StatusConflict
	case pipeline.ClassAuth:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
