package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
	"github.com/couchcryptid/protest-map-etl/internal/store"
)

// EventSource assembles the merged public event list.
type EventSource interface {
	Events(ctx context.Context) ([]domain.Event, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ManualEvents is the manual event store surface the API needs.
type ManualEvents interface {
	Pending(ctx context.Context) ([]domain.ManualEvent, error)
	Submit(ctx context.Context, sub store.Submission, addedBy string) (domain.ManualEvent, error)
	Save(ctx context.Context, upd store.Update) error
	Delete(ctx context.Context, id string) error
}

// OverrideWriter stores admin field corrections for feed events.
type OverrideWriter interface {
	Set(ctx context.Context, sourceID string, o domain.Override) error
}

// SuppressionWriter hides feed events from the public output.
type SuppressionWriter interface {
	Suppress(ctx context.Context, sourceID string) error
}

// Server exposes the public and admin API plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer  *http.Server
	events      EventSource
	manual      ManualEvents
	overrides   OverrideWriter
	suppression SuppressionWriter
	geocoder    domain.Geocoder
	logger      *slog.Logger
}

// NewServer creates the API server. geocoder may be nil, in which case
// /geocode always reports not found.
func NewServer(addr string, events EventSource, manual ManualEvents, overrides OverrideWriter, suppression SuppressionWriter, geocoder domain.Geocoder, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      cors(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		events:      events,
		manual:      manual,
		overrides:   overrides,
		suppression: suppression,
		geocoder:    geocoder,
		logger:      logger,
	}

	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("POST /add-event", s.handleAddEvent)
	mux.HandleFunc("GET /pending-events", s.handlePendingEvents)
	mux.HandleFunc("POST /save-event", s.handleSaveEvent)
	mux.HandleFunc("POST /approve-event", s.handleSaveEvent)
	mux.HandleFunc("POST /delete-event", s.handleDeleteEvent)
	mux.HandleFunc("POST /override-event", s.handleOverrideEvent)
	mux.HandleFunc("POST /suppress-event", s.handleSuppressEvent)
	mux.HandleFunc("POST /geocode", s.handleGeocode)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

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

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.Events(r.Context())
	if err != nil {
		s.logger.Error("assemble events failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to assemble events"})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var sub store.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if sub.Title == "" || sub.Date.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and date are required"})
		return
	}

	ev, err := s.manual.Submit(r.Context(), sub, remoteHost(r))
	if err != nil {
		s.logger.Error("submit event failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save event"})
		return
	}
	s.logger.Info("manual event submitted", "id", ev.ID, "title", ev.Title)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event saved!", "id": ev.ID})
}

func (s *Server) handlePendingEvents(w http.ResponseWriter, r *http.Request) {
	pending, err := s.manual.Pending(r.Context())
	if err != nil {
		s.logger.Error("read pending events failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read pending events"})
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleSaveEvent(w http.ResponseWriter, r *http.Request) {
	var upd store.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if upd.ID == "" || upd.Title == "" || upd.Date.IsZero() || upd.Location.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id, title, location and date are required"})
		return
	}

	switch err := s.manual.Save(r.Context(), upd); {
	case errors.Is(err, store.ErrEventNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Event not found"})
	case err != nil:
		s.logger.Error("save event failed", "id", upd.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save event"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Event saved."})
	}
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	switch err := s.manual.Delete(r.Context(), req.ID); {
	case errors.Is(err, store.ErrEventNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Event not found"})
	case err != nil:
		s.logger.Error("delete event failed", "id", req.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete event"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted."})
	}
}

func (s *Server) handleOverrideEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string          `json:"sourceId"`
		Updates  domain.Override `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sourceId is required"})
		return
	}

	if err := s.overrides.Set(r.Context(), req.SourceID, req.Updates); err != nil {
		s.logger.Error("set override failed", "source_id", req.SourceID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save override"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Override saved."})
}

func (s *Server) handleSuppressEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string `json:"sourceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sourceId is required"})
		return
	}

	if err := s.suppression.Suppress(r.Context(), req.SourceID); err != nil {
		s.logger.Error("suppress event failed", "source_id", req.SourceID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to suppress event"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event suppressed."})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "address is required"})
		return
	}

	if s.geocoder == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "geocoding unavailable"})
		return
	}
	coords, found, err := s.geocoder.Geocode(r.Context(), req.Address)
	if err != nil || !found {
		if err != nil {
			s.logger.Warn("geocode failed", "address", req.Address, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "address could not be resolved"})
		return
	}
	writeJSON(w, http.StatusOK, coords)
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

// cors lets the browser frontend call the API from any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
