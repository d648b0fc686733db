package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/engine"
	"github.com/gyaneshwarpardhi/beacon/internal/event"
	"github.com/gyaneshwarpardhi/beacon/internal/forwarder"
	"github.com/gyaneshwarpardhi/beacon/internal/metrics"
)

const maxBatchSize = 100

// maxBodyBytes bounds a single request body.
const maxBodyBytes = 1 << 20

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng      *engine.Engine
	loader   *config.Loader
	settings *forwarder.Settings
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader, settings *forwarder.Settings) http.Handler {
	h := &Handler{eng: eng, loader: loader, settings: settings, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events: synchronous single-event ingestion.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stamp(&ev, time.Now())

	res, err := h.eng.ProcessSync(r.Context(), &ev)
	if err != nil {
		status := http.StatusTooManyRequests
		if !errors.Is(err, engine.ErrQueueFull) && !errors.Is(err, engine.ErrTimeout) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/events/batch: async batch ingestion (up to 100 events).
// Invalid events are rejected individually; the rest are queued.
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var events []*event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(events) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(events), maxBatchSize))
		return
	}

	now := time.Now()
	jobID := uuid.New().String()
	queued := 0
	var invalid []string
	for i, ev := range events {
		if ev == nil {
			invalid = append(invalid, fmt.Sprintf("events[%d]: null event", i))
			continue
		}
		if err := ev.Validate(); err != nil {
			invalid = append(invalid, fmt.Sprintf("events[%d]: %s", i, err))
			continue
		}
		stamp(ev, now)
		if h.eng.ProcessAsync(ev) {
			queued++
		}
	}

	resp := map[string]interface{}{
		"job_id":   jobID,
		"total":    len(events),
		"queued":   queued,
		"rejected": len(events) - queued,
	}
	if len(invalid) > 0 {
		resp["invalid"] = invalid
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// GET /v1/config: current tracking rules.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":  cfg.Version,
		"tracking": h.settings.Load(),
	})
}

// POST /v1/config/reload: re-read config from disk and swap tracking rules.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidTracking) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	h.settings.Store(cfg.Tracking)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"tracking": cfg.Tracking,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if event queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func stamp(ev *event.Event, now time.Time) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}
	ev.ReceivedAt = now
}
