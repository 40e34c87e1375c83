// Package server implements health check handlers.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns a handler for Kubernetes liveness probes.
// Liveness probes should only fail if the process needs to be restarted.
func LivenessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "alive"
		statusCode := http.StatusOK

		if !checker.Liveness() {
			status = "not alive"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode liveness response", "error", err)
		}
	}
}

// ReadinessHandler returns a handler for Kubernetes readiness probes.
// Readiness probes indicate if the application can handle traffic.
func ReadinessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ready"
		statusCode := http.StatusOK

		if !checker.Readiness(r.Context()) {
			status = "not ready"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checker.GetStatus(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode readiness response", "error", err)
		}
	}
}

// CollatorHealth tracks the health of the collation pipeline. The consume
// loop updates it as components connect, fail, and drain.
type CollatorHealth struct {
	mu             sync.RWMutex
	consumerUp     bool
	emitterUp      bool
	stopping       bool
	pendingRecords int
}

// NewCollatorHealth creates a health tracker with all components down.
func NewCollatorHealth() *CollatorHealth {
	return &CollatorHealth{}
}

// SetConsumerUp records whether the Kafka consumer is connected.
func (h *CollatorHealth) SetConsumerUp(up bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consumerUp = up
}

// SetEmitterUp records whether the Kafka producer is connected.
func (h *CollatorHealth) SetEmitterUp(up bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitterUp = up
}

// SetStopping marks the pipeline as draining. Readiness fails so traffic
// is routed away while the final batch is released.
func (h *CollatorHealth) SetStopping() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopping = true
}

// SetPendingRecords records the current pending buffer depth.
func (h *CollatorHealth) SetPendingRecords(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pendingRecords = n
}

// Liveness reports whether the process should keep running. A draining
// pipeline is still alive.
func (h *CollatorHealth) Liveness() bool {
	return true
}

// Readiness reports whether the pipeline can accept traffic.
func (h *CollatorHealth) Readiness(ctx context.Context) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.consumerUp && h.emitterUp && !h.stopping
}

// GetStatus returns per-component health details.
func (h *CollatorHealth) GetStatus() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := map[string]string{
		"consumer":        connState(h.consumerUp),
		"emitter":         connState(h.emitterUp),
		"pending_records": strconv.Itoa(h.pendingRecords),
	}
	if h.stopping {
		status["collator"] = "draining"
	} else {
		status["collator"] = "running"
	}
	return status
}

func connState(up bool) string {
	if up {
		return "connected"
	}
	return "disconnected"
}

var _ HealthChecker = (*CollatorHealth)(nil)
