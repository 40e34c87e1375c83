package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker implements HealthChecker for testing
type mockHealthChecker struct {
	liveness  bool
	readiness bool
	status    map[string]string
}

func (m *mockHealthChecker) Liveness() bool {
	return m.liveness
}

func (m *mockHealthChecker) Readiness(ctx context.Context) bool {
	return m.readiness
}

func (m *mockHealthChecker) GetStatus() map[string]string {
	return m.status
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLivenessHandler_Alive(t *testing.T) {
	checker := &mockHealthChecker{liveness: true}

	handler := LivenessHandler(checker, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "alive" {
		t.Errorf("status = %s, want alive", response.Status)
	}
}

func TestLivenessHandler_NotAlive(t *testing.T) {
	checker := &mockHealthChecker{liveness: false}

	handler := LivenessHandler(checker, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestReadinessHandler_Ready(t *testing.T) {
	checker := &mockHealthChecker{
		readiness: true,
		status: map[string]string{
			"consumer": "connected",
			"emitter":  "connected",
		},
	}

	handler := ReadinessHandler(checker, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ready" {
		t.Errorf("status = %s, want ready", response.Status)
	}

	if len(response.Checks) != 2 {
		t.Errorf("len(checks) = %d, want 2", len(response.Checks))
	}
}

func TestReadinessHandler_NotReady(t *testing.T) {
	checker := &mockHealthChecker{
		readiness: false,
		status: map[string]string{
			"consumer": "disconnected",
		},
	}

	handler := ReadinessHandler(checker, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "not ready" {
		t.Errorf("status = %s, want not ready", response.Status)
	}
}

func TestCollatorHealth_InitiallyNotReady(t *testing.T) {
	health := NewCollatorHealth()

	if !health.Liveness() {
		t.Error("new tracker should be alive")
	}
	if health.Readiness(context.Background()) {
		t.Error("new tracker should not be ready before components connect")
	}
}

func TestCollatorHealth_ReadyWhenComponentsUp(t *testing.T) {
	health := NewCollatorHealth()
	health.SetConsumerUp(true)
	health.SetEmitterUp(true)

	if !health.Readiness(context.Background()) {
		t.Error("tracker should be ready with consumer and emitter up")
	}

	health.SetConsumerUp(false)
	if health.Readiness(context.Background()) {
		t.Error("tracker should not be ready after consumer disconnect")
	}
}

func TestCollatorHealth_StoppingFailsReadiness(t *testing.T) {
	health := NewCollatorHealth()
	health.SetConsumerUp(true)
	health.SetEmitterUp(true)
	health.SetStopping()

	if health.Readiness(context.Background()) {
		t.Error("draining tracker should not be ready")
	}
	if !health.Liveness() {
		t.Error("draining tracker should still be alive")
	}

	status := health.GetStatus()
	if status["collator"] != "draining" {
		t.Errorf("collator status = %s, want draining", status["collator"])
	}
}

func TestCollatorHealth_Status(t *testing.T) {
	health := NewCollatorHealth()
	health.SetConsumerUp(true)
	health.SetPendingRecords(42)

	status := health.GetStatus()

	if status["consumer"] != "connected" {
		t.Errorf("consumer status = %s, want connected", status["consumer"])
	}
	if status["emitter"] != "disconnected" {
		t.Errorf("emitter status = %s, want disconnected", status["emitter"])
	}
	if status["pending_records"] != "42" {
		t.Errorf("pending_records = %s, want 42", status["pending_records"])
	}
	if status["collator"] != "running" {
		t.Errorf("collator status = %s, want running", status["collator"])
	}
}
