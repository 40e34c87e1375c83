package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestServer_NewServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	checker := &mockHealthChecker{liveness: true, readiness: true}

	server := NewServer(8080, 9090, checker, registry, testLogger())

	if server == nil {
		t.Error("Server should not be nil")
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()

	testCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_metric_total",
		Help: "Test metric",
	})
	registry.MustRegister(testCounter)
	testCounter.Inc()

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	if w.Body.String() == "" {
		t.Error("Metrics response should not be empty")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	registry := prometheus.NewRegistry()
	checker := &mockHealthChecker{liveness: true, readiness: true}

	// Use high port numbers to avoid conflicts
	server := NewServer(58080, 59090, checker, registry, testLogger())

	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Give servers time to start
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:58080/health/live")
	if err != nil {
		t.Errorf("Failed to connect to health server: %v", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Health check returned status %d", resp.StatusCode)
		}
	}

	resp, err = http.Get("http://localhost:59090/metrics")
	if err != nil {
		t.Errorf("Failed to connect to metrics server: %v", err)
	} else {
		resp.Body.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := http.Get("http://localhost:58080/health/live"); err == nil {
		t.Error("Expected error connecting to stopped health server")
	}
}
