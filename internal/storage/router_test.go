package storage

import (
	"testing"
	"time"
)

func TestDefaultRouter_Route(t *testing.T) {
	releasedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC).Unix()

	tests := []struct {
		name     string
		protocol string
		bucket   string
		basePath string
		topic    string
		want     string
	}{
		{
			name:     "s3 path",
			protocol: "s3",
			bucket:   "collated-batches",
			basePath: "archive",
			topic:    "events",
			want:     "s3://collated-batches/archive/events/dt=2026-01-15/",
		},
		{
			name:     "gcs path",
			protocol: "gs",
			bucket:   "collated-batches",
			basePath: "archive",
			topic:    "orders",
			want:     "gs://collated-batches/archive/orders/dt=2026-01-15/",
		},
		{
			name:     "file path",
			protocol: "file",
			bucket:   "",
			basePath: "data",
			topic:    "events",
			want:     "file:///data/events/dt=2026-01-15/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(tt.protocol, tt.bucket, tt.basePath)
			got := router.Route(tt.topic, releasedAt)
			if got != tt.want {
				t.Errorf("Route() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefaultRouter_DatePartitioning(t *testing.T) {
	router := NewRouter("s3", "bucket", "archive")

	// Same day, different times route to the same partition.
	morning := time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC).Unix()
	evening := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC).Unix()

	if router.Route("events", morning) != router.Route("events", evening) {
		t.Error("same-day batches should route to the same date partition")
	}

	// Midnight boundary moves to the next partition.
	nextDay := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix()
	if router.Route("events", morning) == router.Route("events", nextDay) {
		t.Error("batches on different days should route to different partitions")
	}
}

func TestDefaultRouter_TopicIsolation(t *testing.T) {
	router := NewRouter("s3", "bucket", "archive")
	releasedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC).Unix()

	if router.Route("events", releasedAt) == router.Route("orders", releasedAt) {
		t.Error("different topics should route to different paths")
	}
}
