package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Consumer metrics
	MessagesConsumed *prometheus.CounterVec
	OffsetCommits    *prometheus.CounterVec
	Rebalances       *prometheus.CounterVec
	CommitLatency    *prometheus.HistogramVec

	// Collation metrics
	RecordsBuffered *prometheus.CounterVec
	RecordsSkipped  *prometheus.CounterVec
	BatchesReleased *prometheus.CounterVec
	BatchSize       *prometheus.HistogramVec
	SortDuration    prometheus.Histogram
	PendingRecords  prometheus.Gauge

	// Emission metrics
	RecordsEmitted *prometheus.CounterVec
	EmitDuration   *prometheus.HistogramVec

	// Archive metrics
	BatchesArchived *prometheus.CounterVec
	ArchiveDuration *prometheus.HistogramVec
	ArchiveFileSize *prometheus.HistogramVec
	StorageErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		// Consumer metrics
		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_consumed_total",
				Help: "Total number of messages consumed from Kafka",
			},
			[]string{"topic", "partition"},
		),
		OffsetCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_offset_commit_total",
				Help: "Total number of offset commits",
			},
			[]string{"topic", "partition", "status"},
		),
		Rebalances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_rebalance_total",
				Help: "Total number of consumer group rebalances",
			},
			[]string{"group"},
		),
		CommitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_commit_latency_seconds",
				Help:    "Latency of offset commit operations",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"topic", "partition"},
		),

		// Collation metrics
		RecordsBuffered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collate_records_buffered_total",
				Help: "Total number of records accepted into the collation buffer",
			},
			[]string{"topic"},
		),
		RecordsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collate_records_skipped_total",
				Help: "Total number of records skipped by the collation engine",
			},
			[]string{"topic", "reason"},
		),
		BatchesReleased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collate_batches_released_total",
				Help: "Total number of batches released by the collation engine",
			},
			[]string{"trigger"},
		),
		BatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collate_batch_size_records",
				Help:    "Number of records per released batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1 to 8192
			},
			[]string{"trigger"},
		),
		SortDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "collate_sort_duration_seconds",
				Help:    "Duration of the stable sort performed at batch release",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
		PendingRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "collate_pending_records",
				Help: "Current number of records held in the collation buffer",
			},
		),

		// Emission metrics
		RecordsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collate_records_emitted_total",
				Help: "Total number of collated records published downstream",
			},
			[]string{"topic", "status"},
		),
		EmitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collate_emit_duration_seconds",
				Help:    "Duration of publishing a released batch downstream",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		),

		// Archive metrics
		BatchesArchived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collate_batches_archived_total",
				Help: "Total number of batches archived to storage",
			},
			[]string{"backend", "format", "status"},
		),
		ArchiveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collate_archive_duration_seconds",
				Help:    "Duration of complete archive operations including encoding",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "format"},
		),
		ArchiveFileSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collate_archive_file_size_bytes",
				Help:    "Size of archive files written to storage",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to 256MB
			},
			[]string{"backend", "format"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"backend", "operation"},
		),
	}
}

// IncMessagesConsumed increments messages consumed counter.
func (m *Metrics) IncMessagesConsumed(topic string, partition int32) {
	m.MessagesConsumed.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Inc()
}

// IncOffsetCommits increments offset commits counter.
func (m *Metrics) IncOffsetCommits(topic string, partition int32, status string) {
	m.OffsetCommits.WithLabelValues(topic, fmt.Sprintf("%d", partition), status).Inc()
}

// IncRebalances increments rebalances counter.
func (m *Metrics) IncRebalances(groupID string) {
	m.Rebalances.WithLabelValues(groupID).Inc()
}

// ObserveCommitLatency observes commit latency.
func (m *Metrics) ObserveCommitLatency(topic string, partition int32, duration float64) {
	m.CommitLatency.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Observe(duration)
}

// IncRecordsBuffered increments the buffered record counter.
func (m *Metrics) IncRecordsBuffered(topic string) {
	m.RecordsBuffered.WithLabelValues(topic).Inc()
}

// IncRecordsSkipped increments the skipped record counter.
func (m *Metrics) IncRecordsSkipped(topic string, reason string) {
	m.RecordsSkipped.WithLabelValues(topic, reason).Inc()
}

// IncBatchesReleased increments the released batch counter.
func (m *Metrics) IncBatchesReleased(trigger string) {
	m.BatchesReleased.WithLabelValues(trigger).Inc()
}

// ObserveBatchSize observes the record count of a released batch.
func (m *Metrics) ObserveBatchSize(trigger string, size float64) {
	m.BatchSize.WithLabelValues(trigger).Observe(size)
}

// ObserveSortDuration observes the release sort duration.
func (m *Metrics) ObserveSortDuration(seconds float64) {
	m.SortDuration.Observe(seconds)
}

// SetPendingRecords sets the pending record gauge.
func (m *Metrics) SetPendingRecords(count float64) {
	m.PendingRecords.Set(count)
}

// IncRecordsEmitted increments the emitted record counter.
func (m *Metrics) IncRecordsEmitted(topic string, status string) {
	m.RecordsEmitted.WithLabelValues(topic, status).Inc()
}

// ObserveEmitDuration observes batch emission duration.
func (m *Metrics) ObserveEmitDuration(topic string, duration float64) {
	m.EmitDuration.WithLabelValues(topic).Observe(duration)
}

// IncBatchesArchived increments the archived batch counter.
func (m *Metrics) IncBatchesArchived(backend, format, status string) {
	m.BatchesArchived.WithLabelValues(backend, format, status).Inc()
}

// ObserveArchiveDuration observes archive operation duration.
func (m *Metrics) ObserveArchiveDuration(backend, format string, duration float64) {
	m.ArchiveDuration.WithLabelValues(backend, format).Observe(duration)
}

// ObserveArchiveFileSize observes archive file size.
func (m *Metrics) ObserveArchiveFileSize(backend, format string, size float64) {
	m.ArchiveFileSize.WithLabelValues(backend, format).Observe(size)
}

// IncStorageErrors increments storage errors counter.
func (m *Metrics) IncStorageErrors(backend string, operation string) {
	m.StorageErrors.WithLabelValues(backend, operation).Inc()
}
