package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Touchkin/eventcollate/internal/encoder"
	"github.com/Touchkin/eventcollate/pkg/collate"
	pkgencoder "github.com/Touchkin/eventcollate/pkg/encoder"
	"github.com/Touchkin/eventcollate/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Writer = (*FileWriter)(nil)

// MetricsCollector defines metrics operations for archive writers.
type MetricsCollector interface {
	IncBatchesArchived(backend, format, status string)
	ObserveArchiveDuration(backend, format string, duration float64)
	ObserveArchiveFileSize(backend, format string, size float64)
	IncStorageErrors(backend string, operation string)
}

// FileConfig contains local filesystem configuration.
type FileConfig struct {
	BasePath string
}

// FileWriter implements storage.Writer for local filesystem archives.
// Each released batch becomes exactly one file named after the batch ID,
// so retried archives overwrite rather than duplicate.
type FileWriter struct {
	basePath       string
	format         pkgencoder.FileFormat
	encoderFactory *encoder.Factory
	logger         *slog.Logger
	metrics        MetricsCollector
	mu             sync.Mutex
}

// NewFileWriter creates a new filesystem archive writer.
func NewFileWriter(
	config FileConfig,
	format pkgencoder.FileFormat,
	compression string,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*FileWriter, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	encoderFactory := encoder.NewFactory(format, compression)

	// Validate encoder can be created
	if _, err := encoderFactory.CreateEncoder(); err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	logger.Info("filesystem archive writer created",
		"base_path", config.BasePath,
		"format", format,
		"compression", compression,
	)

	return &FileWriter{
		basePath:       config.BasePath,
		format:         format,
		encoderFactory: encoderFactory,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Write archives a released batch to the filesystem.
func (w *FileWriter) Write(ctx context.Context, batch *collate.Batch, path string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if batch.Len() == 0 {
		return 0, fmt.Errorf("no records to write")
	}

	startTime := time.Now()

	fileEncoder, err := w.encoderFactory.CreateEncoder()
	if err != nil {
		w.recordError("encoder_create")
		return 0, fmt.Errorf("failed to create encoder: %w", err)
	}

	// Strip file:// protocol prefix if present
	cleanPath := strings.TrimPrefix(path, "file://")

	filename := batchFilename(batch, fileEncoder.FileExtension())

	dir := filepath.Join(w.basePath, cleanPath)
	fullPath := filepath.Join(dir, filename)

	if err := os.MkdirAll(dir, 0755); err != nil {
		w.recordError("mkdir")
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	stats, err := fileEncoder.Encode(fullPath, batch)
	if err != nil {
		w.recordError("encode")
		w.recordArchived("failure")
		return 0, fmt.Errorf("failed to encode batch: %w", err)
	}

	duration := time.Since(startTime)

	w.logger.Info("archived batch to file",
		"path", fullPath,
		"batch_id", batch.ID,
		"record_count", stats.RecordCount,
		"file_size", stats.SizeBytes,
		"format", w.format,
		"total_duration_ms", duration.Milliseconds(),
	)

	if w.metrics != nil {
		w.metrics.IncBatchesArchived("file", string(w.format), "success")
		w.metrics.ObserveArchiveFileSize("file", string(w.format), float64(stats.SizeBytes))
		w.metrics.ObserveArchiveDuration("file", string(w.format), duration.Seconds())
	}

	return stats.SizeBytes, nil
}

// Close closes the writer.
func (w *FileWriter) Close() error {
	w.logger.Info("closing filesystem archive writer")
	return nil
}

func (w *FileWriter) recordError(operation string) {
	if w.metrics != nil {
		w.metrics.IncStorageErrors("file", operation)
	}
}

func (w *FileWriter) recordArchived(status string) {
	if w.metrics != nil {
		w.metrics.IncBatchesArchived("file", string(w.format), status)
	}
}

// batchFilename names an archive file after the batch that produced it.
func batchFilename(batch *collate.Batch, extension string) string {
	return fmt.Sprintf("batch_%s%s", batch.ID, extension)
}
