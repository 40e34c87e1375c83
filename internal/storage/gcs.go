package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Touchkin/eventcollate/internal/encoder"
	"github.com/Touchkin/eventcollate/pkg/collate"
	pkgencoder "github.com/Touchkin/eventcollate/pkg/encoder"
	pkgstorage "github.com/Touchkin/eventcollate/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ pkgstorage.Writer = (*GCSWriter)(nil)

// GCSConfig contains Google Cloud Storage configuration.
type GCSConfig struct {
	Bucket               string
	ProjectID            string
	CredentialsFile      string
	CredentialsJSON      string
	Endpoint             string
	UseDefaultCredential bool
}

// GCSWriter implements storage.Writer for Google Cloud Storage archives.
// It supports multiple authentication methods (service account file, JSON,
// default credentials).
type GCSWriter struct {
	client         *storage.Client
	bucket         string
	format         pkgencoder.FileFormat
	encoderFactory *encoder.Factory
	logger         *slog.Logger
	metrics        MetricsCollector
	mu             sync.Mutex
}

// NewGCSWriter creates a new Google Cloud Storage archive writer.
func NewGCSWriter(
	cfg GCSConfig,
	format pkgencoder.FileFormat,
	compression string,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*GCSWriter, error) {
	ctx := context.Background()

	var clientOpts []option.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	if cfg.UseDefaultCredential {
		// Uses GOOGLE_APPLICATION_CREDENTIALS env var or default service account
		logger.Info("using default GCP credentials")
	} else if cfg.CredentialsJSON != "" {
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
		logger.Info("using GCP credentials from JSON string")
	} else if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
		logger.Info("using GCP credentials from file", "file", cfg.CredentialsFile)
	} else {
		logger.Info("no explicit credentials provided, using default GCP credentials")
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	encoderFactory := encoder.NewFactory(format, compression)

	// Validate encoder can be created
	if _, err := encoderFactory.CreateEncoder(); err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	logger.Info("GCS archive writer created",
		"bucket", cfg.Bucket,
		"project_id", cfg.ProjectID,
		"format", format,
		"compression", compression,
	)

	return &GCSWriter{
		client:         client,
		bucket:         cfg.Bucket,
		format:         format,
		encoderFactory: encoderFactory,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Write archives a released batch to Google Cloud Storage.
func (w *GCSWriter) Write(ctx context.Context, batch *collate.Batch, path string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if batch.Len() == 0 {
		return 0, fmt.Errorf("no records to write")
	}

	startTime := time.Now()

	enc, err := w.encoderFactory.CreateEncoder()
	if err != nil {
		w.recordError("encoder_create")
		return 0, fmt.Errorf("failed to create encoder: %w", err)
	}

	// Parse GCS URI to extract object path
	// Path format: gs://bucket/object/path or just object/path
	objectPath := path
	if strings.HasPrefix(path, "gs://") {
		pathWithoutProtocol := strings.TrimPrefix(path, "gs://")
		parts := strings.SplitN(pathWithoutProtocol, "/", 2)
		if len(parts) == 2 {
			objectPath = parts[1]
		} else {
			objectPath = ""
		}
	}

	objectPath = objectPath + batchFilename(batch, enc.FileExtension())
	objectPath = strings.TrimPrefix(objectPath, "/")

	// Encode to temporary file
	tempFile := filepath.Join(os.TempDir(),
		fmt.Sprintf("gcs-upload-%s%s", batch.ID, enc.FileExtension()))

	stats, err := enc.Encode(tempFile, batch)
	if err != nil {
		w.recordError("encode")
		return 0, fmt.Errorf("failed to encode batch: %w", err)
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		w.recordError("file_open")
		return 0, fmt.Errorf("failed to open encoded file: %w", err)
	}
	defer file.Close()

	obj := w.client.Bucket(w.bucket).Object(objectPath)
	gcsWriter := obj.NewWriter(ctx)

	switch w.format {
	case pkgencoder.FormatAvro:
		gcsWriter.ContentType = "application/avro"
	default:
		gcsWriter.ContentType = "application/octet-stream"
	}

	bytesWritten, err := io.Copy(gcsWriter, file)
	if err != nil {
		w.recordError("upload")
		gcsWriter.Close()
		if w.metrics != nil {
			w.metrics.IncBatchesArchived("gcs", string(w.format), "failure")
		}
		return 0, fmt.Errorf("failed to write to GCS: %w", err)
	}

	// Close the writer to finalize the upload
	if err := gcsWriter.Close(); err != nil {
		w.recordError("close")
		return 0, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	duration := time.Since(startTime)

	w.logger.Info("archived batch to GCS",
		"bucket", w.bucket,
		"object", objectPath,
		"batch_id", batch.ID,
		"record_count", stats.RecordCount,
		"file_size", stats.SizeBytes,
		"bytes_written", bytesWritten,
		"format", w.format,
		"total_duration_ms", duration.Milliseconds(),
	)

	if w.metrics != nil {
		w.metrics.IncBatchesArchived("gcs", string(w.format), "success")
		w.metrics.ObserveArchiveFileSize("gcs", string(w.format), float64(stats.SizeBytes))
		w.metrics.ObserveArchiveDuration("gcs", string(w.format), duration.Seconds())
	}

	return stats.SizeBytes, nil
}

// Close closes the GCS writer.
func (w *GCSWriter) Close() error {
	w.logger.Info("closing GCS archive writer")
	if w.client != nil {
		return w.client.Close()
	}
	return nil
}

func (w *GCSWriter) recordError(operation string) {
	if w.metrics != nil {
		w.metrics.IncStorageErrors("gcs", operation)
	}
}
