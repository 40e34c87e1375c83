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

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/Touchkin/eventcollate/internal/encoder"
	"github.com/Touchkin/eventcollate/pkg/collate"
	pkgencoder "github.com/Touchkin/eventcollate/pkg/encoder"
	"github.com/Touchkin/eventcollate/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Writer = (*AzureWriter)(nil)

// AzureConfig contains Azure Blob Storage configuration.
type AzureConfig struct {
	AccountName   string
	AccountKey    string
	ContainerName string
	Endpoint      string
}

// AzureWriter implements storage.Writer for Azure Blob Storage archives.
type AzureWriter struct {
	client         *azblob.Client
	containerName  string
	format         pkgencoder.FileFormat
	encoderFactory *encoder.Factory
	logger         *slog.Logger
	metrics        MetricsCollector
	mu             sync.Mutex
}

// NewAzureWriter creates a new Azure Blob archive writer.
func NewAzureWriter(
	cfg AzureConfig,
	format pkgencoder.FileFormat,
	compression string,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*AzureWriter, error) {
	var connectionString string
	if cfg.Endpoint != "" {
		connectionString = fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;BlobEndpoint=%s",
			cfg.AccountName, cfg.AccountKey, cfg.Endpoint)
	} else {
		connectionString = fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
			cfg.AccountName, cfg.AccountKey)
	}

	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	encoderFactory := encoder.NewFactory(format, compression)

	// Validate encoder can be created
	if _, err := encoderFactory.CreateEncoder(); err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	logger.Info("Azure archive writer created",
		"container", cfg.ContainerName,
		"account", cfg.AccountName,
		"format", format,
		"compression", compression,
	)

	return &AzureWriter{
		client:         client,
		containerName:  cfg.ContainerName,
		format:         format,
		encoderFactory: encoderFactory,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Write archives a released batch to Azure Blob Storage.
func (w *AzureWriter) Write(ctx context.Context, batch *collate.Batch, path string) (int64, error) {
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

	// Parse Azure URI to extract blob path
	blobPath := path
	if strings.HasPrefix(path, "wasbs://") {
		pathWithoutProtocol := strings.TrimPrefix(path, "wasbs://")
		parts := strings.SplitN(pathWithoutProtocol, "/", 2)
		if len(parts) == 2 {
			blobPath = parts[1]
		} else {
			blobPath = ""
		}
	}

	blobPath = blobPath + batchFilename(batch, enc.FileExtension())
	blobPath = strings.TrimPrefix(blobPath, "/")

	// Encode to temporary file
	tempFile := filepath.Join(os.TempDir(),
		fmt.Sprintf("azure-upload-%s%s", batch.ID, enc.FileExtension()))

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

	_, err = w.client.UploadFile(ctx, w.containerName, blobPath, file, nil)
	if err != nil {
		w.recordError("upload")
		if w.metrics != nil {
			w.metrics.IncBatchesArchived("azure", string(w.format), "failure")
		}
		return 0, fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}

	duration := time.Since(startTime)

	w.logger.Info("archived batch to Azure Blob",
		"container", w.containerName,
		"blob", blobPath,
		"batch_id", batch.ID,
		"record_count", stats.RecordCount,
		"file_size", stats.SizeBytes,
		"format", w.format,
		"total_duration_ms", duration.Milliseconds(),
	)

	if w.metrics != nil {
		w.metrics.IncBatchesArchived("azure", string(w.format), "success")
		w.metrics.ObserveArchiveFileSize("azure", string(w.format), float64(stats.SizeBytes))
		w.metrics.ObserveArchiveDuration("azure", string(w.format), duration.Seconds())
	}

	return stats.SizeBytes, nil
}

// Close closes the Azure writer.
func (w *AzureWriter) Close() error {
	w.logger.Info("Azure archive writer closed")
	return nil
}

func (w *AzureWriter) recordError(operation string) {
	if w.metrics != nil {
		w.metrics.IncStorageErrors("azure", operation)
	}
}
