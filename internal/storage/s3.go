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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Touchkin/eventcollate/internal/encoder"
	"github.com/Touchkin/eventcollate/pkg/collate"
	pkgencoder "github.com/Touchkin/eventcollate/pkg/encoder"
	"github.com/Touchkin/eventcollate/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Writer = (*S3Writer)(nil)

// S3Config contains AWS S3 configuration.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	SSEEnabled   bool
	SSEKMSKeyID  string
}

// S3Writer implements storage.Writer for AWS S3 archives.
// It provides multipart upload support, server-side encryption (SSE),
// and automatic retry handling for S3 operations.
type S3Writer struct {
	client         *s3.Client
	uploader       *manager.Uploader
	bucket         string
	region         string
	sseEnabled     bool
	sseKMSKeyID    string
	format         pkgencoder.FileFormat
	encoderFactory *encoder.Factory
	logger         *slog.Logger
	metrics        MetricsCollector
	mu             sync.Mutex
}

// NewS3Writer creates a new S3 archive writer.
func NewS3Writer(
	cfg S3Config,
	format pkgencoder.FileFormat,
	compression string,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*S3Writer, error) {
	ctx := context.Background()
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10MB parts
		u.Concurrency = 5
	})

	encoderFactory := encoder.NewFactory(format, compression)

	// Validate encoder can be created
	if _, err := encoderFactory.CreateEncoder(); err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	logger.Info("S3 archive writer created",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"format", format,
		"compression", compression,
		"sse_enabled", cfg.SSEEnabled,
	)

	return &S3Writer{
		client:         s3Client,
		uploader:       uploader,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		sseEnabled:     cfg.SSEEnabled,
		sseKMSKeyID:    cfg.SSEKMSKeyID,
		format:         format,
		encoderFactory: encoderFactory,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Write archives a released batch to S3.
func (w *S3Writer) Write(ctx context.Context, batch *collate.Batch, path string) (int64, error) {
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

	// Parse S3 URI to extract key
	// Path format: s3://bucket/key/path or just key/path
	s3Key := path
	if strings.HasPrefix(path, "s3://") {
		pathWithoutProtocol := strings.TrimPrefix(path, "s3://")
		parts := strings.SplitN(pathWithoutProtocol, "/", 2)
		if len(parts) == 2 {
			s3Key = parts[1]
		} else {
			s3Key = ""
		}
	}

	s3Key = s3Key + batchFilename(batch, fileEncoder.FileExtension())
	s3Key = strings.TrimPrefix(s3Key, "/")

	// Encode to temporary file
	tempFile := filepath.Join(os.TempDir(),
		fmt.Sprintf("s3-upload-%s%s", batch.ID, fileEncoder.FileExtension()))

	stats, err := fileEncoder.Encode(tempFile, batch)
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

	uploadInput := &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(s3Key),
		Body:   file,
	}

	if w.sseEnabled {
		if w.sseKMSKeyID != "" {
			uploadInput.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			uploadInput.SSEKMSKeyId = aws.String(w.sseKMSKeyID)
		} else {
			uploadInput.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
	}

	result, err := w.uploader.Upload(ctx, uploadInput)
	if err != nil {
		w.recordError("upload")
		if w.metrics != nil {
			w.metrics.IncBatchesArchived("s3", string(w.format), "failure")
		}
		return 0, fmt.Errorf("failed to upload to S3: %w", err)
	}

	duration := time.Since(startTime)

	w.logger.Info("archived batch to S3",
		"bucket", w.bucket,
		"key", s3Key,
		"batch_id", batch.ID,
		"record_count", stats.RecordCount,
		"file_size", stats.SizeBytes,
		"format", w.format,
		"location", result.Location,
		"total_duration_ms", duration.Milliseconds(),
	)

	if w.metrics != nil {
		w.metrics.IncBatchesArchived("s3", string(w.format), "success")
		w.metrics.ObserveArchiveFileSize("s3", string(w.format), float64(stats.SizeBytes))
		w.metrics.ObserveArchiveDuration("s3", string(w.format), duration.Seconds())
	}

	return stats.SizeBytes, nil
}

// Close closes the S3 writer.
func (w *S3Writer) Close() error {
	w.logger.Info("closing S3 archive writer")
	return nil
}

func (w *S3Writer) recordError(operation string) {
	if w.metrics != nil {
		w.metrics.IncStorageErrors("s3", operation)
	}
}
