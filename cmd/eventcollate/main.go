package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	intcollate "github.com/Touchkin/eventcollate/internal/collate"
	"github.com/Touchkin/eventcollate/internal/config"
	"github.com/Touchkin/eventcollate/internal/config/dto"
	"github.com/Touchkin/eventcollate/internal/kafka"
	"github.com/Touchkin/eventcollate/internal/observability"
	"github.com/Touchkin/eventcollate/internal/server"
	"github.com/Touchkin/eventcollate/internal/storage"
	"github.com/Touchkin/eventcollate/internal/validator"
	"github.com/Touchkin/eventcollate/pkg/collate"
	pkgconsumer "github.com/Touchkin/eventcollate/pkg/consumer"
	pkgencoder "github.com/Touchkin/eventcollate/pkg/encoder"
	"github.com/Touchkin/eventcollate/pkg/event"
	pkgstorage "github.com/Touchkin/eventcollate/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})
	logger.Info("starting event collator",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	var cleanupFuncs []func() error
	addCleanup := func(name string, fn func() error) {
		cleanupFuncs = append(cleanupFuncs, fn)
		logger.Debug("registered cleanup", "component", name)
	}
	runCleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}
	}
	defer runCleanup()

	eventValidator := validator.NewEventValidator()

	// Collation engine
	order, err := collate.ParseOrder(cfg.Collate.Order)
	if err != nil {
		return fmt.Errorf("invalid collation order: %w", err)
	}
	engine, err := intcollate.New(intcollate.Config{
		Count:    cfg.Collate.Count,
		Interval: cfg.Collate.Interval,
		Order:    order,
	}, observability.ComponentLogger(logger, "collate"), metrics, nil)
	if err != nil {
		return fmt.Errorf("failed to create collation engine: %w", err)
	}

	// Kafka infrastructure
	consumerConfig := kafka.ConsumerConfig{
		BootstrapServers:    cfg.Kafka.BootstrapServers,
		GroupID:             cfg.Kafka.Consumer.GroupID,
		SecurityProtocol:    cfg.Kafka.SecurityProtocol,
		SASLMechanism:       cfg.Kafka.SASLMechanism,
		SASLUsername:        cfg.Kafka.SASLUsername,
		SASLPassword:        cfg.Kafka.SASLPassword,
		AutoOffsetReset:     cfg.Kafka.Consumer.AutoOffsetReset,
		EnableAutoCommit:    cfg.Kafka.Consumer.EnableAutoCommit,
		MaxPollIntervalMS:   cfg.Kafka.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:    cfg.Kafka.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS: cfg.Kafka.Consumer.HeartbeatIntervalMS,
	}
	consumer, err := kafka.NewSaramaConsumer(consumerConfig, observability.ComponentLogger(logger, "consumer"), metrics)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	addCleanup("kafka-consumer", consumer.Close)

	emitter, err := kafka.NewSaramaEmitter(
		cfg.Kafka.BootstrapServers,
		consumerConfig,
		kafka.EmitterConfig{
			Topic:       cfg.Kafka.Output.Topic,
			Compression: cfg.Kafka.Output.Compression,
		},
		observability.ComponentLogger(logger, "emitter"),
		metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to create emitter: %w", err)
	}
	addCleanup("emitter", emitter.Close)

	dlqConfig := kafka.DLQConfig{
		Enabled:     cfg.Kafka.DLQ.Enabled,
		TopicSuffix: cfg.Kafka.DLQ.TopicSuffix,
		MaxRetries:  cfg.Kafka.DLQ.MaxRetries,
	}
	dlqPublisher, err := kafka.NewDLQPublisher(cfg.Kafka.BootstrapServers, consumerConfig, dlqConfig, logger, cfg.Application.Name)
	if err != nil {
		return fmt.Errorf("failed to create DLQ publisher: %w", err)
	}
	addCleanup("dlq-publisher", dlqPublisher.Close)

	// Optional batch archival
	var archive *archiveSink
	if cfg.Archive.Enabled {
		archive, err = newArchiveSink(cfg, logger, metrics)
		if err != nil {
			return fmt.Errorf("failed to create archive sink: %w", err)
		}
		addCleanup("archive-writer", archive.writer.Close)
	}

	// Health and metrics endpoints
	health := server.NewCollatorHealth()
	httpServer := server.NewServer(
		cfg.Observability.Health.Port,
		cfg.Observability.Metrics.Port,
		health,
		registry,
		logger,
	)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	addCleanup("http-server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})
	health.SetEmitterUp(true)

	if err := consumer.Subscribe(context.Background(), cfg.Kafka.Consumer.Topics); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventChan, errorChan, err := consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	health.SetConsumerUp(true)

	engine.Start()

	pipe := &pipeline{
		engine:    engine,
		validator: eventValidator,
		consumer:  consumer,
		emitter:   emitter,
		dlq:       dlqPublisher,
		archive:   archive,
		health:    health,
		idleFlush: cfg.Collate.IdleFlushInterval,
		logger:    logger,
	}

	logger.Info("application started successfully")

	consumeErrChan := make(chan error, 1)
	go func() {
		consumeErrChan <- pipe.processEvents(ctx, eventChan, errorChan)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("received termination signal")
	case err := <-consumeErrChan:
		if err != nil {
			logger.Error("consume error", "error", err)
			return err
		}
	}

	// Graceful shutdown: stop consuming, then force the final
	// release-and-drain so no buffered record is lost.
	logger.Info("initiating graceful shutdown")
	health.SetStopping()
	cancel()
	<-consumeErrChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.GracePeriod)
	defer shutdownCancel()

	if final := engine.Stop(); final != nil {
		logger.Info("releasing final batch", "records", final.Len())
		pipe.handleBatch(shutdownCtx, final)
	}

	logger.Info("application stopped successfully")
	return nil
}

// pipeline connects the consumer, the collation engine, the emitter and the
// optional archive sink.
type pipeline struct {
	engine    *intcollate.Engine
	validator *validator.EventValidator
	consumer  pkgconsumer.Consumer
	emitter   pkgconsumer.Emitter
	dlq       pkgconsumer.DLQPublisher
	archive   *archiveSink
	health    *server.CollatorHealth
	idleFlush time.Duration
	logger    *slog.Logger
}

// processEvents is the main consume loop. Each consumed event is validated
// and submitted to the engine one at a time; a non-nil Submit result is a
// released batch ready for emission. When no event arrives for the idle
// flush interval, residual records are drained through Flush.
func (p *pipeline) processEvents(
	ctx context.Context,
	eventChan <-chan *event.ConsumedEvent,
	errorChan <-chan error,
) error {
	idleFlush := p.idleFlush
	if idleFlush <= 0 {
		// Idle flush disabled; park the ticker on a far interval.
		idleFlush = 24 * time.Hour
	}
	ticker := time.NewTicker(idleFlush)
	defer ticker.Stop()
	lastActivity := time.Now()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("context cancelled, stopping processing")
			return nil
		case err := <-errorChan:
			if err != nil {
				p.logger.Error("consumer error", "error", err)
			}
		case <-ticker.C:
			if p.idleFlush <= 0 || time.Since(lastActivity) < p.idleFlush {
				continue
			}
			if batch := p.engine.Flush(); batch != nil {
				p.logger.Info("idle flush released batch", "records", batch.Len())
				p.handleBatch(ctx, batch)
			}
		case consumedEvent, ok := <-eventChan:
			if !ok {
				p.logger.Info("event channel closed")
				return nil
			}
			lastActivity = time.Now()
			p.processEvent(ctx, consumedEvent)
		}
	}
}

func (p *pipeline) processEvent(ctx context.Context, consumedEvent *event.ConsumedEvent) {
	if err := p.validator.Validate(consumedEvent.Event); err != nil {
		p.logger.Warn("invalid event",
			"topic", consumedEvent.Metadata.Topic,
			"partition", consumedEvent.Metadata.Partition,
			"offset", consumedEvent.Metadata.Offset,
			"error", err,
		)

		if p.dlq != nil {
			_ = p.dlq.Publish(ctx, consumedEvent.Event, consumedEvent.Metadata, "validation_failed")
		}

		// Commit the offset to skip the bad message
		if consumedEvent.CommitFunc != nil {
			_ = consumedEvent.CommitFunc()
		}
		return
	}

	record := event.Record{
		Event:    consumedEvent.Event,
		Kafka:    consumedEvent.Metadata,
		Collated: consumedEvent.Collated,
	}

	batch := p.engine.Submit(record)
	p.health.SetPendingRecords(p.engine.Len())

	if batch == nil {
		if consumedEvent.Collated {
			// Re-consumed output record: nothing to buffer, commit and
			// move on.
			if consumedEvent.CommitFunc != nil {
				_ = consumedEvent.CommitFunc()
			}
		}
		return
	}

	p.handleBatch(ctx, batch)
}

// handleBatch emits a released batch downstream, archives it when archival
// is enabled, and commits the consumed offsets it covers.
func (p *pipeline) handleBatch(ctx context.Context, batch *collate.Batch) {
	if err := p.emitter.Emit(ctx, batch); err != nil {
		p.logger.Error("failed to emit batch",
			"batch_id", batch.ID,
			"records", batch.Len(),
			"error", err,
		)

		if p.dlq != nil {
			for i := range batch.Records {
				rec := &batch.Records[i]
				_ = p.dlq.Publish(ctx, rec.Event, rec.Kafka, "emit_failed")
			}
		}
	} else {
		p.logger.Info("batch emitted",
			"batch_id", batch.ID,
			"records", batch.Len(),
			"trigger", batch.Trigger,
		)
	}

	if p.archive != nil {
		if err := p.archive.store(ctx, batch); err != nil {
			p.logger.Error("failed to archive batch",
				"batch_id", batch.ID,
				"error", err,
			)
		}
	}

	p.commitBatch(ctx, batch)
}

// commitBatch commits the highest consumed offset per input stream covered
// by the batch.
func (p *pipeline) commitBatch(ctx context.Context, batch *collate.Batch) {
	highest := make(map[event.StreamID]int64)
	for i := range batch.Records {
		rec := &batch.Records[i]
		stream := event.StreamID{Topic: rec.Kafka.Topic, Partition: rec.Kafka.Partition}
		if offset, ok := highest[stream]; !ok || rec.Kafka.Offset > offset {
			highest[stream] = rec.Kafka.Offset
		}
	}

	for stream, offset := range highest {
		if err := p.consumer.Commit(ctx, stream, offset); err != nil {
			p.logger.Error("failed to commit offset",
				"topic", stream.Topic,
				"partition", stream.Partition,
				"offset", offset,
				"error", err,
			)
		}
	}
}

// archiveSink writes released batches to the configured storage backend.
type archiveSink struct {
	writer pkgstorage.Writer
	router pkgstorage.Router
	topic  string
}

func newArchiveSink(cfg *dto.ApplicationConfig, logger *slog.Logger, metrics *observability.Metrics) (*archiveSink, error) {
	format := pkgencoder.FormatParquet
	if cfg.Archive.Format == "avro" {
		format = pkgencoder.FormatAvro
	}

	compression := cfg.Archive.Compression
	if compression == "" {
		if format == pkgencoder.FormatParquet {
			compression = "snappy"
		} else {
			compression = "gzip"
		}
	}

	storageLogger := observability.ComponentLogger(logger, "archive")

	var writer pkgstorage.Writer
	var err error
	switch cfg.Archive.Backend {
	case "file":
		writer, err = storage.NewFileWriter(storage.FileConfig{
			BasePath: cfg.Archive.File.BasePath,
		}, format, compression, storageLogger, metrics)
	case "s3":
		writer, err = storage.NewS3Writer(storage.S3Config{
			Bucket:       cfg.Archive.S3.Bucket,
			Region:       cfg.Archive.S3.Region,
			Endpoint:     cfg.Archive.S3.Endpoint,
			UsePathStyle: cfg.Archive.S3.UsePathStyle,
			SSEEnabled:   cfg.Archive.S3.SSEEnabled,
			SSEKMSKeyID:  cfg.Archive.S3.SSEKMSKeyID,
		}, format, compression, storageLogger, metrics)
	case "azure":
		writer, err = storage.NewAzureWriter(storage.AzureConfig{
			AccountName:   cfg.Archive.Azure.AccountName,
			AccountKey:    os.Getenv("AZURE_STORAGE_ACCOUNT_KEY"),
			ContainerName: cfg.Archive.Azure.Container,
		}, format, compression, storageLogger, metrics)
	case "gcs":
		writer, err = storage.NewGCSWriter(storage.GCSConfig{
			Bucket:               cfg.Archive.GCS.Bucket,
			ProjectID:            cfg.Archive.GCS.ProjectID,
			CredentialsFile:      cfg.Archive.GCS.CredentialsFile,
			CredentialsJSON:      os.Getenv("GCP_CREDENTIALS_JSON"),
			UseDefaultCredential: cfg.Archive.GCS.UseDefaultCredential,
		}, format, compression, storageLogger, metrics)
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s (supported: file, s3, azure, gcs)", cfg.Archive.Backend)
	}
	if err != nil {
		return nil, err
	}

	router := storage.NewRouter(
		archiveProtocol(cfg.Archive.Backend),
		archiveBucket(cfg),
		archiveBasePath(cfg),
	)

	return &archiveSink{
		writer: writer,
		router: router,
		topic:  cfg.Kafka.Output.Topic,
	}, nil
}

// store archives one batch, partitioned by its release date.
func (s *archiveSink) store(ctx context.Context, batch *collate.Batch) error {
	path := s.router.Route(s.topic, batch.ReleasedAt.Unix())
	_, err := s.writer.Write(ctx, batch, path)
	return err
}

func archiveProtocol(backend string) string {
	switch backend {
	case "s3":
		return "s3"
	case "azure":
		return "wasbs"
	case "gcs":
		return "gs"
	default:
		return "file"
	}
}

func archiveBucket(cfg *dto.ApplicationConfig) string {
	switch cfg.Archive.Backend {
	case "s3":
		return cfg.Archive.S3.Bucket
	case "azure":
		return cfg.Archive.Azure.Container
	case "gcs":
		return cfg.Archive.GCS.Bucket
	default:
		// File backend uses basePath only, no bucket
		return ""
	}
}

func archiveBasePath(cfg *dto.ApplicationConfig) string {
	switch cfg.Archive.Backend {
	case "s3":
		return cfg.Archive.S3.BasePath
	case "gcs":
		return cfg.Archive.GCS.BasePath
	default:
		// File backend: basePath is handled by FileWriter
		return ""
	}
}
