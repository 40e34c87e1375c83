package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/Touchkin/eventcollate/internal/errors"
	"github.com/Touchkin/eventcollate/pkg/collate"
	"github.com/Touchkin/eventcollate/pkg/consumer"
)

// Ensure implementation satisfies interface at compile time.
var _ consumer.Emitter = (*SaramaEmitter)(nil)

// Headers attached to every emitted record.
const (
	HeaderBatchID  = "batch_id"
	HeaderSequence = "sequence"
	HeaderTrigger  = "trigger"
)

// EmitterConfig contains configuration for the batch emitter.
type EmitterConfig struct {
	Topic       string
	Compression string
}

// EmitterMetrics defines metrics operations for the batch emitter.
type EmitterMetrics interface {
	IncRecordsEmitted(topic string, status string)
	ObserveEmitDuration(topic string, duration float64)
}

// SaramaEmitter publishes the records of released batches to the output
// topic. Records are sent one at a time in batch order so that downstream
// consumers observe the collated ordering. Every emitted record carries the
// collated marker header, which stops it from being collated again if it is
// routed back through an input topic.
type SaramaEmitter struct {
	producer sarama.SyncProducer
	config   EmitterConfig
	logger   *slog.Logger
	metrics  EmitterMetrics
	mu       sync.RWMutex
	closed   bool
}

// NewSaramaEmitter creates a new batch emitter backed by a Sarama sync
// producer. Idempotent production keeps record order stable across retries.
func NewSaramaEmitter(
	bootstrapServers []string,
	securityConfig ConsumerConfig,
	config EmitterConfig,
	logger *slog.Logger,
	metrics EmitterMetrics,
) (*SaramaEmitter, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Compression = producerCompression(config.Compression)
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	if err := configureSecurity(saramaConfig, securityConfig); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}

	producer, err := sarama.NewSyncProducer(bootstrapServers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	logger.Info("batch emitter created",
		"bootstrap_servers", bootstrapServers,
		"topic", config.Topic,
		"compression", config.Compression,
	)

	return &SaramaEmitter{
		producer: producer,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Emit publishes every record of the batch to the output topic, in batch
// order. The first send failure aborts the emission; records already sent
// stay sent, so downstream consumers must tolerate partial batches on retry.
func (e *SaramaEmitter) Emit(ctx context.Context, batch *collate.Batch) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return errors.ErrEmitterClosed
	}

	if batch == nil || batch.Len() == 0 {
		return nil
	}

	startTime := time.Now()

	for i := range batch.Records {
		rec := &batch.Records[i]

		if err := ctx.Err(); err != nil {
			return err
		}

		value, err := json.Marshal(rec.Event)
		if err != nil {
			e.recordEmitted("failure")
			return &errors.EmitError{
				Topic:   e.config.Topic,
				EventID: rec.Event.ID,
				BatchID: batch.ID,
				Err:     fmt.Errorf("failed to marshal event: %w", err),
			}
		}

		msg := &sarama.ProducerMessage{
			Topic: e.config.Topic,
			Key:   sarama.StringEncoder(rec.Event.ID),
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{
					Key:   []byte(HeaderCollated),
					Value: []byte("true"),
				},
				{
					Key:   []byte(HeaderBatchID),
					Value: []byte(batch.ID),
				},
				{
					Key:   []byte(HeaderSequence),
					Value: []byte(strconv.Itoa(rec.Sequence)),
				},
				{
					Key:   []byte(HeaderTrigger),
					Value: []byte(batch.Trigger),
				},
			},
			Timestamp: rec.Timestamp(),
		}

		if _, _, err := e.producer.SendMessage(msg); err != nil {
			e.recordEmitted("failure")
			e.logger.Error("failed to emit collated record",
				"error", err,
				"topic", e.config.Topic,
				"event_id", rec.Event.ID,
				"batch_id", batch.ID,
				"sequence", rec.Sequence,
			)
			return &errors.EmitError{
				Topic:   e.config.Topic,
				EventID: rec.Event.ID,
				BatchID: batch.ID,
				Err:     err,
			}
		}

		e.recordEmitted("success")
	}

	if e.metrics != nil {
		e.metrics.ObserveEmitDuration(e.config.Topic, time.Since(startTime).Seconds())
	}

	e.logger.Info("emitted collated batch",
		"topic", e.config.Topic,
		"batch_id", batch.ID,
		"records", batch.Len(),
		"trigger", batch.Trigger,
	)

	return nil
}

// Close closes the emitter and releases resources.
func (e *SaramaEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true
	e.logger.Info("closing batch emitter")

	if err := e.producer.Close(); err != nil {
		e.logger.Error("error closing producer", "error", err)
		return err
	}

	e.logger.Info("batch emitter closed")
	return nil
}

func (e *SaramaEmitter) recordEmitted(status string) {
	if e.metrics != nil {
		e.metrics.IncRecordsEmitted(e.config.Topic, status)
	}
}

// producerCompression converts the compression config to Sarama's codec.
func producerCompression(name string) sarama.CompressionCodec {
	switch name {
	case "gzip":
		return sarama.CompressionGZIP
	case "lz4":
		return sarama.CompressionLZ4
	case "zstd":
		return sarama.CompressionZSTD
	case "none":
		return sarama.CompressionNone
	default:
		return sarama.CompressionSnappy
	}
}
