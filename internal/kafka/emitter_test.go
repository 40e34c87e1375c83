package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	apperrors "github.com/Touchkin/eventcollate/internal/errors"
	"github.com/Touchkin/eventcollate/pkg/collate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducerCompression(t *testing.T) {
	tests := []struct {
		name string
		want sarama.CompressionCodec
	}{
		{"gzip", sarama.CompressionGZIP},
		{"lz4", sarama.CompressionLZ4},
		{"zstd", sarama.CompressionZSTD},
		{"none", sarama.CompressionNone},
		{"snappy", sarama.CompressionSnappy},
		{"", sarama.CompressionSnappy},
		{"unknown", sarama.CompressionSnappy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := producerCompression(tt.name); got != tt.want {
				t.Errorf("producerCompression(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSaramaEmitter_EmitAfterClose(t *testing.T) {
	e := &SaramaEmitter{
		config: EmitterConfig{Topic: "collated-events"},
		logger: discardLogger(),
		closed: true,
	}

	err := e.Emit(context.Background(), &collate.Batch{ID: "batch-1"})
	if !errors.Is(err, apperrors.ErrEmitterClosed) {
		t.Errorf("Emit() error = %v, want ErrEmitterClosed", err)
	}
}

func TestSaramaEmitter_EmitEmptyBatch(t *testing.T) {
	e := &SaramaEmitter{
		config: EmitterConfig{Topic: "collated-events"},
		logger: discardLogger(),
	}

	// Empty and nil batches are no-ops that never touch the producer.
	if err := e.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil) error = %v", err)
	}
	if err := e.Emit(context.Background(), &collate.Batch{ID: "batch-1"}); err != nil {
		t.Errorf("Emit(empty) error = %v", err)
	}
}

func TestSaramaEmitter_CloseIdempotent(t *testing.T) {
	e := &SaramaEmitter{
		config: EmitterConfig{Topic: "collated-events"},
		logger: discardLogger(),
		closed: true,
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close() on closed emitter error = %v", err)
	}
}
