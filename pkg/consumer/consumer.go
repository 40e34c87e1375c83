// Package consumer defines interfaces for Kafka ingress and egress of the
// collation pipeline.
package consumer

import (
	"context"

	"github.com/Touchkin/eventcollate/pkg/collate"
	"github.com/Touchkin/eventcollate/pkg/event"
)

// Consumer reads events from Kafka topics.
type Consumer interface {
	// Subscribe subscribes to one or more topics.
	Subscribe(ctx context.Context, topics []string) error

	// Consume starts consuming messages from subscribed topics.
	// Returns channels for events and errors.
	Consume(ctx context.Context) (<-chan *event.ConsumedEvent, <-chan error, error)

	// Commit commits the offset for a stream.
	Commit(ctx context.Context, stream event.StreamID, offset int64) error

	// Close closes the consumer and releases resources.
	Close() error
}

// Emitter publishes the records of a released batch downstream, preserving
// the batch's sort order.
type Emitter interface {
	// Emit publishes every record of the batch to the output topic.
	Emit(ctx context.Context, batch *collate.Batch) error

	// Close closes the emitter and releases resources.
	Close() error
}

// DLQPublisher publishes failed events to a dead letter queue.
type DLQPublisher interface {
	// Publish sends an event to the DLQ with error information.
	Publish(ctx context.Context, event *event.Event, metadata event.KafkaMetadata, reason string) error

	// Close closes the publisher and releases resources.
	Close() error
}
