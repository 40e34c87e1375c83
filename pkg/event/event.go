// Package event defines the record types that flow through the collation
// pipeline, from Kafka ingress to batch release and archival.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the payload carried by a record. The collation engine treats it
// as opaque apart from its timestamp; everything else is passed through
// unchanged to the downstream emitter and the archive writers.
type Event struct {
	// Required attributes
	ID     string `json:"id"`
	Source string `json:"source"`
	Type   string `json:"type"`

	// Optional attributes
	Subject *string    `json:"subject,omitempty"`
	Time    *time.Time `json:"time,omitempty"`

	// Event data - any JSON value (object, array, string, number, etc.)
	Data json.RawMessage `json:"data,omitempty"`

	// Free-form attributes carried alongside the payload
	Attributes map[string]string `json:"attributes,omitempty"`
}

// KafkaMetadata contains Kafka-specific metadata for a consumed record.
type KafkaMetadata struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Headers   map[string]string
	Timestamp time.Time
}

// StreamID uniquely identifies an input stream (a Kafka topic partition).
type StreamID struct {
	Topic     string
	Partition int32
}

// String returns a string representation of the stream ID in the format "topic-partition".
func (s StreamID) String() string {
	return fmt.Sprintf("%s-%d", s.Topic, s.Partition)
}

// Record is one event awaiting collation, or - once released - one member of
// a collated batch. The engine only reads the timestamp and writes the
// collation fields; the payload is never mutated.
type Record struct {
	Event *Event
	Kafka KafkaMetadata

	// Collation state, set by the engine when the record's batch is
	// released. A record arriving with Collated already set is never
	// re-buffered.
	Collated   bool
	CollatedAt time.Time
	BatchID    string
	Sequence   int
}

// ConsumedEvent represents an event consumed from Kafka, before it is
// handed to the collation engine. Collated reflects the collation marker
// header of the consumed message.
type ConsumedEvent struct {
	Event      *Event
	Metadata   KafkaMetadata
	Collated   bool
	CommitFunc func() error
}

// WriteStats describes the outcome of encoding a batch to a file.
type WriteStats struct {
	RecordCount int
	SizeBytes   int64
}

// Timestamp returns the record's ordering timestamp.
// It returns Event.Time if present, otherwise falls back to the Kafka
// message timestamp (when the message was produced).
func (r *Record) Timestamp() time.Time {
	if r.Event != nil && r.Event.Time != nil {
		return *r.Event.Time
	}
	return r.Kafka.Timestamp
}

// TimestampUnix returns the record's ordering timestamp as Unix seconds.
func (r *Record) TimestampUnix() int64 {
	return r.Timestamp().Unix()
}
