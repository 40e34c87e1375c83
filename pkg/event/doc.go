// Package event defines the core record types for the collation pipeline.
//
// This package provides the public API for the events the pipeline consumes,
// collates and re-emits, along with the Kafka metadata attached to them.
//
// # Core Types
//
// Event is the payload a record carries. Only the timestamp is interpreted
// by the collation engine:
//
//	now := time.Now()
//	evt := &event.Event{
//	    ID:     "unique-event-id",
//	    Source: "service-name",
//	    Type:   "com.example.event",
//	    Time:   &now,
//	    Data:   []byte(`{"key": "value"}`),
//	}
//
// # Record Structure
//
// Record combines an Event with Kafka metadata and the collation state the
// engine stamps onto it at release time:
//
//	record := event.Record{
//	    Event: evt,
//	    Kafka: event.KafkaMetadata{
//	        Topic:     "events",
//	        Partition: 0,
//	        Offset:    12345,
//	        Timestamp: time.Now(),
//	    },
//	}
//
// After the record's batch is released, Collated is true, BatchID names the
// batch it belongs to and Sequence is its position in the sorted batch.
//
// # Stream Identification
//
// StreamID uniquely identifies an input stream (a Kafka topic partition):
//
//	sid := event.StreamID{Topic: "user-events", Partition: 5}
//	key := sid.String() // "user-events-5"
//
// # Time Utilities
//
// Records provide methods for extracting the ordering timestamp:
//
//	ts := record.Timestamp()        // Returns time.Time
//	unix := record.TimestampUnix()  // Returns Unix seconds
//
// The methods fall back to the Kafka timestamp if Event.Time is not set.
package event
