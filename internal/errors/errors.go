// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"

	"github.com/Touchkin/eventcollate/pkg/event"
)

// Sentinel errors for common conditions.
var (
	ErrConsumerClosed = errors.New("consumer is closed")
	ErrEmitterClosed  = errors.New("emitter is closed")
	ErrEngineStopped  = errors.New("collation engine is stopped")
	ErrInvalidEvent   = errors.New("invalid event")
	ErrWriterClosed   = errors.New("archive writer is closed")
	ErrConnectionLost = errors.New("connection lost")
)

// CollationError represents an error while handling a record in the
// collation pipeline.
type CollationError struct {
	StreamID event.StreamID
	Offset   int64
	EventID  string
	Err      error
}

func (e *CollationError) Error() string {
	return fmt.Sprintf("collation error: stream=%s offset=%d event_id=%s: %v",
		e.StreamID, e.Offset, e.EventID, e.Err)
}

func (e *CollationError) Unwrap() error {
	return e.Err
}

// ValidationError represents an event validation failure.
type ValidationError struct {
	EventID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: event_id=%s field=%s: %s",
		e.EventID, e.Field, e.Reason)
}

// EmitError represents a failure to publish a collated record downstream.
type EmitError struct {
	Topic   string
	EventID string
	BatchID string
	Err     error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit error: topic=%s event_id=%s batch_id=%s: %v",
		e.Topic, e.EventID, e.BatchID, e.Err)
}

func (e *EmitError) Unwrap() error {
	return e.Err
}

// StorageError represents a batch archival failure.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: operation=%s path=%s: %v",
		e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CommitError represents an offset commit failure.
type CommitError struct {
	StreamID event.StreamID
	Offset   int64
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit error: stream=%s offset=%d: %v",
		e.StreamID, e.Offset, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Retryable defines an interface for errors that can indicate if they are retryable.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable checks if an error is retryable.
// It first checks if the error implements the Retryable interface,
// then falls back to checking sentinel errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	if errors.Is(err, ErrConnectionLost) {
		return true
	}

	return false
}

// IsRetryable determines if a StorageError is retryable based on the operation type.
func (e *StorageError) IsRetryable() bool {
	// Write and upload operations are generally retryable
	return e.Operation == "write" || e.Operation == "upload" || e.Operation == "create"
}

// IsRetryable determines if an EmitError is retryable.
func (e *EmitError) IsRetryable() bool {
	return IsRetryable(e.Err)
}

// IsRetryable determines if a CollationError is retryable.
func (e *CollationError) IsRetryable() bool {
	return IsRetryable(e.Err)
}
