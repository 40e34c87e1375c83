// Package storage defines interfaces for archiving released batches.
//
// This package provides abstractions for writing collated batches to
// various storage backends (S3, GCS, Azure Blob, local filesystem).
package storage

import (
	"context"

	"github.com/Touchkin/eventcollate/pkg/collate"
)

// Writer archives a released batch to storage.
type Writer interface {
	// Write writes the batch to storage under the given path prefix.
	// Returns the number of bytes written.
	Write(ctx context.Context, batch *collate.Batch, path string) (int64, error)

	// Close closes the writer and releases resources.
	Close() error
}

// Router determines the storage path for a released batch based on the
// partitioning strategy.
type Router interface {
	// Route returns the storage path prefix for a batch released from the
	// given input topic at the given Unix timestamp (seconds).
	Route(topic string, releasedAtUnix int64) string
}
