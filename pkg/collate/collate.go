// Package collate defines the public types and interfaces for the
// collation engine.
//
// The engine accumulates records one at a time and releases them as
// time-ordered batches when either a count threshold is reached or a
// configured interval elapses.
package collate

import (
	"fmt"
	"time"

	"github.com/Touchkin/eventcollate/pkg/event"
)

// Order is the sort direction applied to a batch at release time.
type Order string

const (
	// OrderAscending sorts earliest timestamp first.
	OrderAscending Order = "ascending"
	// OrderDescending sorts latest timestamp first.
	OrderDescending Order = "descending"
)

// ParseOrder parses a configuration string into an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderAscending, OrderDescending:
		return Order(s), nil
	default:
		return "", fmt.Errorf("invalid sort order %q (supported: ascending, descending)", s)
	}
}

// Trigger identifies what caused a batch to be released.
type Trigger string

const (
	// TriggerCount means the buffer reached the configured record count.
	TriggerCount Trigger = "count"
	// TriggerInterval means the engine's internal timer elapsed.
	TriggerInterval Trigger = "interval"
	// TriggerFlush means an external collaborator forced a drain.
	TriggerFlush Trigger = "flush"
	// TriggerShutdown means the final drain on engine stop.
	TriggerShutdown Trigger = "shutdown"
)

// Batch is a group of records released together by one trigger event.
// Records are sorted by timestamp according to the engine's configured
// order; records with equal timestamps preserve their submission order.
type Batch struct {
	ID         string
	Records    []event.Record
	Trigger    Trigger
	ReleasedAt time.Time
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// Collator collates individual records into ordered batches.
// All implementations must be safe for concurrent use.
type Collator interface {
	// Submit hands one record to the collator. A nil return means the
	// collator took ownership of the record; the caller must not forward
	// it through any other path. A non-nil return is a released batch
	// the caller must fully consume.
	Submit(rec event.Record) *Batch

	// Flush synchronously drains whatever is releasable right now,
	// without waiting for either trigger. Returns nil when nothing was
	// buffered.
	Flush() *Batch

	// Stop performs the final release-and-drain and disarms the internal
	// timer. The collator is single-use; subsequent calls return nil.
	Stop() *Batch
}
