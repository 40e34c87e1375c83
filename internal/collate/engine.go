// Package collate implements the collation engine: a single buffer that
// accumulates records and releases them as time-ordered batches.
package collate

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/Touchkin/eventcollate/pkg/collate"
	"github.com/Touchkin/eventcollate/pkg/event"
)

// Ensure implementation satisfies interface at compile time.
var _ collate.Collator = (*Engine)(nil)

// state models the buffer lifecycle. Filling accepts appends; Ready means
// the buffer holds a sorted, finalized set of records awaiting drain.
type state int

const (
	stateFilling state = iota
	stateReady
)

// MetricsCollector defines metrics operations for the collation engine.
type MetricsCollector interface {
	IncRecordsBuffered(topic string)
	IncRecordsSkipped(topic string, reason string)
	IncBatchesReleased(trigger string)
	ObserveBatchSize(trigger string, size float64)
	ObserveSortDuration(seconds float64)
	SetPendingRecords(count float64)
}

// Config contains the collation engine configuration.
// All fields are read at construction and immutable thereafter.
type Config struct {
	// Count is the record count threshold that triggers a release.
	Count int
	// Interval is the period of the internal flush timer.
	Interval time.Duration
	// Order is the sort direction applied at release time.
	Order collate.Order
}

// MatchedFunc is invoked for every record of a released batch, in sorted
// order, while the engine lock is held. Implementations must not call back
// into the engine.
type MatchedFunc func(rec *event.Record)

// Engine collates submitted records into ordered batches. It owns one
// buffer and one lock; a background timer marks the buffer ready on every
// interval so that residual records are released even when the count
// threshold is never reached.
//
// An Engine is single-use: Start arms the timer once, Stop disarms it for
// good. Once Submit has accepted a record (returned nil), the engine is the
// sole owner of that record until it re-emits it inside a released batch
// with its collated marker set.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics MetricsCollector
	clock   clockz.Clock
	matched MatchedFunc

	mu      sync.Mutex
	pending []event.Record
	state   state
	trigger collate.Trigger

	ticker  clockz.Ticker
	done    chan struct{}
	loop    sync.WaitGroup
	started bool
	stopped bool
}

// New creates a collation engine. A nil clock defaults to the real clock;
// metrics may be nil.
func New(cfg Config, logger *slog.Logger, metrics MetricsCollector, clock clockz.Clock) (*Engine, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("collate: count must be positive, got %d", cfg.Count)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("collate: interval must be positive, got %s", cfg.Interval)
	}
	if _, err := collate.ParseOrder(string(cfg.Order)); err != nil {
		return nil, fmt.Errorf("collate: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockz.RealClock
	}

	return &Engine{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		pending: make([]event.Record, 0, cfg.Count),
		done:    make(chan struct{}),
	}, nil
}

// OnMatched registers the hook called for each released record.
// Must be set before Start.
func (e *Engine) OnMatched(fn MatchedFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.matched = fn
}

// Start arms the internal flush timer. Calling Start more than once, or
// after Stop, is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started || e.stopped {
		return
	}
	e.started = true
	e.ticker = e.clock.NewTicker(e.cfg.Interval)

	e.loop.Add(1)
	go e.run()

	e.logger.Info("collation engine started",
		"count", e.cfg.Count,
		"interval", e.cfg.Interval,
		"order", e.cfg.Order,
	)
}

// run is the timer-driven flush loop. On every tick it releases whatever is
// buffered; the resulting ready batch is drained by the next Submit or
// Flush call.
func (e *Engine) run() {
	defer e.loop.Done()

	for {
		select {
		case <-e.done:
			return
		case <-e.ticker.C():
			e.mu.Lock()
			if !e.stopped {
				e.releaseLocked(collate.TriggerInterval)
			}
			e.mu.Unlock()
		}
	}
}

// Submit hands one record to the engine. Records already carrying the
// collated marker are skipped, guarding against reprocessing of the
// engine's own output. A non-nil return is a released batch; nil means the
// record is buffered and now owned by the engine.
func (e *Engine) Submit(rec event.Record) *collate.Batch {
	if rec.Collated {
		if e.metrics != nil {
			e.metrics.IncRecordsSkipped(rec.Kafka.Topic, "already_collated")
		}
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		e.logger.Error("record submitted after engine stop, dropping",
			"event_id", eventID(&rec),
		)
		if e.metrics != nil {
			e.metrics.IncRecordsSkipped(rec.Kafka.Topic, "engine_stopped")
		}
		return nil
	}

	e.pending = append(e.pending, rec)
	if e.metrics != nil {
		e.metrics.IncRecordsBuffered(rec.Kafka.Topic)
	}

	if len(e.pending) >= e.cfg.Count {
		e.releaseLocked(collate.TriggerCount)
	} else if e.state == stateReady {
		// A timer tick marked the buffer ready before this append; fold
		// the new record into the sorted set so the drain stays ordered.
		e.releaseLocked(e.trigger)
	}

	if e.state == stateReady {
		return e.drainLocked()
	}

	if e.metrics != nil {
		e.metrics.SetPendingRecords(float64(len(e.pending)))
	}
	return nil
}

// Flush is the drain-on-idle path, invoked by an external flush
// collaborator independent of the internal timer. It always synchronously
// returns whatever was releasable at this instant; nil when the buffer was
// empty.
func (e *Engine) Flush() *collate.Batch {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil
	}
	if e.state != stateReady {
		e.releaseLocked(collate.TriggerFlush)
	}
	return e.drainLocked()
}

// Stop forces one final release-and-drain and disarms the timer. No
// further ticks occur afterwards; the engine cannot be restarted. The
// returned batch holds any residual buffered records, nil if there were
// none.
func (e *Engine) Stop() *collate.Batch {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	e.releaseLocked(collate.TriggerShutdown)
	batch := e.drainLocked()
	started := e.started
	e.mu.Unlock()

	if started {
		e.ticker.Stop()
	}
	close(e.done)
	e.loop.Wait()

	e.logger.Info("collation engine stopped", "final_batch_records", batch.Len())
	return batch
}

// Ready reports whether the buffer currently holds a released batch
// awaiting drain.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateReady
}

// Len returns the number of buffered records.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// releaseLocked sorts the buffer by timestamp per the configured order and
// transitions to Ready. Ties preserve arrival order. Legal on an empty
// buffer: the result is an empty ready batch whose drain is a no-op.
// Callers must hold e.mu.
func (e *Engine) releaseLocked(tr collate.Trigger) {
	start := e.clock.Now()

	if e.cfg.Order == collate.OrderDescending {
		sort.SliceStable(e.pending, func(i, j int) bool {
			return e.pending[i].Timestamp().After(e.pending[j].Timestamp())
		})
	} else {
		sort.SliceStable(e.pending, func(i, j int) bool {
			return e.pending[i].Timestamp().Before(e.pending[j].Timestamp())
		})
	}

	e.state = stateReady
	e.trigger = tr

	if e.metrics != nil {
		e.metrics.ObserveSortDuration(e.clock.Now().Sub(start).Seconds())
	}
}

// drainLocked empties the buffer and finalizes the released batch: every
// record gets its collated marker, batch identity and sequence, and is
// handed to the matched hook in sorted order. Draining outside the Ready
// state is a programming error. Callers must hold e.mu.
func (e *Engine) drainLocked() *collate.Batch {
	if e.state != stateReady {
		panic("collate: drain attempted while buffer is still filling")
	}

	records := e.pending
	e.pending = make([]event.Record, 0, e.cfg.Count)
	e.state = stateFilling

	if e.metrics != nil {
		e.metrics.SetPendingRecords(0)
	}

	if len(records) == 0 {
		return nil
	}

	batch := &collate.Batch{
		ID:         uuid.NewString(),
		Records:    records,
		Trigger:    e.trigger,
		ReleasedAt: e.clock.Now(),
	}

	for i := range batch.Records {
		rec := &batch.Records[i]
		rec.Collated = true
		rec.CollatedAt = batch.ReleasedAt
		rec.BatchID = batch.ID
		rec.Sequence = i
		if e.matched != nil {
			e.matched(rec)
		}
	}

	if e.metrics != nil {
		e.metrics.IncBatchesReleased(string(batch.Trigger))
		e.metrics.ObserveBatchSize(string(batch.Trigger), float64(len(batch.Records)))
	}

	e.logger.Debug("batch released",
		"batch_id", batch.ID,
		"records", len(batch.Records),
		"trigger", batch.Trigger,
	)
	return batch
}

func eventID(rec *event.Record) string {
	if rec.Event == nil {
		return ""
	}
	return rec.Event.ID
}
