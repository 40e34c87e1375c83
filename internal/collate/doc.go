// Package collate implements the collation engine that turns a stream of
// individual records into ordered batches.
//
// The engine accumulates records in a single in-memory buffer and releases
// the buffer as a batch when either of two independent triggers fires: the
// configured record count is reached, or the configured interval elapses.
//
// # Engine
//
// An Engine is constructed once per run and armed with Start:
//
//	eng, err := collate.New(collate.Config{
//	    Count:    1000,
//	    Interval: 60 * time.Second,
//	    Order:    pkgcollate.OrderAscending,
//	}, logger, metrics, nil)
//	if err != nil {
//	    // invalid configuration is fatal
//	}
//	eng.Start()
//
// # Submission and ownership
//
// Records are submitted one at a time. A nil return transfers ownership of
// the record to the engine; the caller must not forward it through any
// other path until the engine re-emits it inside a batch:
//
//	if batch := eng.Submit(rec); batch != nil {
//	    for _, r := range batch.Records {
//	        emit(r) // r.Collated is set, records arrive in sorted order
//	    }
//	}
//
// Records that already carry the collated marker are never re-buffered,
// guarding against reprocessing of the engine's own output.
//
// # Triggers
//
// The count trigger runs synchronously inside Submit. The interval trigger
// runs on a background ticker that only marks the buffer ready; the ready
// batch is handed out by the next Submit or Flush call. Flush is the
// drain-on-idle path for an external collaborator that wants output without
// waiting for either trigger.
//
// # Ordering
//
// Batches are sorted by record timestamp, ascending or descending per
// configuration, with a stable sort so records with equal timestamps keep
// their submission order. Across batches only FIFO release order holds.
//
// # Shutdown
//
// Stop forces one final release-and-drain and disarms the timer, so no
// buffered record is silently dropped:
//
//	if final := eng.Stop(); final != nil {
//	    for _, r := range final.Records {
//	        emit(r)
//	    }
//	}
//
// # Concurrency
//
// All buffer mutations and state transitions happen under one engine-scoped
// mutex. Submit blocks only for the duration of the critical section (lock
// hold time is O(batch size) for the sort); it never waits for a timer
// tick. Timer ticks racing a count-triggered release serialize on the lock
// and both run to completion.
package collate
