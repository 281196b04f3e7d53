package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/metrics"
	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

// WorkerState is the lifecycle position of a LoadWorker.
type WorkerState int32

const (
	Idle WorkerState = iota
	Accumulating
	Flushing
	Draining
	Terminated
)

func (s WorkerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Flushing:
		return "flushing"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("WorkerState(%d)", int32(s))
	}
}

// WorkerStats is a snapshot of a worker's progress.
type WorkerStats struct {
	ID       int
	Received int64
	Flushed  int64
	Batches  int64
}

// LoadWorker owns one bounded queue and one batch. It appends received
// records to the batch and bulk-inserts it whenever it reaches capacity, then
// flushes the remainder once the queue is closed.
//
// Deliver and Close are called by the dispatcher goroutine only; Run is
// called once on the worker's own goroutine.
type LoadWorker struct {
	id       int
	queue    chan *model.Record
	capacity int
	store    store.Store
	target   model.Target
	log      zerolog.Logger
	metrics  *metrics.Handler

	closed   bool
	state    atomic.Int32
	received atomic.Int64
	flushed  atomic.Int64
	batches  atomic.Int64
}

// NewLoadWorker returns a worker with a batch of capacity records and a
// queue holding up to queueSize records.
func NewLoadWorker(id int, st store.Store, target model.Target, capacity, queueSize int, log zerolog.Logger, m *metrics.Handler) *LoadWorker {
	return &LoadWorker{
		id:       id,
		queue:    make(chan *model.Record, queueSize),
		capacity: capacity,
		store:    st,
		target:   target,
		log:      log.With().Int("worker", id).Logger(),
		metrics:  m,
	}
}

func (w *LoadWorker) ID() int { return w.id }

// State returns the worker's current state.
func (w *LoadWorker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *LoadWorker) setState(s WorkerState) {
	w.state.Store(int32(s))
}

// Stats returns a snapshot of the worker's counters.
func (w *LoadWorker) Stats() WorkerStats {
	return WorkerStats{
		ID:       w.id,
		Received: w.received.Load(),
		Flushed:  w.flushed.Load(),
		Batches:  w.batches.Load(),
	}
}

// Deliver enqueues rec, blocking while the queue is full. It returns
// ErrQueueClosed after Close, or the context error if ctx ends first.
func (w *LoadWorker) Deliver(ctx context.Context, rec *model.Record) error {
	if w.closed {
		return fmt.Errorf("worker %d: %w", w.id, ErrQueueClosed)
	}
	select {
	case w.queue <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals that no more records will be delivered. It is idempotent.
func (w *LoadWorker) Close() {
	if w.closed {
		return
	}
	w.closed = true
	close(w.queue)
}

// Run consumes the queue until it is closed and drained, or until ctx ends.
// A failed flush is returned as *StoreWriteError and stops the worker.
func (w *LoadWorker) Run(ctx context.Context) error {
	batch := make([]*model.Record, 0, w.capacity)
	w.setState(Idle)
	defer w.setState(Terminated)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case rec, ok := <-w.queue:
			if !ok {
				w.setState(Draining)
				if len(batch) > 0 {
					if err := w.flush(ctx, batch); err != nil {
						return err
					}
				}
				w.log.Debug().Int64("records", w.received.Load()).Msg("worker drained")
				return nil
			}

			w.received.Add(1)
			w.setState(Accumulating)
			batch = append(batch, rec)
			if len(batch) < w.capacity {
				continue
			}

			w.setState(Flushing)
			if err := w.flush(ctx, batch); err != nil {
				return err
			}
			// Drop references so flushed records can be collected.
			clear(batch)
			batch = batch[:0]
			w.setState(Idle)
		}
	}
}

func (w *LoadWorker) flush(ctx context.Context, batch []*model.Record) error {
	start := time.Now()
	if err := w.store.BulkInsert(ctx, w.target, batch); err != nil {
		w.log.Error().Err(err).
			Int("rows", len(batch)).
			Int64("first_line", batch[0].Line).
			Int64("last_line", batch[len(batch)-1].Line).
			Msg("bulk insert failed")
		return &StoreWriteError{
			Worker:    w.id,
			Rows:      len(batch),
			FirstLine: batch[0].Line,
			LastLine:  batch[len(batch)-1].Line,
			Err:       err,
		}
	}

	dur := time.Since(start)
	n := w.batches.Add(1)
	total := w.flushed.Add(int64(len(batch)))
	w.metrics.ObserveFlush(w.id, len(batch), dur)
	w.log.Debug().
		Int64("batch", n).
		Int("rows", len(batch)).
		Int64("total", total).
		Dur("duration", dur).
		Msg("batch flushed")
	return nil
}
