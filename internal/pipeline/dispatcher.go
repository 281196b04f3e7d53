package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/logload/internal/metrics"
	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/parser"
	"github.com/gyeh/logload/internal/skiplog"
)

// LineSource is a single-pass sequence of numbered lines.
type LineSource interface {
	Next() bool
	Line() model.RawLine
	Err() error
}

// DispatchStats counts what the dispatcher saw.
type DispatchStats struct {
	LinesRead       int64
	RecordsParsed   int64
	LinesSkipped    int64
	SkippedByReason map[string]int64
}

// Dispatcher parses lines and routes records to workers. A line that fails
// to parse is logged with its number and reason, then dropped; it never
// reaches a worker queue.
type Dispatcher struct {
	parser  *parser.Parser
	workers []*LoadWorker
	part    Partitioner
	log     zerolog.Logger
	metrics *metrics.Handler
	skips   *skiplog.Log

	stats     DispatchStats
	closeOnce sync.Once
}

func NewDispatcher(p *parser.Parser, workers []*LoadWorker, part Partitioner, log zerolog.Logger, m *metrics.Handler, skips *skiplog.Log) *Dispatcher {
	return &Dispatcher{
		parser:  p,
		workers: workers,
		part:    part,
		log:     log.With().Str("component", "dispatcher").Logger(),
		metrics: m,
		skips:   skips,
		stats:   DispatchStats{SkippedByReason: make(map[string]int64)},
	}
}

// Stats returns the dispatcher counters. Call it after Run returns.
func (d *Dispatcher) Stats() DispatchStats {
	return d.stats
}

// CloseQueues closes every worker queue exactly once.
func (d *Dispatcher) CloseQueues() {
	d.closeOnce.Do(func() {
		for _, w := range d.workers {
			w.Close()
		}
	})
}

// Run parses and dispatches every line of src in order, then closes the
// worker queues so they drain.
func (d *Dispatcher) Run(ctx context.Context, src LineSource) error {
	defer d.CloseQueues()

	for src.Next() {
		line := src.Line()
		rec, err := d.parser.Parse(line.Text)
		if err := d.handle(ctx, line, rec, err); err != nil {
			return err
		}
	}
	if err := src.Err(); err != nil {
		return &PipelineError{Phase: PhaseSource, Err: err}
	}
	return nil
}

type parsed struct {
	line model.RawLine
	rec  *model.Record
	err  error
}

// RunParallel parses with n goroutines ahead of dispatch. Records reach the
// workers in completion order rather than line order.
func (d *Dispatcher) RunParallel(ctx context.Context, src LineSource, n int) error {
	defer d.CloseQueues()

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan model.RawLine, n*64)
	results := make(chan parsed, n*64)

	g.Go(func() error {
		defer close(lines)
		for src.Next() {
			select {
			case lines <- src.Line():
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := src.Err(); err != nil {
			return &PipelineError{Phase: PhaseSource, Err: err}
		}
		return nil
	})

	var parsers sync.WaitGroup
	for i := 0; i < n; i++ {
		parsers.Add(1)
		g.Go(func() error {
			defer parsers.Done()
			for line := range lines {
				rec, err := d.parser.Parse(line.Text)
				select {
				case results <- parsed{line: line, rec: rec, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		parsers.Wait()
		close(results)
	}()

	g.Go(func() error {
		for r := range results {
			if err := d.handle(gctx, r.line, r.rec, r.err); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, line model.RawLine, rec *model.Record, perr error) error {
	d.stats.LinesRead++
	d.metrics.IncLinesRead()

	if perr != nil {
		reason := parser.Reason(perr)
		d.stats.LinesSkipped++
		d.stats.SkippedByReason[reason]++
		d.metrics.IncSkipped(reason)
		d.log.Warn().Err(perr).Int64("line", line.Number).Str("reason", reason).Msg("line skipped")
		if err := d.skips.Add(reason, line.Number, line.Text); err != nil {
			return &PipelineError{Phase: PhaseDispatch, Err: err}
		}
		return nil
	}

	rec.Line = line.Number
	idx := d.part.Partition(rec)
	if err := d.workers[idx].Deliver(ctx, rec); err != nil {
		return &PipelineError{Phase: PhaseDispatch, Err: err}
	}
	d.stats.RecordsParsed++
	d.metrics.IncDispatched(idx)
	return nil
}
