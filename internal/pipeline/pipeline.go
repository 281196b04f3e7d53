// Package pipeline streams a server log through the parser into a pool of
// batching workers that bulk-insert into a store.
//
//	source → dispatcher (parse, partition) → N worker queues → batches → store
//
// Lines that fail to parse are skipped with a diagnostic. A failed bulk
// insert is fatal: the first error cancels the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/logload/internal/config"
	"github.com/gyeh/logload/internal/extract"
	"github.com/gyeh/logload/internal/metrics"
	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/parser"
	"github.com/gyeh/logload/internal/skiplog"
	"github.com/gyeh/logload/internal/source"
	"github.com/gyeh/logload/internal/store"
)

// Run executes one load of cfg.FilePath into st. The summary is returned
// even when the run fails, describing how far it got.
func Run(ctx context.Context, st store.Store, log zerolog.Logger, cfg *config.Config, m *metrics.Handler) (*model.RunSummary, error) {
	totalStart := time.Now()
	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()

	target, err := cfg.ParsedTarget()
	if err != nil {
		return nil, err
	}

	src, err := source.Open(cfg.FilePath, cfg.Encoding)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseSource, Err: err}
	}
	defer src.Close()

	var skips *skiplog.Log
	if cfg.SkipLog != "" {
		skips, err = skiplog.Create(cfg.SkipLog)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseSource, Err: err}
		}
		defer func() {
			if err := skips.Close(); err != nil {
				log.Warn().Err(err).Msg("closing skip log failed")
			}
		}()
	}

	part, err := NewPartitioner(cfg.Partition, cfg.Workers)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseDispatch, Err: err}
	}

	workers := make([]*LoadWorker, cfg.Workers)
	for i := range workers {
		workers[i] = NewLoadWorker(i, st, target, cfg.BatchSize, cfg.QueueSize, log, m)
	}
	disp := NewDispatcher(parser.New(extract.NewRuleSet()), workers, part, log, m, skips)

	log.Info().
		Str("file", cfg.FilePath).
		Str("target", target.String()).
		Int("workers", cfg.Workers).
		Int("batch_size", cfg.BatchSize).
		Int("parse_workers", cfg.ParseWorkers).
		Str("partition", cfg.Partition).
		Msg("starting load")

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				return &PipelineError{Phase: PhaseLoad, Err: err}
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		if cfg.ParseWorkers > 1 {
			err = disp.RunParallel(gctx, src, cfg.ParseWorkers)
		} else {
			err = disp.Run(gctx, src)
		}
		return inPhase(PhaseDispatch, err)
	})
	runErr := g.Wait()

	summary := buildSummary(runID, cfg.FilePath, target, disp.Stats(), workers, time.Since(totalStart))
	if runErr != nil {
		log.Error().Err(runErr).
			Int64("lines_read", summary.LinesRead).
			Int64("records_flushed", summary.RecordsFlushed).
			Msg("load aborted")
		return summary, runErr
	}

	log.Info().
		Int64("lines_read", summary.LinesRead).
		Int64("records_parsed", summary.RecordsParsed).
		Int64("lines_skipped", summary.LinesSkipped).
		Int64("records_flushed", summary.RecordsFlushed).
		Int64("batches", summary.Batches).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("load complete")

	if summary.RecordsFlushed != summary.RecordsParsed {
		return summary, &PipelineError{
			Phase: PhaseLoad,
			Err:   fmt.Errorf("flushed %d of %d parsed records", summary.RecordsFlushed, summary.RecordsParsed),
		}
	}
	return summary, nil
}

func buildSummary(runID, path string, target model.Target, ds DispatchStats, workers []*LoadWorker, dur time.Duration) *model.RunSummary {
	s := &model.RunSummary{
		RunID:           runID,
		FilePath:        path,
		Target:          target.String(),
		LinesRead:       ds.LinesRead,
		RecordsParsed:   ds.RecordsParsed,
		LinesSkipped:    ds.LinesSkipped,
		SkippedByReason: ds.SkippedByReason,
		RecordsByWorker: make([]int64, len(workers)),
		DurationTotal:   dur,
	}
	for i, w := range workers {
		ws := w.Stats()
		s.RecordsByWorker[i] = ws.Flushed
		s.RecordsFlushed += ws.Flushed
		s.Batches += ws.Batches
	}
	return s
}

// Interrupted reports whether err came from context cancellation rather than
// a failure inside the pipeline.
func Interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
