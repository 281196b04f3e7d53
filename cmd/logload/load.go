package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/logload/internal/config"
	"github.com/gyeh/logload/internal/exitcode"
	"github.com/gyeh/logload/internal/logging"
	"github.com/gyeh/logload/internal/metrics"
	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/pipeline"
	"github.com/gyeh/logload/internal/store"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Parse a server log and bulk-load its records",
	RunE:  runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to the server log file (required)")
	f.StringVar(&cfg.Encoding, "encoding", config.DefaultEncoding, "Source text encoding, e.g. utf-8, windows-1252, latin1")
	f.IntVar(&cfg.Workers, "workers", config.DefaultWorkers, "Number of load workers")
	f.IntVar(&cfg.BatchSize, "batch-size", config.DefaultBatchSize, "Records per bulk insert")
	f.IntVar(&cfg.QueueSize, "queue-size", config.DefaultQueueSize, "Records buffered per worker queue")
	f.IntVar(&cfg.ParseWorkers, "parse-workers", config.DefaultParseWorkers, "Parser goroutines; above 1 records reach workers out of line order")
	f.StringVar(&cfg.Partition, "partition", config.DefaultPartition, "Worker selection: round-robin or hash (by namespace)")
	f.StringVar(&cfg.SkipLog, "skip-log", "", "Write skipped lines to this CSV file")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	f.StringVar(&cfg.PushgatewayURL, "pushgateway-url", "", "Push final metrics to this Pushgateway")
	f.BoolVar(&cfg.NoMigrate, "no-migrate", false, "Do not create the destination before loading")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log, err := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.UsageError)
	}
	if code := load(log); code != exitcode.Success {
		os.Exit(code)
	}
	return nil
}

// load runs one load and returns the exit code. Cleanup is deferred here so
// it completes before the process exits.
func load(log zerolog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateWithURI(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return exitcode.UsageError
	}
	target, _ := cfg.ParsedTarget()

	st, err := store.Open(ctx, cfg.URI, storeLogger(log))
	if err != nil {
		log.Error().Err(err).Msg("store connection failed")
		return exitcode.StoreConnError
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing store failed")
		}
	}()

	if !cfg.NoMigrate {
		applied, err := store.Migrate(ctx, st, target)
		if err != nil {
			log.Error().Err(err).Str("target", target.String()).Msg("store migration failed")
			return exitcode.StoreConnError
		}
		if applied {
			log.Debug().Str("target", target.String()).Msg("destination ready")
		}
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, m, log)
		srv.Start()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	summary, runErr := pipeline.Run(ctx, st, log, &cfg, m)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := m.Push(pushCtx, cfg.PushgatewayURL, ""); err != nil {
			log.Warn().Err(err).Msg("metrics push failed")
		}
		cancel()
	}

	if summary != nil {
		printSummary(summary, runErr == nil)
	}
	if runErr != nil {
		code := exitCodeFor(runErr)
		log.Error().Err(runErr).Int("exit_code", code).Msg("load failed")
		return code
	}
	return exitcode.Success
}

// exitCodeFor maps a pipeline failure to the process exit code.
func exitCodeFor(err error) int {
	if pipeline.Interrupted(err) {
		return exitcode.Interrupted
	}
	var pe *pipeline.PipelineError
	if !errors.As(err, &pe) {
		return exitcode.ValidationError
	}
	switch pe.Phase {
	case pipeline.PhaseSource:
		return exitcode.SourceError
	case pipeline.PhaseDispatch:
		return exitcode.DispatchError
	default:
		return exitcode.StoreWriteError
	}
}

func printSummary(s *model.RunSummary, ok bool) {
	status := "complete"
	if !ok {
		status = "aborted"
	}
	fmt.Printf("Load %s: %d lines read, %d records loaded into %s in %d batches (%.1fs)\n",
		status, s.LinesRead, s.RecordsFlushed, s.Target, s.Batches, s.DurationTotal.Seconds())
	if s.LinesSkipped == 0 {
		return
	}
	fmt.Printf("Skipped %d lines:\n", s.LinesSkipped)
	reasons := make([]string, 0, len(s.SkippedByReason))
	for r := range s.SkippedByReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("  %-22s %d\n", r, s.SkippedByReason[r])
	}
}

// storeLogger returns the logger used for store lifecycle messages.
func storeLogger(log zerolog.Logger) zerolog.Logger {
	return log.With().Str("component", "store").Logger()
}
