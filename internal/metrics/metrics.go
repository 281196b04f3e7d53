// Package metrics exposes Prometheus counters for a load run. Collectors live
// on a private registry so several runs in one process (tests) do not clash.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Handler holds the run collectors. A nil *Handler is valid and records
// nothing.
type Handler struct {
	reg *prometheus.Registry

	LinesRead         prometheus.Counter
	LinesSkipped      *prometheus.CounterVec
	RecordsDispatched *prometheus.CounterVec
	BatchesFlushed    *prometheus.CounterVec
	RowsFlushed       *prometheus.CounterVec
	FlushDuration     prometheus.Histogram
}

func New() *Handler {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Handler{
		reg: reg,
		LinesRead: f.NewCounter(prometheus.CounterOpts{
			Name: "logload_lines_read_total",
			Help: "The total number of source lines read",
		}),
		LinesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logload_lines_skipped_total",
			Help: "The total number of lines that produced no record",
		}, []string{"reason"}),
		RecordsDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logload_records_dispatched_total",
			Help: "The total number of records delivered to a worker queue",
		}, []string{"worker"}),
		BatchesFlushed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logload_batches_flushed_total",
			Help: "The total number of batches written to the store",
		}, []string{"worker"}),
		RowsFlushed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logload_rows_flushed_total",
			Help: "The total number of records written to the store",
		}, []string{"worker"}),
		FlushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "logload_flush_duration_seconds",
			Help:    "The latency of bulk-insert calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncLinesRead increments the lines read counter
func (h *Handler) IncLinesRead() {
	if h == nil {
		return
	}
	h.LinesRead.Inc()
}

// IncSkipped increments the skipped lines counter for reason
func (h *Handler) IncSkipped(reason string) {
	if h == nil {
		return
	}
	h.LinesSkipped.WithLabelValues(reason).Inc()
}

// IncDispatched increments the per-worker dispatch counter
func (h *Handler) IncDispatched(worker int) {
	if h == nil {
		return
	}
	h.RecordsDispatched.WithLabelValues(strconv.Itoa(worker)).Inc()
}

// ObserveFlush records one successful bulk insert of rows records
func (h *Handler) ObserveFlush(worker, rows int, d time.Duration) {
	if h == nil {
		return
	}
	w := strconv.Itoa(worker)
	h.BatchesFlushed.WithLabelValues(w).Inc()
	h.RowsFlushed.WithLabelValues(w).Add(float64(rows))
	h.FlushDuration.Observe(d.Seconds())
}

// Registry returns the registry holding the run collectors.
func (h *Handler) Registry() *prometheus.Registry {
	return h.reg
}

// HTTPHandler serves the registry in the Prometheus exposition format.
func (h *Handler) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(h.reg, promhttp.HandlerOpts{})
}

// Push sends the current values to a Pushgateway under job.
func (h *Handler) Push(ctx context.Context, url, job string) error {
	if h == nil || url == "" {
		return nil
	}
	if job == "" {
		job = "logload"
	}
	if err := push.New(url, job).Gatherer(h.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
