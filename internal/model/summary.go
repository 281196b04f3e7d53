package model

import "time"

// RunSummary captures metrics from a single load run.
type RunSummary struct {
	RunID           string
	FilePath        string
	Target          string
	LinesRead       int64
	RecordsParsed   int64
	LinesSkipped    int64
	SkippedByReason map[string]int64
	RecordsFlushed  int64
	Batches         int64
	RecordsByWorker []int64
	DurationTotal   time.Duration
}
