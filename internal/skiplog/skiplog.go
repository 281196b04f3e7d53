// Package skiplog records lines that produced no record as CSV rows of
// reason, line_number and raw_line.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

var header = []string{"reason", "line_number", "raw_line"}

// Log is a CSV sink of skipped lines. It is safe for concurrent use.
// A nil *Log discards everything.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	reasons map[string]int64
}

// Create opens path for writing, creating parent directories, and writes the
// header row.
func Create(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open skip log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write skip log header: %w", err)
	}
	return &Log{f: f, w: w, reasons: make(map[string]int64)}, nil
}

// Add appends one skipped line.
func (l *Log) Add(reason string, line int64, raw string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[reason]++
	return l.w.Write([]string{reason, strconv.FormatInt(line, 10), raw})
}

// Counts returns a copy of the per-reason row counts.
func (l *Log) Counts() map[string]int64 {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64, len(l.reasons))
	for k, v := range l.reasons {
		out[k] = v
	}
	return out
}

// Close flushes buffered rows and closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return fmt.Errorf("flush skip log: %w", err)
	}
	return l.f.Close()
}
