package store

import (
	"encoding/json"
	"fmt"

	"github.com/gyeh/logload/internal/model"
)

// Columns is the column layout shared by the relational backends.
var Columns = []string{
	"ts",
	"severity",
	"component",
	"message_raw",
	"execution_time",
	"plan_summary",
	"command",
	"db",
	"collection",
	"metrics",
}

// RowValues returns r's values aligned with Columns. Empty strings become
// nil (SQL NULL); metrics are encoded as a JSON object, nil when absent.
func RowValues(r *model.Record) ([]any, error) {
	metrics, err := MetricsJSON(r)
	if err != nil {
		return nil, err
	}
	return []any{
		r.Timestamp.UTC(),
		r.Severity,
		r.Component,
		r.MessageRaw,
		r.ExecutionTime,
		NullString(r.PlanSummary),
		NullString(r.Command),
		NullString(r.DB),
		NullString(r.Collection),
		metrics,
	}, nil
}

// MetricsJSON encodes r's metrics as a JSON object, or nil when there are none.
func MetricsJSON(r *model.Record) (any, error) {
	m := r.MetricMap()
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metrics at line %d: %w", r.Line, err)
	}
	return string(b), nil
}

// NullString maps "" to nil.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
