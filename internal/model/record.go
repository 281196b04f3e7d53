package model

import "time"

// Stored field names, in the order Fields emits them.
const (
	FieldTimestamp     = "timestamp"
	FieldSeverity      = "severity"
	FieldComponent     = "component"
	FieldMessageRaw    = "message_raw"
	FieldExecutionTime = "execution_time"
	FieldPlanSummary   = "plan_summary"
	FieldCommand       = "command"
	FieldDB            = "db"
	FieldCollection    = "collection"
)

// RawLine is one line of the source file with its 1-based position.
type RawLine struct {
	Number int64
	Text   string
}

// Metric is a numeric counter found in a log message, e.g. docsExamined.
type Metric struct {
	Name  string
	Value int64
}

// Record is the structured form of a single server log line.
// Enrichment strings are empty when the message did not expose them.
type Record struct {
	Timestamp     time.Time
	Severity      string
	Component     string
	MessageRaw    string
	ExecutionTime int64 // milliseconds, 0 when absent
	PlanSummary   string
	Command       string
	DB            string
	Collection    string
	Metrics       []Metric // discovery order

	// Line is the source line number. It is diagnostic only and never stored.
	Line int64
}

// Field is one stored key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Fields returns the record's stored fields in canonical order. String fields
// holding "" are omitted. Metrics follow the fixed fields; a metric reported
// twice keeps its first position and its last value.
func (r *Record) Fields() []Field {
	fields := make([]Field, 0, 9+len(r.Metrics))
	fields = append(fields,
		Field{FieldTimestamp, r.Timestamp},
		Field{FieldSeverity, r.Severity},
		Field{FieldComponent, r.Component},
		Field{FieldMessageRaw, r.MessageRaw},
		Field{FieldExecutionTime, r.ExecutionTime},
		Field{FieldPlanSummary, r.PlanSummary},
		Field{FieldCommand, r.Command},
		Field{FieldDB, r.DB},
		Field{FieldCollection, r.Collection},
	)

	out := fields[:0]
	for _, f := range fields {
		if s, ok := f.Value.(string); ok && s == "" {
			continue
		}
		out = append(out, f)
	}

	pos := make(map[string]int, len(r.Metrics))
	for _, m := range r.Metrics {
		if i, seen := pos[m.Name]; seen {
			out[i].Value = m.Value
			continue
		}
		pos[m.Name] = len(out)
		out = append(out, Field{m.Name, m.Value})
	}
	return out
}

// MetricMap returns the metrics keyed by name, last value wins.
// It returns nil when the record has no metrics.
func (r *Record) MetricMap() map[string]int64 {
	if len(r.Metrics) == 0 {
		return nil
	}
	m := make(map[string]int64, len(r.Metrics))
	for _, mt := range r.Metrics {
		m[mt.Name] = mt.Value
	}
	return m
}

// Namespace returns "db.collection", or "" when neither is known.
func (r *Record) Namespace() string {
	if r.DB == "" && r.Collection == "" {
		return ""
	}
	return r.DB + "." + r.Collection
}
