package model

import "time"

// ParquetRow mirrors the Parquet schema for a single log record.
// Optional strings are nil when the record left them empty.
type ParquetRow struct {
	Timestamp     time.Time        `parquet:"timestamp,timestamp(millisecond)"`
	Severity      string           `parquet:"severity"`
	Component     string           `parquet:"component"`
	MessageRaw    string           `parquet:"message_raw"`
	ExecutionTime int64            `parquet:"execution_time"`
	PlanSummary   *string          `parquet:"plan_summary,optional"`
	Command       *string          `parquet:"command,optional"`
	DB            *string          `parquet:"db,optional"`
	Collection    *string          `parquet:"collection,optional"`
	Metrics       map[string]int64 `parquet:"metrics"`
}

// ToParquetRow converts r for writing.
func ToParquetRow(r *Record) ParquetRow {
	return ParquetRow{
		Timestamp:     r.Timestamp.UTC(),
		Severity:      r.Severity,
		Component:     r.Component,
		MessageRaw:    r.MessageRaw,
		ExecutionTime: r.ExecutionTime,
		PlanSummary:   optional(r.PlanSummary),
		Command:       optional(r.Command),
		DB:            optional(r.DB),
		Collection:    optional(r.Collection),
		Metrics:       r.MetricMap(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
