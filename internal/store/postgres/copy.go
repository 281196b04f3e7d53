package postgres

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

// recordSource implements pgx.CopyFromSource over a batch of records.
type recordSource struct {
	records []*model.Record
	idx     int
	err     error
}

func newRecordSource(records []*model.Record) *recordSource {
	return &recordSource{records: records, idx: -1}
}

// Next advances to the next record. Returns false at the end of the batch.
func (s *recordSource) Next() bool {
	s.idx++
	return s.idx < len(s.records)
}

// Values returns the current record's values in COPY column order.
func (s *recordSource) Values() ([]any, error) {
	vals, err := store.RowValues(s.records[s.idx])
	if err != nil {
		s.err = err
		return nil, err
	}
	return vals, nil
}

func (s *recordSource) Err() error {
	return s.err
}

// Compile-time check that recordSource satisfies the interface.
var _ pgx.CopyFromSource = (*recordSource)(nil)
