package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/model"
)

func init() {
	Register("memory", func(context.Context, string, zerolog.Logger) (Store, error) {
		return NewMemory(), nil
	})
}

// Memory keeps records in process. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records map[model.Target][]model.Record
	batches map[model.Target]int
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[model.Target][]model.Record),
		batches: make(map[model.Target]int),
	}
}

func (m *Memory) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[target] = append(m.records[target], *r)
	}
	m.batches[target]++
	return nil
}

// Records returns a copy of everything inserted into target.
func (m *Memory) Records(target model.Target) []model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Record(nil), m.records[target]...)
}

// Batches returns the number of BulkInsert calls made for target.
func (m *Memory) Batches(target model.Target) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches[target]
}

func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
