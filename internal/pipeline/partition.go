package pipeline

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/gyeh/logload/internal/config"
	"github.com/gyeh/logload/internal/model"
)

// Partitioner picks the worker index for a record. Implementations are used
// by a single dispatcher goroutine and need not be safe for concurrent use.
type Partitioner interface {
	Partition(rec *model.Record) int
}

// NewPartitioner returns the partitioner for mode over n workers.
func NewPartitioner(mode string, n int) (Partitioner, error) {
	if n < 1 {
		return nil, fmt.Errorf("partitioner needs at least one worker, got %d", n)
	}
	switch mode {
	case config.PartitionRoundRobin, "":
		return &RoundRobin{n: n}, nil
	case config.PartitionHash:
		return &HashPartitioner{n: uint64(n)}, nil
	default:
		return nil, fmt.Errorf("unknown partition mode %q", mode)
	}
}

// RoundRobin cycles through workers in order, one record each.
type RoundRobin struct {
	n    int
	next int
}

func (p *RoundRobin) Partition(*model.Record) int {
	i := p.next
	p.next = (p.next + 1) % p.n
	return i
}

// HashPartitioner routes records with the same namespace to the same worker.
// Records without a namespace are keyed by component.
type HashPartitioner struct {
	n uint64
}

func (p *HashPartitioner) Partition(rec *model.Record) int {
	key := rec.Namespace()
	if key == "" {
		key = rec.Component
	}
	return int(xxh3.HashString(key) % p.n)
}
