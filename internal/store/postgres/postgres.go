// Package postgres loads records into PostgreSQL with COPY.
// The target database maps to a schema and the collection to a table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

func init() {
	open := func(ctx context.Context, uri string, log zerolog.Logger) (store.Store, error) {
		return Open(ctx, uri, log)
	}
	store.Register("postgres", open)
	store.Register("postgresql", open)
}

// Store is a pgxpool-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open creates a pool with session params suitable for bulk loads.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Store, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, log: log}, nil
}

// NewPool creates a pgxpool with statement_timeout disabled and verifies it
// with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	// Disable statement timeout for bulk loading sessions.
	cfg.ConnConfig.RuntimeParams["statement_timeout"] = "0"
	cfg.ConnConfig.RuntimeParams["application_name"] = "logload"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// BulkInsert COPYs records into the target table. Each call checks out its
// own pool connection.
func (s *Store) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{target.Database, target.Collection},
		store.Columns,
		newRecordSource(records),
	)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", target, err)
	}
	if n != int64(len(records)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", target, n, len(records))
	}
	s.log.Debug().Int64("rows", n).Dur("duration", time.Since(start)).Msg("copy complete")
	return nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// Pool exposes the underlying pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

var _ store.Migrator = (*Store)(nil)
