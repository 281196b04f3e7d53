// Package parquet writes each flushed batch as its own Parquet part file
// under <dir>/<database>/<collection>/.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

const scheme = "parquet://"

func init() {
	store.Register("parquet", func(ctx context.Context, uri string, log zerolog.Logger) (store.Store, error) {
		return Open(strings.TrimPrefix(uri, scheme), log)
	})
}

// Store owns no open handles between batches; every BulkInsert creates and
// closes one file, so concurrent workers never share a writer.
type Store struct {
	dir string
	log zerolog.Logger
}

func Open(dir string, log zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("parquet: output directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("parquet: create dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the directory holding part files for target.
func (s *Store) Dir(target model.Target) string {
	return filepath.Join(s.dir, target.Database, target.Collection)
}

// BulkInsert writes records to a new part file. The file is written under a
// temporary name and renamed once complete.
func (s *Store) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("parquet: create dir: %w", err)
	}

	rows := make([]model.ParquetRow, len(records))
	for i, r := range records {
		rows[i] = model.ToParquetRow(r)
	}

	final := filepath.Join(dir, "part-"+uuid.NewString()+".parquet")
	tmp := final + ".tmp"
	if err := writeFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("parquet: rename part: %w", err)
	}
	s.log.Debug().Str("file", final).Int("rows", len(rows)).Msg("part written")
	return nil
}

func writeFile(path string, rows []model.ParquetRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("parquet: create part: %w", err)
	}
	w := parquet.NewGenericWriter[model.ParquetRow](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("parquet: close writer: %w", err)
	}
	return f.Close()
}

// Migrate creates the target directory.
func (s *Store) Migrate(_ context.Context, target model.Target) error {
	if err := os.MkdirAll(s.Dir(target), 0o755); err != nil {
		return fmt.Errorf("parquet: create dir: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}
