// Package sqlite implements a SQLite-backed store using database/sql and the
// pure-Go modernc driver. Each batch is inserted inside one transaction with
// a prepared statement; SQLite has no bulk-load API.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

const scheme = "sqlite://"

func init() {
	store.Register("sqlite", func(ctx context.Context, uri string, log zerolog.Logger) (store.Store, error) {
		return Open(ctx, strings.TrimPrefix(uri, scheme), log)
	})
}

// Store writes every target into a table named <database>_<collection>.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens the database file at dsn, e.g. "logs.db" or "file:logs.db?cache=shared".
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows one writer; workers queue on the single connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: busy_timeout: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// TableName maps a target to its SQLite table.
func TableName(t model.Target) string {
	return t.Database + "_" + t.Collection
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// InsertSQL builds the single-row INSERT for table.
func InsertSQL(table string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(store.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(store.Columns, ", "), placeholders)
}

func (s *Store) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, InsertSQL(TableName(target)))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		vals, err := store.RowValues(r)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert line %d: %w", r.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Migrate creates the target table and its timestamp index.
func (s *Store) Migrate(ctx context.Context, target model.Target) error {
	table := TableName(target)
	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	ts             TIMESTAMP NOT NULL,
	severity       TEXT      NOT NULL,
	component      TEXT      NOT NULL,
	message_raw    TEXT      NOT NULL,
	execution_time INTEGER   NOT NULL DEFAULT 0,
	plan_summary   TEXT,
	command        TEXT,
	db             TEXT,
	collection     TEXT,
	metrics        TEXT
)`, quoteIdent(table)),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (ts)", quoteIdent(table+"_ts_idx"), quoteIdent(table)),
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite: exec: %w", err)
		}
	}
	s.log.Info().Str("table", table).Msg("table ready")
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}
