// Package mysql implements a MySQL store with chunked multi-row INSERTs.
// The target database maps to a MySQL database and the collection to a table.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

const scheme = "mysql://"

// maxPlaceholders is the server's limit on bound parameters per statement.
const maxPlaceholders = 65535

func init() {
	store.Register("mysql", func(ctx context.Context, uri string, log zerolog.Logger) (store.Store, error) {
		return Open(ctx, strings.TrimPrefix(uri, scheme), log)
	})
}

type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects using a go-sql-driver DSN such as
// "user:pass@tcp(localhost:3306)/".
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// RowsPerStatement is the largest chunk that fits the placeholder limit.
func RowsPerStatement() int {
	return maxPlaceholders / len(store.Columns)
}

// InsertSQL builds a multi-row INSERT for n rows.
func InsertSQL(table string, n int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(store.Columns)), ", ") + ")"
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(store.Columns, ", "))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
	}
	return b.String()
}

// BulkInsert writes records in a single transaction, splitting them into
// statements that respect the placeholder limit.
func (s *Store) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	table := TableName(target)
	chunk := RowsPerStatement()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		args := make([]any, 0, (end-start)*len(store.Columns))
		for _, r := range records[start:end] {
			vals, err := store.RowValues(r)
			if err != nil {
				_ = tx.Rollback()
				return err
			}
			args = append(args, vals...)
		}
		if _, err := tx.ExecContext(ctx, InsertSQL(table, end-start), args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert rows %d-%d into %s: %w", start, end, table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Migrate creates the database and table when missing.
func (s *Store) Migrate(ctx context.Context, target model.Target) error {
	for _, q := range MigrationSQL(target) {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}
	s.log.Info().Str("table", TableName(target)).Msg("table ready")
	return nil
}

// MigrationSQL returns the idempotent DDL for target.
func MigrationSQL(target model.Target) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", quoteIdent(target.Database)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	ts             DATETIME(3)  NOT NULL,
	severity       VARCHAR(8)   NOT NULL,
	component      VARCHAR(64)  NOT NULL,
	message_raw    LONGTEXT     NOT NULL,
	execution_time BIGINT       NOT NULL DEFAULT 0,
	plan_summary   VARCHAR(64)  NULL,
	command        VARCHAR(64)  NULL,
	db             VARCHAR(256) NULL,
	collection     VARCHAR(256) NULL,
	metrics        JSON         NULL,
	INDEX ts_idx (ts)
)`, TableName(target)),
	}
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// TableName returns the backtick-quoted `database`.`collection`.
func TableName(t model.Target) string {
	return quoteIdent(t.Database) + "." + quoteIdent(t.Collection)
}

func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
