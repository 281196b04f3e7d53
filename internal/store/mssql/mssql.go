// Package mssql implements a SQL Server store using the go-mssqldb bulk copy
// API. The target database maps to a schema and the collection to a table.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/rs/zerolog"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

func init() {
	store.Register("sqlserver", func(ctx context.Context, uri string, log zerolog.Logger) (store.Store, error) {
		return Open(ctx, uri, log)
	})
}

type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open validates dsn and connects.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Store, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// BulkInsert bulk-copies records into [database].[collection] in one
// transaction.
func (s *Store) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(TableName(target), mssql.BulkOptions{}, store.Columns...))
	if err != nil {
		rollback()
		return fmt.Errorf("prepare bulk: %w", err)
	}
	for _, r := range records {
		vals, err := store.RowValues(r)
		if err == nil {
			_, err = stmt.ExecContext(ctx, vals...)
		}
		if err != nil {
			_ = stmt.Close()
			rollback()
			return fmt.Errorf("bulk row at line %d: %w", r.Line, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug().Int64("rows", n).Str("table", TableName(target)).Msg("bulk copy complete")
	return nil
}

// Migrate creates the schema and table when missing.
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
	fqn := TableName(target)
	return []string{
		fmt.Sprintf("IF SCHEMA_ID(%s) IS NULL EXEC('CREATE SCHEMA %s')",
			quoteString(target.Database), strings.ReplaceAll(msIdent(target.Database), "'", "''")),
		fmt.Sprintf(`IF OBJECT_ID(%s, 'U') IS NULL CREATE TABLE %s (
	ts             DATETIME2(3)  NOT NULL,
	severity       NVARCHAR(8)   NOT NULL,
	component      NVARCHAR(64)  NOT NULL,
	message_raw    NVARCHAR(MAX) NOT NULL,
	execution_time BIGINT        NOT NULL DEFAULT 0,
	plan_summary   NVARCHAR(64)  NULL,
	command        NVARCHAR(64)  NULL,
	db             NVARCHAR(256) NULL,
	collection     NVARCHAR(256) NULL,
	metrics        NVARCHAR(MAX) NULL
)`, quoteString(fqn), fqn),
	}
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// TableName returns the bracket-quoted [schema].[table] for target.
func TableName(t model.Target) string {
	return msIdent(t.Database) + "." + msIdent(t.Collection)
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func quoteString(s string) string { return "N'" + strings.ReplaceAll(s, "'", "''") + "'" }
