package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/logload/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the target schema, table and timestamp index. Every
// statement uses IF NOT EXISTS, so Migrate is idempotent.
func (s *Store) Migrate(ctx context.Context, target model.Target) error {
	stmts, err := MigrationSQL(target)
	if err != nil {
		return err
	}
	for _, m := range stmts {
		s.log.Info().Str("migration", m.Name).Str("target", target.String()).Msg("applying migration")
		if _, err := s.pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("execute migration %s: %w", m.Name, err)
		}
	}
	s.log.Info().Int("count", len(stmts)).Msg("all migrations applied")
	return nil
}

// Migration is one rendered DDL file.
type Migration struct {
	Name string
	SQL  string
}

// MigrationSQL renders the embedded migrations for target in filename order.
func MigrationSQL(target model.Target) ([]Migration, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	r := strings.NewReplacer(
		"{{schema}}", pgx.Identifier{target.Database}.Sanitize(),
		"{{table}}", pgx.Identifier{target.Collection}.Sanitize(),
		"{{ts_index}}", pgx.Identifier{target.Collection + "_ts_idx"}.Sanitize(),
	)

	out := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(migrations, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Name: name, SQL: r.Replace(string(data))})
	}
	return out, nil
}
