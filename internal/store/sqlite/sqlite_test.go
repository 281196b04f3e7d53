package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

func TestInsertSQL(t *testing.T) {
	got := InsertSQL("mydb_logs")
	want := `INSERT INTO "mydb_logs" (ts, severity, component, message_raw, execution_time, plan_summary, command, db, collection, metrics) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	assert.Equal(t, want, got)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs.db")

	st, err := store.Open(ctx, "sqlite://"+path, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close(ctx)

	target := model.Target{Database: "mydb", Collection: "logs"}
	ran, err := store.Migrate(ctx, st, target)
	require.NoError(t, err)
	require.True(t, ran)

	ts := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)
	recs := []*model.Record{
		{Timestamp: ts, Severity: "I", Component: "WRITE", MessageRaw: "update mydb.orders", Command: "update", DB: "mydb", Collection: "orders", ExecutionTime: 3},
		{Timestamp: ts, Severity: "I", Component: "NETWORK", MessageRaw: "connection accepted",
			Metrics: []model.Metric{{Name: "reslen", Value: 230}}},
	}
	require.NoError(t, st.BulkInsert(ctx, target, recs))

	db := st.(*Store).DB()
	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM "mydb_logs"`).Scan(&count))
	assert.Equal(t, 2, count)

	var cmd sql.NullString
	var metrics sql.NullString
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT command, metrics FROM "mydb_logs" WHERE component = 'NETWORK'`).Scan(&cmd, &metrics))
	assert.False(t, cmd.Valid, "empty command must be stored as NULL")
	assert.JSONEq(t, `{"reslen":230}`, metrics.String)
}

func TestStore_ConcurrentWorkers(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, filepath.Join(t.TempDir(), "logs.db"), zerolog.Nop())
	require.NoError(t, err)
	defer st.Close(ctx)

	target := model.Target{Database: "a", Collection: "b"}
	require.NoError(t, st.Migrate(ctx, target))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			batch := make([]*model.Record, 25)
			for i := range batch {
				batch[i] = &model.Record{Timestamp: time.Now(), Severity: "I", Component: "COMMAND", MessageRaw: "x"}
			}
			errs[w] = st.BulkInsert(ctx, target, batch)
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var count int
	require.NoError(t, st.DB().QueryRowContext(ctx, `SELECT count(*) FROM "a_b"`).Scan(&count))
	assert.Equal(t, 100, count)
}

func TestStore_MissingTable(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, filepath.Join(t.TempDir(), "logs.db"), zerolog.Nop())
	require.NoError(t, err)
	defer st.Close(ctx)

	err = st.BulkInsert(ctx, model.Target{Database: "no", Collection: "table"},
		[]*model.Record{{Severity: "I", Component: "C", MessageRaw: "m"}})
	assert.Error(t, err)
}
