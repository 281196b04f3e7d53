package parquet

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	goparquet "github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

func TestBulkInsert_PartPerBatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := store.Open(ctx, "parquet://"+dir, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close(ctx)

	target := model.Target{Database: "mydb", Collection: "logs"}
	ran, err := store.Migrate(ctx, st, target)
	require.NoError(t, err)
	assert.True(t, ran)

	ts := time.Date(2023, 5, 10, 15, 0, 0, 123_000_000, time.UTC)
	require.NoError(t, st.BulkInsert(ctx, target, []*model.Record{
		{Timestamp: ts, Severity: "I", Component: "COMMAND", MessageRaw: "find", Command: "find",
			Metrics: []model.Metric{{Name: "docsExamined", Value: 42}}},
		{Timestamp: ts, Severity: "W", Component: "NETWORK", MessageRaw: "slow"},
	}))
	require.NoError(t, st.BulkInsert(ctx, target, []*model.Record{
		{Timestamp: ts, Severity: "E", Component: "WRITE", MessageRaw: "update", ExecutionTime: 3},
	}))
	require.NoError(t, st.BulkInsert(ctx, target, nil))

	partDir := filepath.Join(dir, "mydb", "logs")
	parts, err := Parts(partDir)
	require.NoError(t, err)
	assert.Len(t, parts, 2, "one part file per non-empty batch")

	rows, err := ReadAll(partDir)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	sort.Slice(rows, func(i, j int) bool { return rows[i].Severity < rows[j].Severity })
	// E, I, W
	assert.Equal(t, int64(3), rows[0].ExecutionTime)
	assert.Nil(t, rows[0].Command)
	require.NotNil(t, rows[1].Command)
	assert.Equal(t, "find", *rows[1].Command)
	assert.Equal(t, int64(42), rows[1].Metrics["docsExamined"])
	assert.True(t, rows[1].Timestamp.Equal(ts), "got %v", rows[1].Timestamp)
	assert.Nil(t, rows[2].PlanSummary)
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("  ", zerolog.Nop())
	assert.Error(t, err)
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema(goparquet.SchemaOf(model.ParquetRow{})))

	type partial struct {
		Timestamp int64  `parquet:"timestamp"`
		Message   string `parquet:"message_raw"`
	}
	err := ValidateSchema(goparquet.SchemaOf(partial{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "severity, component")
}

func TestOpenReader_RejectsForeignFile(t *testing.T) {
	type other struct {
		Name string `parquet:"name"`
	}
	path := filepath.Join(t.TempDir(), "part-foreign.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := goparquet.NewGenericWriter[other](f)
	_, err = w.Write([]other{{Name: "x"}})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, err = OpenReader(path)
	assert.ErrorContains(t, err, "missing required columns")
}
