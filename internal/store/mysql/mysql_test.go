package mysql

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

func TestInsertSQL(t *testing.T) {
	got := InsertSQL("`mydb`.`logs`", 2)
	assert.True(t, strings.HasPrefix(got, "INSERT INTO `mydb`.`logs` (ts, severity,"), got)
	assert.Equal(t, 2*len(store.Columns), strings.Count(got, "?"))
	assert.Equal(t, 2, strings.Count(got, "("+strings.TrimSuffix(strings.Repeat("?, ", len(store.Columns)), ", ")+")"))
}

func TestRowsPerStatement(t *testing.T) {
	n := RowsPerStatement()
	require.Greater(t, n, 0)
	assert.LessOrEqual(t, n*len(store.Columns), maxPlaceholders)
	assert.Greater(t, (n+1)*len(store.Columns), maxPlaceholders)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "`my``db`.`logs`", TableName(model.Target{Database: "my`db", Collection: "logs"}))
}

func TestMigrationSQL(t *testing.T) {
	stmts := MigrationSQL(model.Target{Database: "mydb", Collection: "logs"})
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS `mydb`", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS `mydb`.`logs`")
	assert.Contains(t, stmts[1], "metrics        JSON")
}

func TestOpen_BadDSN(t *testing.T) {
	_, err := store.Open(context.Background(), "mysql://user@tcp(localhost:3306", zerolog.Nop())
	assert.Error(t, err)
}
