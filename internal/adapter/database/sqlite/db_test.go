package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/adapter/database/sqlite"
)

func TestWithQueryLog_ClosesTracedHandle(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:log-%s?mode=memory&cache=shared", uuid.NewString())

	traced, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	require.NoError(t, traced.PingContext(ctx))

	logged := sqlite.WithQueryLog(dsn, traced, "sqlite")
	defer logged.Close()

	assert.ErrorContains(t, traced.PingContext(ctx), "database is closed")
	assert.NoError(t, logged.PingContext(ctx))
}

func TestOpen_WithQueryLog(t *testing.T) {
	db, err := sqlite.Open(sqlite.Options{Path: t.TempDir() + "/todolist.db", LogQuery: true})
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM todos").Scan(&count)

	assert.NoError(t, err)
	assert.Zero(t, count)
}
