package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/emclab/station-booking/internal/database"
)

// newBizDB opens a fresh in-memory Biz database.  MaxOpenConns(1) keeps the
// pool on a single connection; each new sqlite connection would otherwise see
// its own empty :memory: database.
func newBizDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.InitBizSchema(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUserDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.InitUserSchema(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
