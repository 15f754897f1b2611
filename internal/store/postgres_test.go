// ABOUTME: Tests for the PostgreSQL store implementation
// ABOUTME: Skipped unless PARLOR_TEST_POSTGRES_DSN points at a disposable database

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// newPostgresTestStore connects to the database named by
// PARLOR_TEST_POSTGRES_DSN and truncates all tables so each test starts
// clean. The database must be disposable.
func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("PARLOR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PARLOR_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.pool.Exec(ctx, `TRUNCATE threads, messages, tool_calls`)
	require.NoError(t, err)
	return s
}

func TestPostgresStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newPostgresTestStore(t) })
}
