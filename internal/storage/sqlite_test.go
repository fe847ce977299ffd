// ABOUTME: Tests for the SQLite KV store
// ABOUTME: Covers roundtrips, overwrites, deletes and reopen persistence

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestKV(t *testing.T) *SQLiteKV {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	kv, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSQLiteKV_GetMissing(t *testing.T) {
	kv := createTestKV(t)

	_, err := kv.Get(context.Background(), "session_user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteKV_SetGetRoundtrip(t *testing.T) {
	kv := createTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "session_theme", []byte(`"dark-blue"`)))

	value, err := kv.Get(ctx, "session_theme")
	require.NoError(t, err)
	assert.Equal(t, `"dark-blue"`, string(value))
}

func TestSQLiteKV_SetOverwrites(t *testing.T) {
	kv := createTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "session_language", []byte(`"ru"`)))
	require.NoError(t, kv.Set(ctx, "session_language", []byte(`"en"`)))

	value, err := kv.Get(ctx, "session_language")
	require.NoError(t, err)
	assert.Equal(t, `"en"`, string(value))
}

func TestSQLiteKV_Delete(t *testing.T) {
	kv := createTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "session_user", []byte(`{}`)))
	require.NoError(t, kv.Delete(ctx, "session_user"))

	_, err := kv.Get(ctx, "session_user")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is fine
	require.NoError(t, kv.Delete(ctx, "session_user"))
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	kv, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "conversations_u1", []byte(`[]`)))
	require.NoError(t, kv.Close())

	reopened, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "conversations_u1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))
}

func TestStorageKeys(t *testing.T) {
	assert.Equal(t, "conversations_user-1", ConversationsKey("user-1"))
	assert.Equal(t, "messages_user-1", MessagesKey("user-1"))
}
