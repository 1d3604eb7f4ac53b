package iocache

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryCache(t *testing.T) contract.CacheStore {
	t.Helper()
	store, err := NewCacheStore(attributionTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCacheStoreSQLite(t *testing.T) {
	store := newMemoryCache(t)

	_, _, _, err := store.Get("missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	require.NoError(t, store.Set("k", []byte("first"), 1, 100))
	value, version, ts, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(100), ts)

	// Set replaces the existing entry
	require.NoError(t, store.Set("k", []byte("second"), 2, 200))
	value, version, ts, err = store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(200), ts)
}

func TestCacheStoreStatus(t *testing.T) {
	store := newMemoryCache(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("x"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("y"), 1, 3000))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(3000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStoreNone(t *testing.T) {
	store, err := NewCacheStore(attributionTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad name; DROP", schema.SQLiteBackend, ":memory:")
	assert.ErrorContains(t, err, "invalid table name")

	_, err = NewCacheStore("", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore(attributionTable, schema.DatabaseBackend("redis"), "")
	assert.ErrorContains(t, err, "unsupported cache backend")
}

func TestCacheStoreBoltDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bolt")
	store, err := NewCacheStore(attributionTable, schema.BoltBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, ok := store.(*BoltStore)
	assert.True(t, ok)
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 1))
}
