package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseCaching()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite cache and run store", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		runPath := filepath.Join(dir, "runs.db")

		require.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, runPath))
		assert.NotNil(t, Manager.GetAttributionStore())
		assert.NotNil(t, Manager.GetRunStore())

		CloseCaching()
		assert.FileExists(t, cachePath)
		assert.FileExists(t, runPath)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetManager(t)
		path := filepath.Join(t.TempDir(), "cache.bolt")
		assert.NoError(t, InitCaching(schema.BoltBackend, path, "", ""))
		assert.NoError(t, InitCaching(schema.BoltBackend, path, "", ""))
		assert.Nil(t, Manager.GetRunStore())
		CloseCaching()
		CloseCaching()
	})

	t.Run("disabled", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitCaching("", "", "", ""))
		assert.Nil(t, Manager.GetAttributionStore())
		assert.Nil(t, Manager.GetRunStore())
	})

	t.Run("bad run backend closes cache", func(t *testing.T) {
		resetManager(t)
		path := filepath.Join(t.TempDir(), "cache.bolt")
		err := InitCaching(schema.BoltBackend, path, schema.DatabaseBackend("oracle"), "")
		require.Error(t, err)
		assert.Nil(t, Manager.GetAttributionStore())

		// The bolt file lock was released
		store, err := NewBoltStore(path)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)

	// Missing files are fine
	assert.NoError(t, ClearCache(schema.BoltBackend, filepath.Join(dir, "none.bolt"), ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearCache(schema.DatabaseBackend("oracle"), "", ""))
}

func TestClearRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewRunStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearRuns(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)
	assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
	assert.Error(t, ClearRuns(schema.BoltBackend, path, ""))
}
