package iocache

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.bolt")
	store, err := NewBoltStore(path)
	require.NoError(t, err)

	_, _, _, err = store.Get("missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	require.NoError(t, store.Set("k", []byte(`{"phi":[1,2]}`), 3, 500))
	value, version, ts, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"phi":[1,2]}`), value)
	assert.Equal(t, 3, version)
	assert.Equal(t, int64(500), ts)

	require.NoError(t, store.Set("j", nil, 3, 100))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "bolt", status.Backend)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(500, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(100, 0), status.OldestEntryTime)
	assert.Positive(t, status.TableSizeBytes)
	require.NoError(t, store.Close())

	// Entries survive reopening
	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	_, version, _, err = reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestBoltEntryEncoding(t *testing.T) {
	raw := encodeBoltEntry([]byte("payload"), 7, -5)
	value, version, ts, err := decodeBoltEntry(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
	assert.Equal(t, 7, version)
	assert.Equal(t, int64(-5), ts)

	_, _, _, err = decodeBoltEntry([]byte{1, 2})
	assert.ErrorContains(t, err, "corrupt")
}
