package iocache

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
	"go.etcd.io/bbolt"
)

// attributionBucket holds every cached attribution entry.
const attributionBucket = "attributions"

// boltHeaderSize is the version (4 bytes) plus timestamp (8 bytes) stored before each payload.
const boltHeaderSize = 12

// BoltStore keeps serialized attributions in a local bbolt file.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

var _ contract.CacheStore = &BoltStore{} // Compile-time check

// NewBoltStore opens (or creates) the bbolt file at path.
// An empty path uses the default location in the home directory.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		path = GetBoltFilePath()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache at %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(attributionBucket)); err != nil {
			return fmt.Errorf("create %s bucket: %w", attributionBucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, path: path}, nil
}

// Get retrieves a value by key. A missing key yields sql.ErrNoRows,
// matching the SQL stores.
func (bs *BoltStore) Get(key string) ([]byte, int, int64, error) {
	var value []byte
	var version int
	var ts int64

	err := bs.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(attributionBucket)).Get([]byte(key))
		if raw == nil {
			return sql.ErrNoRows
		}
		var err error
		value, version, ts, err = decodeBoltEntry(raw)
		return err
	})
	if err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces a key/value pair.
func (bs *BoltStore) Set(key string, value []byte, version int, timestamp int64) error {
	return bs.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(attributionBucket)).Put([]byte(key), encodeBoltEntry(value, version, timestamp))
	})
}

// GetStatus returns status information about the bolt file.
func (bs *BoltStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(schema.BoltBackend),
		Connected: bs.db != nil,
	}

	err := bs.db.View(func(tx *bbolt.Tx) error {
		status.TableSizeBytes = tx.Size()

		var oldest, newest int64
		err := tx.Bucket([]byte(attributionBucket)).ForEach(func(_, raw []byte) error {
			_, _, ts, err := decodeBoltEntry(raw)
			if err != nil {
				return err
			}
			if status.TotalEntries == 0 || ts < oldest {
				oldest = ts
			}
			if status.TotalEntries == 0 || ts > newest {
				newest = ts
			}
			status.TotalEntries++
			return nil
		})
		if err != nil {
			return err
		}
		if status.TotalEntries > 0 {
			status.LastEntryTime = time.Unix(newest, 0)
			status.OldestEntryTime = time.Unix(oldest, 0)
		}
		return nil
	})
	if err != nil {
		return status, fmt.Errorf("failed to scan bolt cache: %w", err)
	}
	return status, nil
}

// Close closes the bolt file.
func (bs *BoltStore) Close() error {
	if bs.db != nil {
		return bs.db.Close()
	}
	return nil
}

func encodeBoltEntry(value []byte, version int, timestamp int64) []byte {
	buf := make([]byte, boltHeaderSize+len(value))
	binary.BigEndian.PutUint32(buf[0:4], uint32(version))
	binary.BigEndian.PutUint64(buf[4:12], uint64(timestamp))
	copy(buf[boltHeaderSize:], value)
	return buf
}

// decodeBoltEntry copies the payload out of raw, which is only valid inside the transaction.
func decodeBoltEntry(raw []byte) ([]byte, int, int64, error) {
	if len(raw) < boltHeaderSize {
		return nil, 0, 0, fmt.Errorf("corrupt bolt cache entry of %d bytes", len(raw))
	}
	version := int(binary.BigEndian.Uint32(raw[0:4]))
	ts := int64(binary.BigEndian.Uint64(raw[4:12]))
	value := make([]byte, len(raw)-boltHeaderSize)
	copy(value, raw[boltHeaderSize:])
	return value, version, ts, nil
}
