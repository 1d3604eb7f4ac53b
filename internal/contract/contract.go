// Package contract provides interfaces and shared utilities for the attrplot CLI's internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/attrplot/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetAttributionStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking pipeline runs and the files they wrote.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(runUUID string, pipeline schema.Pipeline, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalArtifacts int) error

	// RecordArtifact stores one written file for a run
	RecordArtifact(runID int64, artifact schema.Artifact, createdAt time.Time) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllArtifacts returns every recorded artifact ordered by run and path
	GetAllArtifacts() ([]schema.ArtifactRecord, error)

	// Close closes the underlying connection
	Close() error
}
