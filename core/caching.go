package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/explain"
	"github.com/huangsam/attrplot/internal/frame"
	"github.com/huangsam/attrplot/internal/model"
	"gonum.org/v1/gonum/mat"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// maxCacheAge is how long cached attributions stay valid.
const maxCacheAge = 7 * 24 * time.Hour

// cachedExplanation is the stored form of an explain.Explanation.
type cachedExplanation struct {
	Features      []string      `json:"features"`
	ExpectedValue []float64     `json:"expected_value"`
	Rows          int           `json:"rows"`
	Values        [][][]float64 `json:"values"` // output x row x feature
}

// cachedExplain returns the attributions of m over rows, going through the
// attribution cache when one is configured.
func cachedExplain(ctx context.Context, m *model.Model, ds *frame.Dataset, rows [][]float64) (*explain.Explanation, error) {
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return explain.Explain(ctx, m, rows)
	}
	store := mgr.GetAttributionStore()
	if store == nil {
		// Fallback to direct computation
		return explain.Explain(ctx, m, rows)
	}

	key, err := generateCacheKey(m, ds)
	if err != nil {
		contract.LogWarn("Attribution cache key unavailable", err)
		return explain.Explain(ctx, m, rows)
	}

	// Check for cache hit
	if result := checkCacheHit(store, key, m.Features, len(rows)); result != nil {
		metricsFromContext(ctx).CacheLookup(true)
		return result, nil
	}
	metricsFromContext(ctx).CacheLookup(false)

	// Cache miss: compute and store
	return computeAndStore(ctx, store, key, m, rows)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string, features []string, rows int) *explain.Explanation {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > maxCacheAge {
		return nil
	}
	var entry cachedExplanation
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	if entry.Rows != rows || !slices.Equal(entry.Features, features) {
		return nil
	}
	result, err := entry.explanation()
	if err != nil {
		return nil
	}
	return result
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, store contract.CacheStore, key string, m *model.Model, rows [][]float64) (*explain.Explanation, error) {
	result, err := explain.Explain(ctx, m, rows)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(newCachedExplanation(result))
	if err != nil {
		contract.LogWarn("Failed to encode attributions for the cache", err)
		return result, nil
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to store attributions in the cache", err)
	}
	return result, nil
}

// generateCacheKey hashes the model file, the feature file and the row
// identifiers, so any content change invalidates the entry.
func generateCacheKey(m *model.Model, ds *frame.Dataset) (string, error) {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00", strings.Join(m.Features, ","))
	for _, path := range []string{m.Path, ds.XPath} {
		if err := hashFile(h, path); err != nil {
			return "", err
		}
	}
	_, _ = io.WriteString(h, strings.Join(ds.IDs, ","))
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// hashFile writes the length-prefixed content of path into w.
func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%d\x00", info.Size())
	_, err = io.Copy(w, f)
	return err
}

func newCachedExplanation(e *explain.Explanation) cachedExplanation {
	entry := cachedExplanation{
		Features:      e.Features,
		ExpectedValue: e.ExpectedValue,
		Rows:          e.Rows(),
		Values:        make([][][]float64, e.Outputs()),
	}
	for k := range entry.Values {
		out := make([][]float64, entry.Rows)
		for i := range out {
			out[i] = e.Row(k, i)
		}
		entry.Values[k] = out
	}
	return entry
}

func (c cachedExplanation) explanation() (*explain.Explanation, error) {
	if len(c.Values) == 0 || len(c.Values) != len(c.ExpectedValue) || c.Rows == 0 || len(c.Features) == 0 {
		return nil, errors.New("malformed cache entry")
	}
	values := make([]*mat.Dense, len(c.Values))
	for k, out := range c.Values {
		if len(out) != c.Rows {
			return nil, fmt.Errorf("cache entry output %d has %d rows, expected %d", k, len(out), c.Rows)
		}
		dense := mat.NewDense(c.Rows, len(c.Features), nil)
		for i, row := range out {
			if len(row) != len(c.Features) {
				return nil, fmt.Errorf("cache entry row %d has %d values", i, len(row))
			}
			dense.SetRow(i, row)
		}
		values[k] = dense
	}
	return &explain.Explanation{
		Features:      c.Features,
		ExpectedValue: c.ExpectedValue,
		Values:        values,
	}, nil
}
