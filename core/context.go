package core

import (
	"context"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/metrics"
)

// Context keys for pipeline options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	runIDKey          contextKey = "runID"
	cacheManagerKey   contextKey = "cacheManager"
	metricsKey        contextKey = "metrics"
)

// WithSuppressHeader marks the context so pipelines print no progress lines.
// The MCP server uses this because stdout carries the protocol.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withRunID stores the run store ID of the current pipeline run.
func withRunID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// runIDFromContext returns the run ID, or 0 when runs are not tracked.
func runIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(runIDKey).(int64)
	return id
}

// contextWithCacheManager makes the cache manager available to worker goroutines.
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	if mgr == nil {
		return ctx
	}
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the cache manager, or nil.
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}

// WithMetrics attaches a metrics registry to the pipeline run.
func WithMetrics(ctx context.Context, m *metrics.Metrics) context.Context {
	return context.WithValue(ctx, metricsKey, m)
}

// metricsFromContext returns the run metrics. The nil value is safe to use.
func metricsFromContext(ctx context.Context) *metrics.Metrics {
	m, _ := ctx.Value(metricsKey).(*metrics.Metrics)
	return m
}
