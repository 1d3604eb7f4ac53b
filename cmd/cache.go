package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/iocache"
	"github.com/huangsam/attrplot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, bolt, none", backend)
	}
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheStoreSetup also opens the cache store for commands that read it.
func cacheStoreSetup(_ *cobra.Command, _ []string) error {
	if err := cacheSetup(); err != nil {
		return err
	}
	// Initialize caching with the loaded config (no run tracking for cache commands)
	if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheFilePath resolves the file removed by 'cache clear' for file backends.
func cacheFilePath(backend schema.DatabaseBackend, connStr string) string {
	if connStr != "" {
		return connStr
	}
	if backend == schema.BoltBackend {
		return iocache.GetBoltFilePath()
	}
	return iocache.GetDBFilePath()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the plotting commands. This avoids loading
// models and validating render options for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the SHAP attribution cache (improves performance)",
	Long: `Manage the cache of computed SHAP values that speeds up repeated runs.

attrplot caches the attributions of every model and dataset pair, keyed by the
model file and the feature table contents. Entries expire after 7 days.

Supported backends: SQLite (default), MySQL, PostgreSQL, bbolt, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  attrplot cache status

  # Clear cache after retraining models
  attrplot cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached attributions",
	Long: `Delete all cached SHAP attributions from the configured backend.

For SQLite and bbolt: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  attrplot cache clear

  # Clear MySQL cache (set connection string via env variable)
  ATTRPLOT_CACHE_BACKEND=mysql ATTRPLOT_CACHE_DB_CONNECT="..." attrplot cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path := cacheFilePath(cfg.CacheBackend, cfg.CacheDBConnect)
		if err := iocache.ClearCache(cfg.CacheBackend, path, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the attribution cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  attrplot cache status`,
	PreRunE: cacheStoreSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAttributionStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
