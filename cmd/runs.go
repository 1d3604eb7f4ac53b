package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/iocache"
	"github.com/huangsam/attrplot/internal/outwriter"
	"github.com/huangsam/attrplot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsMigrateSetup loads the run backend settings without opening the store,
// so migrations can run on a fresh database.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	// Handle empty backend as NoneBackend
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("run-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidRunBackends[backend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("run-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(strings.ToLower(viper.GetString("output")))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	return nil
}

// runsSetup loads the run backend settings and opens the run store.
func runsSetup(cmd *cobra.Command, args []string) error {
	if err := runsMigrateSetup(cmd, args); err != nil {
		return err
	}
	// Initialize the run store only (no attribution caching for runs commands)
	if err := iocache.InitCaching("", "", cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}
	return nil
}

// runsFilePath resolves the SQLite file removed by 'runs clear'.
func runsFilePath(connStr string) string {
	if connStr != "" {
		return connStr
	}
	return iocache.GetRunDBFilePath()
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of plotting runs and the files they wrote",
	Long: `Manage the run history store.

When --run-backend is set, attrplot records every generate and additive run:
- Run metadata (pipeline, timestamps, configuration, duration)
- Every chart and table the run wrote

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run store statistics
  list    - List recorded runs
  export  - Export runs and artifacts to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Record runs in the default SQLite file
  attrplot generate --run-backend sqlite
  attrplot runs status --run-backend sqlite

  # Export for analysis in pandas/DuckDB
  attrplot runs export --run-backend sqlite --output-file history`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete all stored runs and the artifacts they recorded.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  attrplot runs export --run-backend sqlite --output-file backup
  attrplot runs clear --run-backend sqlite`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunBackend, runsFilePath(cfg.RunDBConnect), cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run store statistics and connection details",
	Long: `Show detailed information about the run history store.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total artifacts recorded
- Database table sizes

Examples:
  attrplot runs status --run-backend sqlite`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsListCmd prints the recorded runs.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Long: `Print every recorded run with its pipeline, start time, duration and file count.

Examples:
  attrplot runs list --run-backend sqlite
  attrplot runs list --run-backend sqlite --output json`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		runs, err := iocache.Manager.GetRunStore().GetAllRuns()
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := outwriter.PrintRuns(runs, cfg); err != nil {
			contract.LogFatal("Failed to print runs", err)
		}
	},
}

// runsExportCmd exports run data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all recorded runs and artifacts to Parquet format.

Writes two files:
- <output-file>.runs.parquet - metadata about each run
- <output-file>.artifacts.parquet - every file each run wrote

Requires: --output-file parameter

Examples:
  attrplot runs export --run-backend sqlite --output-file history
  duckdb -c "SELECT kind, count(*) FROM read_parquet('history.artifacts.parquet') GROUP BY kind"`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if _, err := iocache.ExecuteRunExport(iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  attrplot runs migrate --run-backend sqlite

  # Rollback to the initial state
  attrplot runs migrate --run-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		v, err := iocache.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Printf("Run store schema is at version %d.\n", v)
	},
}
