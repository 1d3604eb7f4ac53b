// Package cmd defines the command-line interface for attrplot.
package cmd

import (
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(additiveCmd)
	rootCmd.AddCommand(importanceCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", "./data", "Directory with X_<dataset> and y_<dataset> tables")
	rootCmd.PersistentFlags().String("model-dir", "./models", "Directory with exported tree ensemble models")
	rootCmd.PersistentFlags().StringP("output-root", "o", schema.DefaultOutputRoot, "Directory that receives the charts")
	rootCmd.PersistentFlags().String("id-column", schema.DefaultIDColumn, "Identifier column name")
	rootCmd.PersistentFlags().String("ids", "", "Comma-separated row identifiers to chart individually")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("image-format", string(schema.PNGFormat), "Image format: png or svg")
	rootCmd.PersistentFlags().Int("width", contract.DefaultWidth, "Image width in pixels")
	rootCmd.PersistentFlags().Int("height", contract.DefaultHeight, "Image height in pixels")
	rootCmd.PersistentFlags().Float64("font-size", contract.DefaultFontSize, "Base font size for every chart")
	rootCmd.PersistentFlags().String("font-file", "", "Optional TrueType font used for every chart")
	rootCmd.PersistentFlags().String("preview", "no", "Print rendered PNG charts inline as sixel graphics (yes/no)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Report format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write the report to")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file after a run")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or bolt or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Cache connection string or file path (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("run-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Run history connection string (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in progress output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this rotating file")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of generateCmd to Viper
	generateCmd.Flags().String("drop-columns", "date", "Comma-separated columns removed before modeling")
	generateCmd.Flags().String("classes", "1", "Comma-separated class indices plotted for classifiers")
	generateCmd.Flags().String("label-mode", string(schema.ValueLabels), "Force plot feature labels: value or percentile")
	generateCmd.Flags().String("export-attributions", "yes", "Write attribution CSV tables next to the plots (yes/no)")
	if err := viper.BindPFlags(generateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding generate flags", err)
	}

	// Bind all flags of additiveCmd to Viper
	additiveCmd.Flags().String("index-column", "", "Column used for x axis tick labels")
	additiveCmd.Flags().Int("sample", 0, "Render this many randomly chosen identifiers instead of all")
	additiveCmd.Flags().Int64("seed", contract.DefaultSeed, "Random seed for --sample")
	if err := viper.BindPFlags(additiveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding additive flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
