package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/attrplot/schema"
)

// Default values for configuration.
const (
	DefaultWidth      = 1000
	DefaultHeight     = 500
	DefaultFontSize   = 12.0
	DefaultClass      = 1
	DefaultSeed       = 1
	MinImageDimension = 100
	MaxImageDimension = 8000
)

// DefaultDropColumns lists columns removed from feature tables before modeling.
var DefaultDropColumns = []string{"date"}

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for a pipeline run.
// This struct remains the "final, validated" config.
type Config struct {
	DataDir     string
	ModelDir    string
	OutputRoot  string
	IDColumn    string
	DropColumns []string
	IDs         []string
	Classes     []int
	Workers     int

	ImageFormat schema.ImageFormat
	Width       int
	Height      int
	FontSize    float64
	FontFile    string
	LabelMode   schema.LabelMode
	Preview     bool

	TablePath   string
	IndexColumn string
	Sample      int
	Seed        int64

	ExportAttributions bool

	Output      schema.OutputMode
	OutputFile  string
	MetricsFile string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in progress output
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	TablePathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir        string `mapstructure:"data-dir"`
	ModelDir       string `mapstructure:"model-dir"`
	OutputRoot     string `mapstructure:"output-root"`
	IDColumn       string `mapstructure:"id-column"`
	Workers        int    `mapstructure:"workers"`
	ImageFormat    string `mapstructure:"image-format"`
	Width          int    `mapstructure:"width"`
	Height         int    `mapstructure:"height"`
	FontFile       string `mapstructure:"font-file"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	MetricsFile    string `mapstructure:"metrics-file"`
	Preview        string `mapstructure:"preview"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunBackend     string `mapstructure:"run-backend"`
	RunDBConnect   string `mapstructure:"run-db-connect"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	FontSize float64 `mapstructure:"font-size"`

	// --- Fields from generateCmd.Flags() ---
	DropColumns        string `mapstructure:"drop-columns"`
	IDs                string `mapstructure:"ids"`
	Classes            string `mapstructure:"classes"`
	LabelMode          string `mapstructure:"label-mode"`
	ExportAttributions string `mapstructure:"export-attributions"`

	// --- Fields from additiveCmd.Flags() ---
	IndexColumn string `mapstructure:"index-column"`
	Sample      int    `mapstructure:"sample"`
	Seed        int64  `mapstructure:"seed"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.DropColumns = slices.Clone(c.DropColumns)
	clone.IDs = slices.Clone(c.IDs)
	clone.Classes = slices.Clone(c.Classes)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRenderOptions(cfg, input); err != nil {
		return err
	}
	if err := processSelections(cfg, input); err != nil {
		return err
	}
	if err := processAdditiveOptions(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.BoltBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, bolt, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidRunBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Cache and run history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runDBPath := cfg.RunDBConnect
		if runDBPath == "" {
			runDBPath = GetRunDBFilePath()
		}
		if cacheDBPath == runDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates directory, worker and report fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.MetricsFile = input.MetricsFile
	cfg.DataDir = filepath.Clean(defaultString(input.DataDir, "./data"))
	cfg.ModelDir = filepath.Clean(defaultString(input.ModelDir, "./models"))
	cfg.IDColumn = defaultString(strings.TrimSpace(input.IDColumn), schema.DefaultIDColumn)

	emojis, err := ParseBoolString(defaultString(input.Emoji, "no"))
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Output root ---
	root := strings.TrimSpace(defaultString(input.OutputRoot, schema.DefaultOutputRoot))
	if err := ValidateOutputRoot(root, cfg.DataDir, cfg.ModelDir); err != nil {
		return err
	}
	cfg.OutputRoot = filepath.Clean(root)

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	return nil
}

// ValidateOutputRoot rejects roots whose removal would be destructive: the
// filesystem root, or any directory holding the working directory, the home
// directory or one of the given input paths.
func ValidateOutputRoot(root string, inputs ...string) error {
	if strings.TrimSpace(root) == "" {
		return fmt.Errorf("output root cannot be empty")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return fmt.Errorf("invalid output root %q: %w", root, err)
	}
	if abs == filepath.Dir(abs) {
		return fmt.Errorf("output root %q is the filesystem root", root)
	}

	protected := map[string]string{}
	if wd, err := os.Getwd(); err == nil {
		protected[wd] = "the working directory"
	}
	if home, err := os.UserHomeDir(); err == nil {
		protected[home] = "the home directory"
	}
	for _, in := range inputs {
		if in == "" {
			continue
		}
		if p, err := filepath.Abs(in); err == nil {
			protected[p] = "input " + in
		}
	}
	for p, what := range protected {
		if containsPath(abs, p) {
			return fmt.Errorf("output root %q would remove %s", root, what)
		}
	}
	return nil
}

// containsPath reports whether path is dir or lies below it.
func containsPath(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// processRenderOptions validates image size, format, font and label options.
func processRenderOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.ImageFormat = schema.ImageFormat(strings.ToLower(defaultString(input.ImageFormat, string(schema.PNGFormat))))
	if _, ok := schema.ValidImageFormats[cfg.ImageFormat]; !ok {
		return fmt.Errorf("invalid image format '%s'. must be png, svg", input.ImageFormat)
	}

	cfg.Width = defaultInt(input.Width, DefaultWidth)
	cfg.Height = defaultInt(input.Height, DefaultHeight)
	for _, dim := range []int{cfg.Width, cfg.Height} {
		if dim < MinImageDimension || dim > MaxImageDimension {
			return fmt.Errorf("image dimensions must be between %d and %d pixels (received %dx%d)", MinImageDimension, MaxImageDimension, cfg.Width, cfg.Height)
		}
	}

	cfg.FontSize = input.FontSize
	if cfg.FontSize == 0 {
		cfg.FontSize = DefaultFontSize
	}
	if cfg.FontSize < 4 || cfg.FontSize > 72 {
		return fmt.Errorf("font size must be between 4 and 72 (received %.1f)", cfg.FontSize)
	}

	cfg.FontFile = strings.TrimSpace(input.FontFile)
	if cfg.FontFile != "" {
		if _, err := os.Stat(cfg.FontFile); err != nil {
			return fmt.Errorf("font file %q: %w", cfg.FontFile, err)
		}
	}

	cfg.LabelMode = schema.LabelMode(strings.ToLower(defaultString(input.LabelMode, string(schema.ValueLabels))))
	if _, ok := schema.ValidLabelModes[cfg.LabelMode]; !ok {
		return fmt.Errorf("invalid label mode '%s'. must be value, percentile", input.LabelMode)
	}

	preview, err := ParseBoolString(defaultString(input.Preview, "no"))
	if err != nil {
		return fmt.Errorf("invalid --preview value: %w", err)
	}
	cfg.Preview = preview

	return nil
}

// processSelections parses the row identifiers, class indices and dropped columns.
func processSelections(cfg *Config, input *ConfigRawInput) error {
	cfg.IDs = ParseCSVList(input.IDs)

	if input.DropColumns == "" {
		cfg.DropColumns = slices.Clone(DefaultDropColumns)
	} else {
		cfg.DropColumns = ParseCSVList(input.DropColumns)
	}
	if slices.Contains(cfg.DropColumns, cfg.IDColumn) {
		return fmt.Errorf("cannot drop the identifier column %q", cfg.IDColumn)
	}

	classes, err := ParseClassList(input.Classes)
	if err != nil {
		return err
	}
	cfg.Classes = classes

	export, err := ParseBoolString(defaultString(input.ExportAttributions, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --export-attributions value: %w", err)
	}
	cfg.ExportAttributions = export

	return nil
}

// processAdditiveOptions handles the additive table parameters.
func processAdditiveOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.TablePath = strings.TrimSpace(input.TablePathStr)
	cfg.IndexColumn = strings.TrimSpace(input.IndexColumn)
	if cfg.IndexColumn != "" && cfg.IndexColumn == cfg.IDColumn {
		return fmt.Errorf("--index-column must differ from the identifier column %q", cfg.IDColumn)
	}

	if input.Sample < 0 {
		return fmt.Errorf("--sample must be 0 or greater (received %d)", input.Sample)
	}
	cfg.Sample = input.Sample
	if cfg.Sample > 0 && len(cfg.IDs) > 0 {
		return fmt.Errorf("--sample and --ids cannot be combined")
	}

	cfg.Seed = input.Seed
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	return nil
}

// ParseCSVList splits a comma separated list, trimming blanks and dropping empty parts.
func ParseCSVList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseClassList parses a list like "0,1,2" into class indices.
// An empty list yields the default class.
func ParseClassList(s string) ([]int, error) {
	parts := ParseCSVList(s)
	if len(parts) == 0 {
		return []int{DefaultClass}, nil
	}
	classes := make([]int, 0, len(parts))
	for _, p := range parts {
		k, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid class index '%s': %w", p, err)
		}
		if k < 0 {
			return nil, fmt.Errorf("class index must be 0 or greater (received %d)", k)
		}
		if !slices.Contains(classes, k) {
			classes = append(classes, k)
		}
	}
	return classes, nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
