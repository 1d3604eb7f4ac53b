package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns the smallest raw input that passes validation.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Workers:      2,
		CacheBackend: "none",
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, filepath.Clean(schema.DefaultOutputRoot), cfg.OutputRoot)
	assert.Equal(t, "id", cfg.IDColumn)
	assert.Equal(t, []string{"date"}, cfg.DropColumns)
	assert.Equal(t, []int{1}, cfg.Classes)
	assert.Empty(t, cfg.IDs)
	assert.Equal(t, schema.PNGFormat, cfg.ImageFormat)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
	assert.Equal(t, DefaultFontSize, cfg.FontSize)
	assert.Equal(t, schema.ValueLabels, cfg.LabelMode)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, int64(DefaultSeed), cfg.Seed)
	assert.True(t, cfg.ExportAttributions)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
	assert.False(t, cfg.Preview)
	assert.Equal(t, schema.NoneBackend, cfg.CacheBackend)
	assert.Equal(t, schema.DatabaseBackend(""), cfg.RunBackend)
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name: "selections are parsed",
			mutate: func(in *ConfigRawInput) {
				in.IDs = " 7, 12 ,,3"
				in.Classes = "0,2,2"
				in.DropColumns = "date,region"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"7", "12", "3"}, cfg.IDs)
				assert.Equal(t, []int{0, 2}, cfg.Classes)
				assert.Equal(t, []string{"date", "region"}, cfg.DropColumns)
			},
		},
		{
			name:        "zero workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "invalid image format",
			mutate:      func(in *ConfigRawInput) { in.ImageFormat = "pdf" },
			expectError: true,
		},
		{
			name:   "svg image format",
			mutate: func(in *ConfigRawInput) { in.ImageFormat = "SVG" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SVGFormat, cfg.ImageFormat)
			},
		},
		{
			name:        "image too small",
			mutate:      func(in *ConfigRawInput) { in.Width = 10 },
			expectError: true,
		},
		{
			name:        "font size out of range",
			mutate:      func(in *ConfigRawInput) { in.FontSize = 200 },
			expectError: true,
		},
		{
			name:        "missing font file",
			mutate:      func(in *ConfigRawInput) { in.FontFile = "/does/not/exist.ttf" },
			expectError: true,
		},
		{
			name:        "invalid label mode",
			mutate:      func(in *ConfigRawInput) { in.LabelMode = "raw" },
			expectError: true,
		},
		{
			name:        "negative class",
			mutate:      func(in *ConfigRawInput) { in.Classes = "-1" },
			expectError: true,
		},
		{
			name:        "non numeric class",
			mutate:      func(in *ConfigRawInput) { in.Classes = "one" },
			expectError: true,
		},
		{
			name:        "dropping the identifier column",
			mutate:      func(in *ConfigRawInput) { in.DropColumns = "id" },
			expectError: true,
		},
		{
			name:        "output root is working directory",
			mutate:      func(in *ConfigRawInput) { in.OutputRoot = "." },
			expectError: true,
		},
		{
			name:        "output root is filesystem root",
			mutate:      func(in *ConfigRawInput) { in.OutputRoot = "/" },
			expectError: true,
		},
		{
			name:        "parquet output needs a file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: true,
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name: "sample with ids",
			mutate: func(in *ConfigRawInput) {
				in.Sample = 3
				in.IDs = "1"
			},
			expectError: true,
		},
		{
			name:        "negative sample",
			mutate:      func(in *ConfigRawInput) { in.Sample = -1 },
			expectError: true,
		},
		{
			name:        "index column equals id column",
			mutate:      func(in *ConfigRawInput) { in.IndexColumn = "id" },
			expectError: true,
		},
		{
			name:   "additive options",
			mutate: func(in *ConfigRawInput) {
				in.TablePathStr = " table.csv "
				in.IndexColumn = "date"
				in.Sample = 2
				in.Seed = 42
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "table.csv", cfg.TablePath)
				assert.Equal(t, "date", cfg.IndexColumn)
				assert.Equal(t, 2, cfg.Sample)
				assert.Equal(t, int64(42), cfg.Seed)
			},
		},
		{
			name:        "invalid emoji",
			mutate:      func(in *ConfigRawInput) { in.Emoji = "sometimes" },
			expectError: true,
		},
		{
			name:        "invalid cache backend",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "redis" },
			expectError: true,
		},
		{
			name:   "bolt cache backend",
			mutate: func(in *ConfigRawInput) { in.CacheBackend = "bolt" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.BoltBackend, cfg.CacheBackend)
			},
		},
		{
			name:        "bolt run backend is not offered",
			mutate:      func(in *ConfigRawInput) { in.RunBackend = "bolt" },
			expectError: true,
		},
		{
			name:        "mysql run backend without connection string",
			mutate:      func(in *ConfigRawInput) { in.RunBackend = "mysql" },
			expectError: true,
		},
		{
			name: "shared sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.CacheDBConnect = "/tmp/attrplot.db"
				in.RunBackend = "sqlite"
				in.RunDBConnect = "/tmp/attrplot.db"
			},
			expectError: true,
		},
		{
			name: "separate sqlite files",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.CacheDBConnect = "/tmp/cache.db"
				in.RunBackend = "sqlite"
				in.RunDBConnect = "/tmp/runs.db"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SQLiteBackend, cfg.RunBackend)
				assert.Equal(t, "/tmp/runs.db", cfg.RunDBConnect)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"bolt empty", schema.BoltBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/attrplot", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@localhost/attrplot", true},
		{"mysql no db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=attrplot", false},
		{"postgres no host", schema.PostgreSQLBackend, "dbname=attrplot", true},
		{"postgres no db", schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOutputRoot(t *testing.T) {
	base := t.TempDir()
	data := filepath.Join(base, "inputs", "data")
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name  string
		root  string
		valid bool
	}{
		{"separate directory", filepath.Join(base, "visualization"), true},
		{"below an input", filepath.Join(data, "plots"), true},
		{"empty", " ", false},
		{"filesystem root", "/", false},
		{"working directory", ".", false},
		{"parent of working directory", filepath.Dir(wd), false},
		{"input itself", data, false},
		{"parent of an input", filepath.Join(base, "inputs"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputRoot(tt.root, data)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{IDs: []string{"1"}, Classes: []int{1}, DropColumns: []string{"date"}}
	clone := cfg.Clone()
	clone.IDs[0] = "2"
	clone.Classes[0] = 0
	clone.DropColumns = append(clone.DropColumns, "x")

	assert.Equal(t, []string{"1"}, cfg.IDs)
	assert.Equal(t, []int{1}, cfg.Classes)
	assert.Equal(t, []string{"date"}, cfg.DropColumns)
}

func TestParseClassList(t *testing.T) {
	classes, err := ParseClassList("")
	require.NoError(t, err)
	assert.Equal(t, []int{DefaultClass}, classes)

	classes, err = ParseClassList("2, 0")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, classes)
}
