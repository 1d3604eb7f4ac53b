// Package parquet reads attribution tables and exports attrplot reports
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/attrplot/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single pipeline run.
// This struct maps to the attrplot_runs database table.
type Run struct {
	RunID          int64      `parquet:"run_id,snappy"`
	RunUUID        string     `parquet:"run_uuid,snappy"`
	Pipeline       string     `parquet:"pipeline,snappy,dict"`
	StartTime      time.Time  `parquet:"start_time,snappy"`
	EndTime        *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs  *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalArtifacts int32      `parquet:"total_artifacts,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Artifact represents one file written by a run.
// This struct maps to the attrplot_artifacts database table.
type Artifact struct {
	RunID      int64     `parquet:"run_id,snappy"`
	Path       string    `parquet:"path,snappy"`
	Kind       string    `parquet:"kind,snappy,dict"`
	Model      string    `parquet:"model,snappy,dict"`
	Dataset    string    `parquet:"dataset,snappy,dict"`
	Feature    string    `parquet:"feature,snappy,dict"`
	RowID      string    `parquet:"row_id,snappy"`
	ClassIndex int32     `parquet:"class_index,snappy"` // -1 when not class specific
	CreatedAt  time.Time `parquet:"created_at,snappy"`
}

// Importance is one ranked feature of a (model, dataset) pair.
type Importance struct {
	Model      string  `parquet:"model,snappy,dict"`
	Dataset    string  `parquet:"dataset,snappy,dict"`
	Source     string  `parquet:"source,snappy,dict"`
	Rank       int32   `parquet:"rank,snappy"`
	Feature    string  `parquet:"feature,snappy"`
	Importance float64 `parquet:"importance,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteArtifactsParquet writes artifacts to a Parquet file.
func WriteArtifactsParquet(data []Artifact, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteImportanceParquet writes ranked features to a Parquet file.
func WriteImportanceParquet(data []Importance, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet derives the schema from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			RunUUID:        record.RunUUID,
			Pipeline:       record.Pipeline,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			TotalArtifacts: record.TotalArtifacts,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertArtifactRecords converts schema.ArtifactRecord to Artifact for Parquet export.
func ConvertArtifactRecords(records []schema.ArtifactRecord) []Artifact {
	result := make([]Artifact, len(records))
	for i, record := range records {
		result[i] = Artifact(record)
	}
	return result
}

// ConvertImportanceResults flattens ranked features for Parquet export.
func ConvertImportanceResults(results []schema.ImportanceResult) []Importance {
	var out []Importance
	for _, res := range results {
		for _, f := range res.Features {
			out = append(out, Importance{
				Model:      res.Model,
				Dataset:    res.Dataset,
				Source:     res.Source,
				Rank:       int32(f.Rank),
				Feature:    f.Feature,
				Importance: f.Importance,
			})
		}
	}
	return out
}

// ReadTable reads a flat Parquet file into a header and string records,
// the shape frame.New expects. Nulls become empty cells.
func ReadTable(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()

	var header []string
	for _, columnPath := range reader.Schema().Columns() {
		if len(columnPath) != 1 {
			return nil, nil, fmt.Errorf("nested column %s is not supported", strings.Join(columnPath, "."))
		}
		header = append(header, columnPath[0])
	}

	records := make([][]string, 0, reader.NumRows())
	rows := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			record := make([]string, len(header))
			for _, v := range row {
				if col := v.Column(); col >= 0 && col < len(record) {
					record[col] = formatValue(v)
				}
			}
			records = append(records, record)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return header, records, nil
}

// formatValue renders a leaf value as a table cell.
func formatValue(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
