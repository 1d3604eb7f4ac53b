// Package frame holds the small column-oriented table used for feature,
// target and attribution files.
package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrColumnNotFound is returned when a requested column is absent.
var ErrColumnNotFound = errors.New("column not found")

// ErrEmptyFrame is returned when a matrix is requested from a frame without rows.
var ErrEmptyFrame = errors.New("frame has no rows")

// Frame is an ordered table of string cells. Row order is preserved by every
// operation, which is what the additive charts rely on for their time axis.
type Frame struct {
	columns []string
	index   map[string]int
	records [][]string
}

// New builds a frame from a header and records. Every record must have one
// cell per column and column names must be unique.
func New(columns []string, records [][]string) (*Frame, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i+1, len(rec), len(columns))
		}
	}
	return &Frame{columns: slices.Clone(columns), index: index, records: records}, nil
}

// ReadCSV reads a comma separated file with a header row.
func ReadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fr, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fr, nil
}

// DecodeCSV decodes CSV content with a header row.
func DecodeCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty table")
	}
	if err != nil {
		return nil, err
	}
	// Spreadsheet exports often start with a byte order mark.
	for i, h := range header {
		header[i] = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return New(header, records)
}

// ReadTable reads a CSV or Parquet file based on its extension.
func ReadTable(path string, parquetReader func(string) ([]string, [][]string, error)) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".parquet":
		if parquetReader == nil {
			return nil, fmt.Errorf("no parquet reader configured for %s", path)
		}
		columns, records, err := parquetReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return New(columns, records)
	default:
		return nil, fmt.Errorf("unsupported table format %q (expected .csv or .parquet)", filepath.Ext(path))
	}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.records)
}

// Has reports whether the column exists.
func (f *Frame) Has(column string) bool {
	_, ok := f.index[column]
	return ok
}

// Column returns the raw cells of a column.
func (f *Frame) Column(column string) ([]string, error) {
	i, ok := f.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	out := make([]string, len(f.records))
	for r, rec := range f.records {
		out[r] = rec[i]
	}
	return out, nil
}

// Float returns a column parsed as float64. Empty cells and "NaN" become NaN.
func (f *Frame) Float(column string) ([]float64, error) {
	cells, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for r, cell := range cells {
		v, err := ParseCell(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", column, r+1, err)
		}
		out[r] = v
	}
	return out, nil
}

// Matrix returns the named columns as a rows x len(columns) matrix.
// gonum matrices cannot be empty, so a frame without rows or columns is an error.
func (f *Frame) Matrix(columns []string) (*mat.Dense, error) {
	if f.Len() == 0 {
		return nil, ErrEmptyFrame
	}
	if len(columns) == 0 {
		return nil, errors.New("no columns selected")
	}
	m := mat.NewDense(f.Len(), len(columns), nil)
	for j, c := range columns {
		values, err := f.Float(c)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Rows returns the named columns as float rows in table order.
func (f *Frame) Rows(columns []string) ([][]float64, error) {
	cols := make([][]float64, len(columns))
	for j, c := range columns {
		values, err := f.Float(c)
		if err != nil {
			return nil, err
		}
		cols[j] = values
	}
	rows := make([][]float64, f.Len())
	for i := range rows {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return rows, nil
}

// Drop returns a frame without the given columns. Absent columns are ignored.
func (f *Frame) Drop(columns ...string) *Frame {
	var keep []int
	for i, c := range f.columns {
		if !slices.Contains(columns, c) {
			keep = append(keep, i)
		}
	}
	return f.project(keep)
}

// Filter returns the rows whose column equals value, in their original order.
// A value with no match yields an empty frame with the same columns.
func (f *Frame) Filter(column, value string) (*Frame, error) {
	i, ok := f.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	var records [][]string
	for _, rec := range f.records {
		if rec[i] == value {
			records = append(records, rec)
		}
	}
	return &Frame{columns: f.columns, index: f.index, records: records}, nil
}

// Unique returns the distinct values of a column in first-appearance order.
func (f *Frame) Unique(column string) ([]string, error) {
	cells, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(cells))
	var out []string
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// WriteCSV encodes the frame with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.columns); err != nil {
		return err
	}
	if err := writer.WriteAll(f.records); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func (f *Frame) project(keep []int) *Frame {
	columns := make([]string, len(keep))
	index := make(map[string]int, len(keep))
	for j, i := range keep {
		columns[j] = f.columns[i]
		index[columns[j]] = j
	}
	records := make([][]string, len(f.records))
	for r, rec := range f.records {
		row := make([]string, len(keep))
		for j, i := range keep {
			row[j] = rec[i]
		}
		records[r] = row
	}
	return &Frame{columns: columns, index: index, records: records}
}

// ParseCell parses a numeric cell. Blank cells and NA markers are NaN,
// booleans are 0 and 1.
func ParseCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "", "nan", "na", "null", "none":
		return math.NaN(), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// FormatCell renders a float the way ParseCell reads it back.
func FormatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
