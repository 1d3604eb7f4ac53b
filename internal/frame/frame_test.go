package frame

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `id,A,B,date
a,3,-2,2024-01-01
b,1,0,2024-01-02
a,-1,4,2024-01-03
c,,2,2024-01-04
a,0.5,0.5,2024-01-05
`

func mustDecode(t *testing.T, content string) *Frame {
	t.Helper()
	f, err := DecodeCSV(strings.NewReader(content))
	require.NoError(t, err)
	return f
}

func TestDecodeCSV(t *testing.T) {
	f := mustDecode(t, sampleTable)
	assert.Equal(t, []string{"id", "A", "B", "date"}, f.Columns())
	assert.Equal(t, 5, f.Len())
	assert.True(t, f.Has("date"))
	assert.False(t, f.Has("missing"))
}

func TestDecodeCSVErrors(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = DecodeCSV(strings.NewReader("a,a\n1,2\n"))
	assert.ErrorContains(t, err, "duplicate column")

	_, err = DecodeCSV(strings.NewReader("a,b\n1\n"))
	assert.Error(t, err)
}

func TestDecodeCSVByteOrderMark(t *testing.T) {
	f := mustDecode(t, "\ufeffid,A\nx,1\n")
	assert.Equal(t, []string{"id", "A"}, f.Columns())
}

func TestFloat(t *testing.T) {
	f := mustDecode(t, sampleTable)
	values, err := f.Float("A")
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, 3.0, values[0])
	assert.True(t, math.IsNaN(values[3]))

	_, err = f.Float("date")
	assert.Error(t, err)

	_, err = f.Float("missing")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestFilterKeepsOrder(t *testing.T) {
	f := mustDecode(t, sampleTable)

	filtered, err := f.Filter("id", "a")
	require.NoError(t, err)
	require.Equal(t, 3, filtered.Len())

	values, err := filtered.Float("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -1, 0.5}, values)
	assert.Equal(t, f.Columns(), filtered.Columns())
}

func TestFilterAbsentValue(t *testing.T) {
	f := mustDecode(t, sampleTable)
	filtered, err := f.Filter("id", "zzz")
	require.NoError(t, err)
	assert.Equal(t, 0, filtered.Len())
	assert.Equal(t, f.Columns(), filtered.Columns())

	_, err = f.Filter("missing", "a")
	assert.Error(t, err)
}

func TestDropAndSelect(t *testing.T) {
	f := mustDecode(t, sampleTable)

	dropped := f.Drop("id", "date", "not-there")
	assert.Equal(t, []string{"A", "B"}, dropped.Columns())
	assert.Equal(t, 5, dropped.Len())
}

func TestUnique(t *testing.T) {
	f := mustDecode(t, sampleTable)
	ids, err := f.Unique("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	_, err = f.Unique("nope")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestRowsAndMatrix(t *testing.T) {
	f := mustDecode(t, sampleTable)
	rows, err := f.Rows([]string{"B", "A"})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []float64{-2, 3}, rows[0])

	m, err := f.Matrix([]string{"A", "B"})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, m.At(2, 1))

	empty, err := f.Filter("id", "none")
	require.NoError(t, err)
	_, err = empty.Matrix([]string{"A"})
	assert.ErrorIs(t, err, ErrEmptyFrame)
	_, err = f.Matrix(nil)
	assert.Error(t, err)
	_, err = f.Matrix([]string{"nope"})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	f := mustDecode(t, sampleTable)
	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	assert.Equal(t, sampleTable, buf.String())
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))

	f, err := ReadTable(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, f.Len())

	_, err = ReadTable(filepath.Join(dir, "table.xlsx"), nil)
	assert.ErrorContains(t, err, "unsupported table format")

	_, err = ReadTable(filepath.Join(dir, "table.parquet"), nil)
	assert.Error(t, err)

	fake := func(string) ([]string, [][]string, error) {
		return []string{"id", "A"}, [][]string{{"x", "1"}}, nil
	}
	f, err = ReadTable(filepath.Join(dir, "table.parquet"), fake)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "A"}, f.Columns())
}

func TestParseAndFormatCell(t *testing.T) {
	for _, s := range []string{"", "NaN", "NA", "null", "None"} {
		v, err := ParseCell(s)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v), s)
	}
	v, err := ParseCell(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
	v, err = ParseCell("True")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	_, err = ParseCell("abc")
	assert.Error(t, err)

	assert.Equal(t, "", FormatCell(math.NaN()))
	assert.Equal(t, "0.1", FormatCell(0.1))
	assert.Equal(t, "-3", FormatCell(-3))
}
