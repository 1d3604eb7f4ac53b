package frame

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDatasets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "X_iris_clf.csv", "id,date,a,b\nid_0,2024-01-01,1,2\nid_1,2024-01-02,3,4\n")
	writeFile(t, dir, "y_iris_clf.csv", "Target\n0\n1\n")
	writeFile(t, dir, "X_house_reg.csv", "id,a,b\nh1,5,6\n")
	writeFile(t, dir, "y_house_reg.csv", "row,Target\n0,120.5\n")
	writeFile(t, dir, "notes.txt", "ignored")

	datasets, err := LoadDatasets(dir, LoadOptions{IDColumn: "id", DropColumns: []string{"date"}})
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	house, iris := datasets[0], datasets[1]
	assert.Equal(t, "house_reg", house.Name)
	assert.Equal(t, schema.Regression, house.Kind)
	assert.Equal(t, []float64{120.5}, house.Target)

	assert.Equal(t, "iris_clf", iris.Name)
	assert.Equal(t, schema.Classification, iris.Kind)
	assert.Equal(t, []string{"a", "b"}, iris.Features.Columns())
	assert.Equal(t, []string{"id_0", "id_1"}, iris.IDs)

	row, ok := iris.Row("id_1")
	assert.True(t, ok)
	assert.Equal(t, 1, row)
	_, ok = iris.Row("22")
	assert.False(t, ok)
}

func TestLoadDatasetsErrors(t *testing.T) {
	t.Run("unknown task kind", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "X_iris.csv", "id,a\nx,1\n")
		writeFile(t, dir, "y_iris.csv", "Target\n1\n")
		_, err := LoadDatasets(dir, LoadOptions{IDColumn: "id"})
		assert.True(t, errors.Is(err, schema.ErrUnknownTaskKind))
	})

	t.Run("missing target file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "X_a_clf.csv", "id,a\nx,1\n")
		_, err := LoadDatasets(dir, LoadOptions{IDColumn: "id"})
		assert.ErrorContains(t, err, "y_a_clf")
	})

	t.Run("no datasets", func(t *testing.T) {
		_, err := LoadDatasets(t.TempDir(), LoadOptions{IDColumn: "id"})
		assert.True(t, errors.Is(err, schema.ErrNoDatasets))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadDatasets(filepath.Join(t.TempDir(), "nope"), LoadOptions{IDColumn: "id"})
		assert.Error(t, err)
	})

	t.Run("missing identifier column", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "X_a_clf.csv", "key,a\nx,1\n")
		writeFile(t, dir, "y_a_clf.csv", "Target\n1\n")
		_, err := LoadDatasets(dir, LoadOptions{IDColumn: "id"})
		assert.True(t, errors.Is(err, ErrColumnNotFound))
	})

	t.Run("missing Target column", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "X_a_clf.csv", "id,a\nx,1\n")
		writeFile(t, dir, "y_a_clf.csv", "label\n1\n")
		_, err := LoadDatasets(dir, LoadOptions{IDColumn: "id"})
		assert.True(t, errors.Is(err, ErrColumnNotFound))
	})

	t.Run("row count mismatch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "X_a_clf.csv", "id,a\nx,1\ny,2\n")
		writeFile(t, dir, "y_a_clf.csv", "Target\n1\n")
		_, err := LoadDatasets(dir, LoadOptions{IDColumn: "id"})
		assert.ErrorContains(t, err, "target rows")
	})
}
