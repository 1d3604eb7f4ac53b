//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateWritesEveryArtifact runs generate and checks every reported file exists.
func TestGenerateWritesEveryArtifact(t *testing.T) {
	ws := newWorkspace(t)
	stale := writeFile(t, ws.output, "stale.png", "old")

	args := append([]string{"generate", "--ids", "c2,zz", "--classes", "0,1", "--output", "json", "--cache-backend", "none"}, ws.flags()...)
	out, err := runCommand(t, nil, args...)
	require.NoError(t, err)

	var result schema.GenerateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	// importance + 2 classes x (2 scatter + 1 force + 1 table)
	assert.Len(t, result.Artifacts, 9)
	for _, a := range result.Artifacts {
		assert.FileExists(t, a.Path)
	}
	assert.Equal(t, []string{"forest/churn_clf/zz"}, result.MissingIDs)
	assert.NoFileExists(t, stale, "the output root is reset")
	for _, sub := range schema.PipelineSubdirs() {
		assert.DirExists(t, filepath.Join(ws.output, sub))
	}
}

// TestGenerateSkipsMismatchedKinds checks a regression-named dataset yields no files for a classifier.
func TestGenerateSkipsMismatchedKinds(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.Rename(filepath.Join(ws.data, "X_churn_clf.csv"), filepath.Join(ws.data, "X_churn_reg.csv")))
	require.NoError(t, os.Rename(filepath.Join(ws.data, "y_churn_clf.csv"), filepath.Join(ws.data, "y_churn_reg.csv")))

	args := append([]string{"generate", "--output", "json", "--cache-backend", "none"}, ws.flags()...)
	out, err := runCommand(t, nil, args...)
	require.NoError(t, err)

	var result schema.GenerateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Artifacts)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "churn_reg", result.Skipped[0].Dataset)
}

// TestAdditiveFromExportedAttributions feeds the exported attribution table into the additive pipeline.
func TestAdditiveFromExportedAttributions(t *testing.T) {
	ws := newWorkspace(t)
	args := append([]string{"generate", "--output", "json", "--cache-backend", "none"}, ws.flags()...)
	_, err := runCommand(t, nil, args...)
	require.NoError(t, err)

	table := filepath.Join(ws.output, schema.AttributionsDir, "forest_churn_clf_class_1.csv")
	require.FileExists(t, table)

	additiveOut := filepath.Join(t.TempDir(), "additive")
	out, err := runCommand(t, nil, "additive", table, "--output-root", additiveOut, "--ids", "c1,c4", "--output", "json", "--cache-backend", "none")
	require.NoError(t, err)

	var result schema.AdditiveResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"age", "income"}, result.Features)
	require.Len(t, result.Artifacts, 3)
	assert.FileExists(t, filepath.Join(additiveOut, "main_plot.png"))
	assert.FileExists(t, filepath.Join(additiveOut, "plot_for_id_c4.png"))
}

// TestRunHistoryWithSQLite records runs in a SQLite file and exports them.
func TestRunHistoryWithSQLite(t *testing.T) {
	ws := newWorkspace(t)
	dbDir := t.TempDir()
	env := []string{
		"ATTRPLOT_CACHE_BACKEND=bolt",
		"ATTRPLOT_CACHE_DB_CONNECT=" + filepath.Join(dbDir, "cache.bolt"),
		"ATTRPLOT_RUN_BACKEND=sqlite",
		"ATTRPLOT_RUN_DB_CONNECT=" + filepath.Join(dbDir, "runs.db"),
	}

	_, err := runCommand(t, env, "runs", "migrate")
	require.NoError(t, err)

	for range 2 {
		args := append([]string{"generate", "--output", "json"}, ws.flags()...)
		_, err := runCommand(t, env, args...)
		require.NoError(t, err)
	}

	out, err := runCommand(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	out, err = runCommand(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache Backend: bolt")

	prefix := filepath.Join(dbDir, "history")
	_, err = runCommand(t, env, "runs", "export", "--output-file", prefix)
	require.NoError(t, err)
	assert.FileExists(t, prefix+".runs.parquet")
	assert.FileExists(t, prefix+".artifacts.parquet")

	out, err = runCommand(t, env, "runs", "list", "--output", "csv")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), "\n")))
}

// TestImportanceReport checks the stored importances are ranked.
func TestImportanceReport(t *testing.T) {
	ws := newWorkspace(t)
	args := append([]string{"importance", "--output", "csv", "--cache-backend", "none"}, ws.flags()...)
	out, err := runCommand(t, nil, args...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "forest,churn_clf,model,1,income,0.6", lines[1])
	assert.Equal(t, "forest,churn_clf,model,2,age,0.4", lines[2])
}
