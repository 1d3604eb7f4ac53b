package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/parquet"
	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGenerateResult() *schema.GenerateResult {
	return &schema.GenerateResult{
		RunID: 7,
		Artifacts: []schema.Artifact{
			{Path: "out/feature_importance/rf_overall_feature_importance_iris_clf.png", Kind: schema.ImportanceArtifact, Model: "rf", Dataset: "iris_clf", ClassIndex: -1},
			{Path: "out/feature/rf_A_iris_clf_class_1.png", Kind: schema.ScatterArtifact, Model: "rf", Dataset: "iris_clf", Feature: "A", ClassIndex: 1},
			{Path: "out/feature/rf_B_iris_clf_class_1.png", Kind: schema.ScatterArtifact, Model: "rf", Dataset: "iris_clf", Feature: "B", ClassIndex: 1},
			{Path: "out/force_plots/force_plot_rf_iris_clf_class_1_2.png", Kind: schema.ForceArtifact, Model: "rf", Dataset: "iris_clf", RowID: "2", ClassIndex: 1},
			{Path: "out/feature/gb_A_house_reg_regression.png", Kind: schema.ScatterArtifact, Model: "gb", Dataset: "house_reg", Feature: "A", ClassIndex: -1},
		},
		Skipped:    []schema.SkippedPair{{Model: "gb", Dataset: "iris_clf", Reason: "kind mismatch"}},
		MissingIDs: []string{"rf/iris_clf/99"},
		Duration:   1500 * time.Millisecond,
	}
}

func testConfig(output schema.OutputMode, outputFile string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   outputFile,
		OutputRoot:   "out",
		Workers:      2,
		CacheBackend: schema.SQLiteBackend,
	}
}

func TestWriteGenerateTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeGenerateTable(&buf, sampleGenerateResult(), testConfig(schema.TextOut, ""))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "iris_clf")
	assert.Contains(t, out, contract.ClassifierValue)
	assert.Contains(t, out, contract.RegressorValue)
	assert.Contains(t, out, "Skipped gb on iris_clf (kind mismatch)")
	assert.Contains(t, out, "Identifiers not found: 1 (rf/iris_clf/99)")
	assert.Contains(t, out, "Wrote 5 files under out")
	assert.Contains(t, out, "Run ID: 7.")
}

func TestWriteRunFooterWithoutRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRunFooter(&buf, 0, time.Second, testConfig(schema.TextOut, "")))
	assert.Equal(t, "Completed in 1s with 2 workers. Cache backend: sqlite.\n", buf.String())
}

func TestPrintGenerateResultJSON(t *testing.T) {
	target := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, PrintGenerateResult(sampleGenerateResult(), testConfig(schema.JSONOut, target)))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	var got schema.GenerateResult
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, int64(7), got.RunID)
	assert.Len(t, got.Artifacts, 5)
	assert.Equal(t, []string{"rf/iris_clf/99"}, got.MissingIDs)
}

func TestPrintGenerateResultCSV(t *testing.T) {
	target := filepath.Join(t.TempDir(), "result.csv")
	require.NoError(t, PrintGenerateResult(sampleGenerateResult(), testConfig(schema.CSVOut, target)))

	f, err := os.Open(target)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 6)
	assert.Equal(t, []string{"kind", "model", "dataset", "feature", "row_id", "class_index", "path"}, records[0])
	assert.Equal(t, []string{"force", "rf", "iris_clf", "", "2", "1", "out/force_plots/force_plot_rf_iris_clf_class_1_2.png"}, records[4])
	assert.Equal(t, "-1", records[5][5])
}

func TestPrintGenerateResultParquet(t *testing.T) {
	target := filepath.Join(t.TempDir(), "result.parquet")
	require.NoError(t, PrintGenerateResult(sampleGenerateResult(), testConfig(schema.ParquetOut, target)))

	columns, rows, err := parquet.ReadTable(target)
	require.NoError(t, err)
	assert.Contains(t, columns, "path")
	assert.Contains(t, columns, "class_index")
	assert.Len(t, rows, 5)
}

func TestPrintAdditiveResult(t *testing.T) {
	result := &schema.AdditiveResult{
		RunID: 3,
		Artifacts: []schema.Artifact{
			{Path: "out/main_plot.png", Kind: schema.AdditiveArtifact, ClassIndex: -1},
			{Path: "out/plot_for_id_a.png", Kind: schema.AdditiveArtifact, RowID: "a", ClassIndex: -1},
		},
		Features: []string{"A", "B", "C"},
		Rows:     6,
		Duration: time.Second,
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAdditiveTable(&buf, result, testConfig(schema.TextOut, "")))
		out := buf.String()
		assert.Contains(t, out, "(all)")
		assert.Contains(t, out, "main_plot.png")
		assert.Contains(t, out, "plot_for_id_a.png")
		assert.Contains(t, out, "Wrote 2 charts of 3 features over 6 rows under out")
	})

	t.Run("json", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "additive.json")
		require.NoError(t, PrintAdditiveResult(result, testConfig(schema.JSONOut, target)))
		content, err := os.ReadFile(target)
		require.NoError(t, err)
		var got schema.AdditiveResult
		require.NoError(t, json.Unmarshal(content, &got))
		assert.Equal(t, []string{"A", "B", "C"}, got.Features)
		assert.Equal(t, 6, got.Rows)
	})
}

func TestPrintImportanceResults(t *testing.T) {
	results := []schema.ImportanceResult{
		{
			Model: "rf", Dataset: "iris_clf", Source: schema.ModelImportanceSource,
			Features: []schema.FeatureImportance{
				{Rank: 1, Feature: "B", Importance: 0.75},
				{Rank: 2, Feature: "A", Importance: 0.25},
			},
		},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeImportanceTable(&buf, results, testConfig(schema.TextOut, ""), time.Second))
		out := buf.String()
		assert.Contains(t, out, "0.7500")
		assert.Contains(t, out, "Ranked features of 1 model and dataset pairs")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeImportanceCSV(&buf, results))
		assert.Equal(t, "model,dataset,source,rank,feature,importance\nrf,iris_clf,model,1,B,0.75\nrf,iris_clf,model,2,A,0.25\n", buf.String())
	})

	t.Run("parquet", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "importance.parquet")
		require.NoError(t, PrintImportanceResults(results, testConfig(schema.ParquetOut, target), time.Second))
		_, rows, err := parquet.ReadTable(target)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestPrintRuns(t *testing.T) {
	end := time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC)
	ms := int32(2000)
	params := `{"workers":2}`
	runs := []schema.RunRecord{
		{RunID: 1, RunUUID: "u-1", Pipeline: "generate", StartTime: end.Add(-2 * time.Second), EndTime: &end, RunDurationMs: &ms, TotalArtifacts: 9, ConfigParams: &params},
		{RunID: 2, RunUUID: "u-2", Pipeline: "additive", StartTime: end},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRunsTable(&buf, runs))
		out := buf.String()
		assert.Contains(t, out, "2000ms")
		assert.Contains(t, out, "running")
		assert.Contains(t, out, "Showing 2 runs")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRunsCSV(&buf, runs))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"1", "u-1", "generate", "2024-05-01T10:00:00Z", "2024-05-01T10:00:02Z", "2000", "9", `{"workers":2}`}, records[1])
		assert.Equal(t, []string{"2", "u-2", "additive", "2024-05-01T10:00:02Z", "", "", "0", ""}, records[2])
	})

	t.Run("parquet", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "runs.parquet")
		require.NoError(t, PrintRuns(runs, testConfig(schema.ParquetOut, target)))
		columns, rows, err := parquet.ReadTable(target)
		require.NoError(t, err)
		assert.Contains(t, columns, "run_uuid")
		assert.Len(t, rows, 2)
	})
}

func TestTaskLabel(t *testing.T) {
	assert.Equal(t, contract.ClassifierValue, taskLabel("iris_clf", false))
	assert.Equal(t, contract.RegressorValue, taskLabel("house_reg", false))
	assert.Equal(t, "-", taskLabel("iris", false))
}
