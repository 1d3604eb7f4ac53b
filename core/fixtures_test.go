package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/iocache"
	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/require"
)

// rfModel is a two-class forest with stored importances.
const rfModel = `
name: rf
kind: classifier
n_classes: 2
features: [A, B]
feature_importances: [0.25, 0.75]
trees:
  - nodes:
      - {feature: 1, threshold: 10, left: 1, right: 2, cover: 4}
      - {left: -1, right: -1, cover: 2, value: [0.8, 0.2]}
      - {left: -1, right: -1, cover: 2, value: [0.3, 0.7]}
  - nodes:
      - {feature: 0, threshold: 2.5, left: 1, right: 2, cover: 4}
      - {left: -1, right: -1, cover: 2, value: [0.6, 0.4]}
      - {left: -1, right: -1, cover: 2, value: [0.1, 0.9]}
`

// gbModel is a boosted regressor without importances.
const gbModel = `{
  "name": "gb",
  "kind": "regressor",
  "features": ["A", "B"],
  "aggregation": "sum",
  "base_score": 100,
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 2.5, "left": 1, "right": 2, "cover": 4},
      {"left": -1, "right": -1, "cover": 2, "value": [-10]},
      {"left": -1, "right": -1, "cover": 2, "value": [15]}
    ]}
  ]
}`

const featureTable = `id,A,B,date
1,1,5,2024-01-01
2,2,20,2024-01-02
3,3,8,2024-01-03
4,4,30,2024-01-04
`

const targetTable = `Target
0
1
0
1
`

// writeFixture writes name under dir and returns its path.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newWorkspace lays out a models and data directory with one classifier,
// one regressor and a dataset of each task kind.
func newWorkspace(t *testing.T) *contract.Config {
	t.Helper()
	root := t.TempDir()
	models := filepath.Join(root, "models")
	data := filepath.Join(root, "data")

	writeFixture(t, models, "rf.yaml", rfModel)
	writeFixture(t, models, "gb.json", gbModel)
	for _, ds := range []string{"iris_clf", "house_reg"} {
		writeFixture(t, data, "X_"+ds+".csv", featureTable)
		writeFixture(t, data, "y_"+ds+".csv", targetTable)
	}

	return &contract.Config{
		DataDir:            data,
		ModelDir:           models,
		OutputRoot:         filepath.Join(root, "visualization"),
		IDColumn:           schema.DefaultIDColumn,
		DropColumns:        []string{"date"},
		IDs:                []string{"2", "99"},
		Classes:            []int{1},
		Workers:            2,
		ImageFormat:        schema.PNGFormat,
		Width:              320,
		Height:             240,
		FontSize:           10,
		LabelMode:          schema.ValueLabels,
		Seed:               1,
		ExportAttributions: true,
		Output:             schema.TextOut,
	}
}

// newMockManager returns a cache manager serving the given stores.
func newMockManager(cache contract.CacheStore, runs contract.RunStore) *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAttributionStore").Return(cache).Maybe()
	mgr.On("GetRunStore").Return(runs).Maybe()
	return mgr
}
