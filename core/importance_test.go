package core

import (
	"context"
	"testing"

	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunImportance(t *testing.T) {
	cfg := newWorkspace(t)

	results, err := RunImportance(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	gb := results[0]
	assert.Equal(t, "gb", gb.Model)
	assert.Equal(t, "house_reg", gb.Dataset)
	assert.Equal(t, schema.SHAPImportanceSource, gb.Source)
	require.Len(t, gb.Features, 2)
	assert.Equal(t, "A", gb.Features[0].Feature)
	assert.InDelta(t, 12.5, gb.Features[0].Importance, 1e-9)
	assert.Equal(t, 1, gb.Features[0].Rank)
	assert.Zero(t, gb.Features[1].Importance)

	rf := results[1]
	assert.Equal(t, "rf", rf.Model)
	assert.Equal(t, schema.ModelImportanceSource, rf.Source)
	assert.Equal(t, []schema.FeatureImportance{
		{Rank: 1, Feature: "B", Importance: 0.75},
		{Rank: 2, Feature: "A", Importance: 0.25},
	}, rf.Features)

	// Nothing is written to the output root
	assert.NoDirExists(t, cfg.OutputRoot)
}

func TestRunImportanceMissingColumn(t *testing.T) {
	cfg := newWorkspace(t)
	writeFixture(t, cfg.ModelDir, "lr.yaml", `
kind: regressor
features: [A, Z]
trees:
  - nodes:
      - {left: -1, right: -1, cover: 1, value: [1]}
`)

	_, err := RunImportance(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "model lr on dataset house_reg")
}
