package explain

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/huangsam/attrplot/internal/model"
	"github.com/huangsam/attrplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func leaf(cover float64, value ...float64) model.FileNode {
	return model.FileNode{Left: -1, Right: -1, Cover: cover, Value: value}
}

func split(feature int, threshold float64, left, right int, cover float64) model.FileNode {
	return model.FileNode{Feature: feature, Threshold: threshold, Left: left, Right: right, Cover: cover}
}

func mustModel(t *testing.T, f model.File) *model.Model {
	t.Helper()
	m, err := model.FromFile(f, "test.json")
	require.NoError(t, err)
	return m
}

// andModel outputs 1 only when both A and B are above 0.5.
func andModel(t *testing.T) *model.Model {
	return mustModel(t, model.File{
		Kind:     "regressor",
		Features: []string{"A", "B"},
		Trees: []model.FileTree{{Nodes: []model.FileNode{
			split(0, 0.5, 1, 2, 4),
			leaf(2, 0),
			split(1, 0.5, 3, 4, 2),
			leaf(1, 0),
			leaf(1, 1),
		}}},
	})
}

// forestModel is a three-class forest where one tree splits on A twice.
func forestModel(t *testing.T) *model.Model {
	return mustModel(t, model.File{
		Kind:     "classifier",
		NClasses: 3,
		Features: []string{"A", "B", "C"},
		Trees: []model.FileTree{
			{Nodes: []model.FileNode{
				split(0, 0, 1, 2, 10),
				split(0, -1, 3, 4, 4),
				split(2, 2, 5, 6, 6),
				leaf(1, 1, 0, 0),
				leaf(3, 0.5, 0.5, 0),
				leaf(4, 0.1, 0.3, 0.6),
				leaf(2, 0, 0.2, 0.8),
			}},
			{Nodes: []model.FileNode{
				split(1, 1, 1, 2, 8),
				leaf(5, 0.2, 0.2, 0.6),
				split(0, 0.5, 3, 4, 3),
				leaf(1, 0.9, 0.1, 0),
				leaf(2, 0.3, 0.3, 0.4),
			}},
		},
	})
}

func TestExplainStump(t *testing.T) {
	m := mustModel(t, model.File{
		Kind:     "regressor",
		Features: []string{"A", "B"},
		Trees: []model.FileTree{{Nodes: []model.FileNode{
			split(0, 0.5, 1, 2, 4),
			leaf(1, 1),
			leaf(3, 3),
		}}},
	})

	e, err := Explain(context.Background(), m, [][]float64{{0, 7}, {1, 7}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Outputs())
	assert.Equal(t, 2, e.Rows())

	values, expected, err := e.Output(0)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, expected, 1e-12)
	assert.InDelta(t, -1.5, values.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, values.At(1, 0), 1e-12)
	assert.Equal(t, []float64{0, 0}, mat.Col(nil, 1, values))
}

func TestExplainInteractionIsShared(t *testing.T) {
	e, err := Explain(context.Background(), andModel(t), [][]float64{{1, 1}})
	require.NoError(t, err)

	row := e.Row(0, 0)
	assert.InDelta(t, 0.375, row[0], 1e-12)
	assert.InDelta(t, 0.375, row[1], 1e-12)
	assert.InDelta(t, 0.25, e.ExpectedValue[0], 1e-12)
}

func TestExplainLocalAccuracy(t *testing.T) {
	m := forestModel(t)
	rng := rand.New(rand.NewPCG(1, 2))

	rows := make([][]float64, 50)
	for i := range rows {
		rows[i] = []float64{rng.NormFloat64(), rng.NormFloat64() * 2, rng.Float64() * 4}
	}
	rows = append(rows, []float64{math.NaN(), 0, 3})

	e, err := Explain(context.Background(), m, rows)
	require.NoError(t, err)
	require.Equal(t, 3, e.Outputs())

	for i, x := range rows {
		pred := m.Predict(x)
		for k := range pred {
			sum := e.ExpectedValue[k]
			for _, v := range e.Row(k, i) {
				sum += v
			}
			assert.InDelta(t, pred[k], sum, 1e-9, "row %d output %d", i, k)
		}
	}
}

func TestExplainSumAggregation(t *testing.T) {
	f := model.File{
		Kind:        "regressor",
		Features:    []string{"A", "B"},
		Aggregation: schema.SumAggregation,
		BaseScore:   0.5,
		Trees: []model.FileTree{
			{Nodes: []model.FileNode{split(0, 0, 1, 2, 2), leaf(1, -1), leaf(1, 1)}},
			{Nodes: []model.FileNode{split(1, 0, 1, 2, 4), leaf(3, 0.2), leaf(1, 2)}},
		},
	}
	m := mustModel(t, f)
	x := []float64{1, 1}

	e, err := Explain(context.Background(), m, [][]float64{x})
	require.NoError(t, err)
	row := e.Row(0, 0)
	assert.InDelta(t, m.Predict(x)[0], e.ExpectedValue[0]+row[0]+row[1], 1e-12)
	assert.InDelta(t, 1.0, row[0], 1e-12)
}

func TestExplainErrors(t *testing.T) {
	m := andModel(t)

	_, err := Explain(context.Background(), m, nil)
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Explain(context.Background(), m, [][]float64{{1}})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Explain(ctx, m, [][]float64{{1, 1}})
	assert.ErrorIs(t, err, context.Canceled)

	e, err := Explain(context.Background(), m, [][]float64{{1, 1}})
	require.NoError(t, err)
	_, _, err = e.Output(1)
	assert.ErrorIs(t, err, schema.ErrClassOutOfRange)
}

func TestMeanAbsAndRank(t *testing.T) {
	e, err := Explain(context.Background(), andModel(t), [][]float64{{1, 1}, {0, 1}})
	require.NoError(t, err)

	scores := e.MeanAbs()
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1])

	ranked := Rank([]string{"A", "B", "C"}, []float64{0.1, 0.5, 0.1})
	assert.Equal(t, []schema.FeatureImportance{
		{Rank: 1, Feature: "B", Importance: 0.5},
		{Rank: 2, Feature: "A", Importance: 0.1},
		{Rank: 3, Feature: "C", Importance: 0.1},
	}, ranked)
}
