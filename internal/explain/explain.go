// Package explain computes exact TreeSHAP attribution values for tree ensembles.
package explain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/huangsam/attrplot/internal/model"
	"github.com/huangsam/attrplot/schema"
	"gonum.org/v1/gonum/mat"
)

// ErrNoRows is returned when there is nothing to explain.
var ErrNoRows = errors.New("no rows to explain")

// Explanation holds the attribution values of one model over one table.
type Explanation struct {
	Features      []string
	ExpectedValue []float64    // one per output
	Values        []*mat.Dense // one rows x features matrix per output
}

// Explain computes attribution values for every row. Each row must have one
// value per model feature, in model feature order.
func Explain(ctx context.Context, m *model.Model, rows [][]float64) (*Explanation, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	nFeatures := len(m.Features)
	outputs := m.Kind.Outputs()

	values := make([]*mat.Dense, outputs)
	for k := range values {
		values[k] = mat.NewDense(len(rows), nFeatures, nil)
	}

	scale := m.TreeWeight()
	phi := make([][]float64, outputs)
	for i, x := range rows {
		if len(x) != nFeatures {
			return nil, fmt.Errorf("row %d has %d values, model %s expects %d", i, len(x), m.Name, nFeatures)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for k := range phi {
			phi[k] = make([]float64, nFeatures)
		}
		for _, t := range m.Trees {
			treeSHAP(t, x, phi, scale)
		}
		for k := range phi {
			values[k].SetRow(i, phi[k])
		}
	}

	return &Explanation{
		Features:      m.Features,
		ExpectedValue: m.ExpectedValue(),
		Values:        values,
	}, nil
}

// Outputs returns the number of explained outputs.
func (e *Explanation) Outputs() int {
	return len(e.Values)
}

// Rows returns the number of explained rows.
func (e *Explanation) Rows() int {
	r, _ := e.Values[0].Dims()
	return r
}

// Output returns the attribution matrix and expected value for one output.
func (e *Explanation) Output(k int) (*mat.Dense, float64, error) {
	if k < 0 || k >= len(e.Values) {
		return nil, 0, fmt.Errorf("%w: %d (model has %d outputs)", schema.ErrClassOutOfRange, k, len(e.Values))
	}
	return e.Values[k], e.ExpectedValue[k], nil
}

// Row returns the attribution values of row i for output k.
func (e *Explanation) Row(k, i int) []float64 {
	return mat.Row(nil, i, e.Values[k])
}

// MeanAbs returns the mean absolute attribution per feature, averaged over outputs.
func (e *Explanation) MeanAbs() []float64 {
	out := make([]float64, len(e.Features))
	rows := float64(e.Rows())
	for _, v := range e.Values {
		for j := range out {
			col := mat.Col(nil, j, v)
			sum := 0.0
			for _, c := range col {
				sum += math.Abs(c)
			}
			out[j] += sum / rows
		}
	}
	for j := range out {
		out[j] /= float64(len(e.Values))
	}
	return out
}

// Rank orders features by descending importance. Ties keep feature order.
func Rank(features []string, scores []float64) []schema.FeatureImportance {
	ranked := make([]schema.FeatureImportance, len(features))
	for i, f := range features {
		ranked[i] = schema.FeatureImportance{Feature: f, Importance: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
