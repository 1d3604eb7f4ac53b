// Package model loads tree-ensemble models and evaluates them.
package model

import (
	"fmt"
	"math"

	"github.com/huangsam/attrplot/schema"
)

// Kind is the task a model was trained for, decided once at load time.
type Kind struct {
	Task     schema.TaskKind
	NClasses int // number of output classes, classifiers only
}

// Classifier returns the kind of an n-class classifier.
func Classifier(nClasses int) Kind {
	return Kind{Task: schema.Classification, NClasses: nClasses}
}

// Regressor returns the kind of a single-output regressor.
func Regressor() Kind {
	return Kind{Task: schema.Regression}
}

// IsClassifier reports whether the kind is a classifier.
func (k Kind) IsClassifier() bool {
	return k.Task == schema.Classification
}

// Outputs returns the number of model outputs: one per class, or one for regression.
func (k Kind) Outputs() int {
	if k.IsClassifier() {
		return k.NClasses
	}
	return 1
}

// Matches reports whether a model of this kind can explain a dataset of the given task.
func (k Kind) Matches(task schema.TaskKind) bool {
	return k.Task == task
}

func (k Kind) String() string {
	if k.IsClassifier() {
		return fmt.Sprintf("classifier(%d classes)", k.NClasses)
	}
	return "regressor"
}

// Node is one node of a binary decision tree. Leaves have Left == Right == -1.
// Samples with x[Feature] <= Threshold, or a missing value, go left.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Cover     float64   // number (or weight) of training samples reaching the node
	Value     []float64 // leaf output, one entry per model output
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

// Next returns the child a sample goes to.
func (n Node) Next(x []float64) int {
	v := x[n.Feature]
	if math.IsNaN(v) || v <= n.Threshold {
		return n.Left
	}
	return n.Right
}

// Tree is a decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node
}

// Leaf returns the leaf reached by x.
func (t Tree) Leaf(x []float64) Node {
	i := 0
	for !t.Nodes[i].IsLeaf() {
		i = t.Nodes[i].Next(x)
	}
	return t.Nodes[i]
}

// Model is a validated tree ensemble.
type Model struct {
	Name        string
	Path        string
	Kind        Kind
	Features    []string
	Importances []float64 // nil when the model does not carry importances
	Aggregation schema.Aggregation
	BaseScore   float64
	Trees       []Tree
}

// HasImportances reports whether the model carries feature importances.
func (m *Model) HasImportances() bool {
	return len(m.Importances) > 0
}

// TreeWeight is the factor applied to every tree's output.
func (m *Model) TreeWeight() float64 {
	if m.Aggregation == schema.SumAggregation {
		return 1
	}
	return 1 / float64(len(m.Trees))
}

// Predict returns the raw model output for one row, one value per output.
// For classifiers built from probability leaves this is the class probability.
func (m *Model) Predict(x []float64) []float64 {
	out := make([]float64, m.Kind.Outputs())
	weight := m.TreeWeight()
	for _, t := range m.Trees {
		leaf := t.Leaf(x)
		for k, v := range leaf.Value {
			out[k] += weight * v
		}
	}
	for k := range out {
		out[k] += m.BaseScore
	}
	return out
}

// ExpectedValue returns the cover-weighted mean output over the training data.
func (m *Model) ExpectedValue() []float64 {
	out := make([]float64, m.Kind.Outputs())
	weight := m.TreeWeight()
	for _, t := range m.Trees {
		for k, v := range t.expectedValue(0, out) {
			out[k] += weight * v
		}
	}
	for k := range out {
		out[k] += m.BaseScore
	}
	return out
}

func (t Tree) expectedValue(i int, shape []float64) []float64 {
	n := t.Nodes[i]
	if n.IsLeaf() {
		return n.Value
	}
	left := t.expectedValue(n.Left, shape)
	right := t.expectedValue(n.Right, shape)
	lc, rc := t.Nodes[n.Left].Cover, t.Nodes[n.Right].Cover
	out := make([]float64, len(shape))
	for k := range out {
		out[k] = (left[k]*lc + right[k]*rc) / (lc + rc)
	}
	return out
}
