package explain

import (
	"slices"

	"github.com/huangsam/attrplot/internal/model"
)

// pathElement is one feature on the path from the root to the current node.
// zero and one are the fractions of the path that flow through the node when
// the feature is missing or present, weight is the permutation weight.
type pathElement struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

// treeSHAP adds the exact Shapley values of one tree for row x to phi,
// which is indexed [output][feature].
func treeSHAP(t model.Tree, x []float64, phi [][]float64, scale float64) {
	recurse(t, x, phi, scale, 0, nil, 1, 1, -1)
}

func recurse(t model.Tree, x []float64, phi [][]float64, scale float64,
	node int, path []pathElement, zero, one float64, feature int,
) {
	path = extendPath(path, zero, one, feature)
	n := t.Nodes[node]

	if n.IsLeaf() {
		for i := 1; i < len(path); i++ {
			w := unwoundPathSum(path, i) * (path[i].one - path[i].zero) * scale
			for k, v := range n.Value {
				phi[k][path[i].feature] += w * v
			}
		}
		return
	}

	hot := n.Next(x)
	cold := n.Right
	if hot == n.Right {
		cold = n.Left
	}

	// A feature split on twice along the path only counts once.
	incomingZero, incomingOne := 1.0, 1.0
	for i := 1; i < len(path); i++ {
		if path[i].feature == n.Feature {
			incomingZero, incomingOne = path[i].zero, path[i].one
			path = unwindPath(path, i)
			break
		}
	}

	hotCover, coldCover := t.Nodes[hot].Cover, t.Nodes[cold].Cover
	cover := hotCover + coldCover
	recurse(t, x, phi, scale, hot, path, incomingZero*hotCover/cover, incomingOne, n.Feature)
	recurse(t, x, phi, scale, cold, path, incomingZero*coldCover/cover, 0, n.Feature)
}

// extendPath returns a copy of path grown by one feature.
func extendPath(path []pathElement, zero, one float64, feature int) []pathElement {
	depth := len(path)
	p := make([]pathElement, depth+1)
	copy(p, path)
	p[depth] = pathElement{feature: feature, zero: zero, one: one}
	if depth == 0 {
		p[depth].weight = 1
	}
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		p[i+1].weight += one * p[i].weight * float64(i+1) / d
		p[i].weight = zero * p[i].weight * float64(depth-i) / d
	}
	return p
}

// unwindPath returns a copy of path with element idx removed.
func unwindPath(path []pathElement, idx int) []pathElement {
	depth := len(path) - 1
	p := slices.Clone(path)
	zero, one := p[idx].zero, p[idx].one
	d := float64(depth + 1)

	next := p[depth].weight
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := p[i].weight
			p[i].weight = next * d / (float64(i+1) * one)
			next = tmp - p[i].weight*zero*float64(depth-i)/d
		} else {
			p[i].weight = p[i].weight * d / (zero * float64(depth-i))
		}
	}
	for i := idx; i < depth; i++ {
		p[i].feature = p[i+1].feature
		p[i].zero = p[i+1].zero
		p[i].one = p[i+1].one
	}
	return p[:depth]
}

// unwoundPathSum is the total permutation weight of path without element idx.
func unwoundPathSum(path []pathElement, idx int) float64 {
	depth := len(path) - 1
	zero, one := path[idx].zero, path[idx].one
	d := float64(depth + 1)

	total := 0.0
	next := path[depth].weight
	for i := depth - 1; i >= 0; i-- {
		switch {
		case one != 0:
			tmp := next * d / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)/d
		case zero != 0:
			total += path[i].weight / zero / (float64(depth-i) / d)
		}
	}
	return total
}
