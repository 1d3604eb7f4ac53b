package render

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// tab20 is the 20-color categorical palette used for feature colors.
var tab20 = []string{
	"1f77b4", "aec7e8", "ff7f0e", "ffbb78", "2ca02c",
	"98df8a", "d62728", "ff9896", "9467bd", "c5b0d5",
	"8c564b", "c49c94", "e377c2", "f7b6d2", "7f7f7f",
	"c7c7c7", "bcbd22", "dbdb8d", "17becf", "9edae5",
}

// Palette returns n colors from tab20, repeating cyclically past 20.
func Palette(n int) []drawing.Color {
	out := make([]drawing.Color, n)
	for i := range out {
		out[i] = drawing.ColorFromHex(tab20[i%len(tab20)])
	}
	return out
}

// ColorAssignment maps each feature to its color. It is fixed at construction
// so a feature keeps the same color in every chart drawn with it.
type ColorAssignment struct {
	features []string
	colors   map[string]drawing.Color
}

// NewColorAssignment assigns palette colors to features in the given order.
func NewColorAssignment(features []string) ColorAssignment {
	palette := Palette(len(features))
	colors := make(map[string]drawing.Color, len(features))
	for i, f := range features {
		colors[f] = palette[i]
	}
	return ColorAssignment{
		features: append([]string(nil), features...),
		colors:   colors,
	}
}

// Color returns the color of a feature.
func (c ColorAssignment) Color(feature string) (drawing.Color, bool) {
	col, ok := c.colors[feature]
	return col, ok
}

// Features returns the features in assignment order.
func (c ColorAssignment) Features() []string {
	return append([]string(nil), c.features...)
}

// Len returns the number of assigned features.
func (c ColorAssignment) Len() int {
	return len(c.features)
}
