package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// minLabelShare hides labels of features that move the output by less than
// this share of the total absolute attribution.
const minLabelShare = 0.05

// ForceInput is one observation to draw as a force plot.
type ForceInput struct {
	Title        string
	BaseValue    float64
	Features     []string
	Labels       []string // displayed feature values, aligned with Features
	Attributions []float64
}

// ForceBar is one feature's push in a force plot, spanning [From, To] on the output axis.
type ForceBar struct {
	Feature string
	Label   string
	Value   float64
	From    float64
	To      float64
}

// Output returns the model output the attributions add up to.
func (in ForceInput) Output() float64 {
	out := in.BaseValue
	for _, v := range in.Attributions {
		if !math.IsNaN(v) {
			out += v
		}
	}
	return out
}

// ForceLayout places features that raise the output to the left of the
// output value and features that lower it to the right, largest first
// on each side.
func ForceLayout(in ForceInput) (up, down []ForceBar) {
	for i, v := range in.Attributions {
		if v == 0 || math.IsNaN(v) {
			continue
		}
		bar := ForceBar{Feature: in.Features[i], Value: v}
		if i < len(in.Labels) {
			bar.Label = in.Labels[i]
		}
		if v > 0 {
			up = append(up, bar)
		} else {
			down = append(down, bar)
		}
	}
	byMagnitude := func(bars []ForceBar) {
		sort.SliceStable(bars, func(i, j int) bool {
			return math.Abs(bars[i].Value) > math.Abs(bars[j].Value)
		})
	}
	byMagnitude(up)
	byMagnitude(down)

	output := in.Output()
	cursor := output
	for i := range up {
		up[i].To = cursor
		up[i].From = cursor - up[i].Value
		cursor = up[i].From
	}
	cursor = output
	for i := range down {
		down[i].From = cursor
		down[i].To = cursor - down[i].Value
		cursor = down[i].To
	}
	return up, down
}

// ValueLabel formats a feature value rounded to whole units.
func ValueLabel(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	r := math.Round(v)
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// ForceChart draws a single observation's force plot.
func ForceChart(cfg PlotConfig, in ForceInput, path string) error {
	if len(in.Features) != len(in.Attributions) {
		return fmt.Errorf("%d features for %d attribution values", len(in.Features), len(in.Attributions))
	}
	up, down := ForceLayout(in)
	output := in.Output()

	points := []float64{in.BaseValue, output}
	total := 0.0
	for _, b := range append(append([]ForceBar{}, up...), down...) {
		points = append(points, b.From, b.To)
		total += math.Abs(b.Value)
	}
	lo, hi, _ := finiteBounds(points)
	xRange, xTicks := axisRange(lo, hi)

	var series []chart.Series
	var labels []chart.Value2
	addBars := func(bars []ForceBar, color drawing.Color, labelY float64) {
		for _, b := range bars {
			series = append(series, chart.ContinuousSeries{
				Name:    b.Feature,
				XValues: []float64{b.From, b.To},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: color, StrokeWidth: forceBarWidth},
			})
			if total > 0 && math.Abs(b.Value)/total >= minLabelShare {
				labels = append(labels, chart.Value2{
					XValue: (b.From + b.To) / 2,
					YValue: labelY,
					Label:  fmt.Sprintf("%s = %s", b.Feature, b.Label),
				})
			}
		}
	}
	addBars(up, pushUpColor, -0.45)
	addBars(down, pushDnColor, -0.75)

	marker := func(x float64, color drawing.Color) chart.Series {
		return chart.ContinuousSeries{
			XValues: []float64{x, x},
			YValues: []float64{-0.2, 0.35},
			Style:   chart.Style{StrokeColor: color, StrokeWidth: 1.5},
		}
	}
	series = append(series,
		marker(in.BaseValue, drawing.ColorFromHex("777777")),
		marker(output, drawing.ColorBlack),
		chart.AnnotationSeries{
			Annotations: append(labels,
				chart.Value2{XValue: in.BaseValue, YValue: 0.55, Label: "base value " + formatOutput(in.BaseValue)},
				chart.Value2{XValue: output, YValue: 0.8, Label: "f(x) " + formatOutput(output)},
			),
			Style: cfg.textStyle(0.75),
		},
	)

	ch := chart.Chart{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Font:       cfg.Font,
		Background: cfg.background(),
		XAxis: chart.XAxis{
			Name:      "Model output",
			NameStyle: cfg.axisStyle(),
			Style:     cfg.axisStyle(),
			Range:     xRange,
			Ticks:     xTicks,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: -1, Max: 1},
		},
		Series: series,
		Elements: []chart.Renderable{
			titleElement(cfg, in.Title),
			legendElement(cfg, []LegendEntry{
				{Label: "higher", Color: pushUpColor},
				{Label: "lower", Color: pushDnColor},
			}),
		},
	}
	return save(path, func(w io.Writer) error {
		return ch.Render(cfg.provider(), w)
	})
}

func formatOutput(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
