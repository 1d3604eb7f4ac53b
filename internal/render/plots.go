package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	barColor     = drawing.ColorFromHex("1f77b4")
	scatterColor = drawing.ColorFromHex("1e88e5")
	pushUpColor  = drawing.ColorFromHex("ff0051")
	pushDnColor  = drawing.ColorFromHex("008bfb")
)

// ImportanceChart draws ranked feature importances as a vertical bar chart.
func ImportanceChart(cfg PlotConfig, title string, ranked []schema.FeatureImportance, path string) error {
	if len(ranked) == 0 {
		return errors.New("no importances to plot")
	}

	bars := make([]chart.Value, len(ranked))
	top := 0.0
	for i, fi := range ranked {
		bars[i] = chart.Value{
			Label: contract.TruncateLabel(fi.Feature, 18),
			Value: fi.Importance,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
		top = math.Max(top, fi.Importance)
	}
	if top <= 0 || math.IsNaN(top) {
		top = 1
	}
	yTicks := niceTicks(0, top*1.05, 6)
	yRange := &chart.ContinuousRange{Min: 0, Max: yTicks[len(yTicks)-1].Value}

	usable := cfg.Width - 120
	barWidth := max(usable/len(ranked)*6/10, 4)
	spacing := max(usable/len(ranked)-barWidth, 2)

	bc := chart.BarChart{
		Title:      title,
		TitleStyle: cfg.textStyle(1.2),
		Width:      cfg.Width,
		Height:     cfg.Height,
		Font:       cfg.Font,
		Background: chart.Style{Padding: chart.Box{Top: int(cfg.FontSize * 4), Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		XAxis:      withRotation(cfg.axisStyle(), 90),
		YAxis: chart.YAxis{
			Name:      "Importance",
			NameStyle: cfg.axisStyle(),
			Style:     cfg.axisStyle(),
			Range:     yRange,
			Ticks:     yTicks,
		},
		Bars: bars,
	}
	return save(path, func(w io.Writer) error {
		return bc.Render(cfg.provider(), w)
	})
}

func withRotation(s chart.Style, degrees float64) chart.Style {
	s.TextRotationDegrees = degrees
	return s
}

// ScatterChart draws attribution values against feature values.
// Points with a missing feature or attribution value are left out.
func ScatterChart(cfg PlotConfig, title, feature string, values, attributions []float64, path string) error {
	if len(values) != len(attributions) {
		return fmt.Errorf("%d feature values for %d attribution values", len(values), len(attributions))
	}
	var xs, ys []float64
	for i, v := range values {
		if math.IsNaN(v) || math.IsNaN(attributions[i]) {
			continue
		}
		xs = append(xs, v)
		ys = append(ys, attributions[i])
	}

	xLo, xHi, ok := finiteBounds(xs)
	if !ok {
		xLo, xHi = 0, 1
	}
	yLo, yHi, ok := finiteBounds(ys)
	if !ok {
		yLo, yHi = 0, 0
	}
	xRange, xTicks := axisRange(xLo, xHi)
	yRange, yTicks := axisRange(math.Min(yLo, 0), math.Max(yHi, 0))

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "zero",
			XValues: []float64{xRange.Min, xRange.Max},
			YValues: []float64{0, 0},
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("999999"),
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
		},
	}
	if len(xs) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    feature,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    scatterDotWidth,
				DotColor:    scatterColor.WithAlpha(scatterAlpha),
			},
		})
	}

	ch := chart.Chart{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Font:       cfg.Font,
		Background: cfg.background(),
		XAxis: chart.XAxis{
			Name:      feature,
			NameStyle: cfg.axisStyle(),
			Style:     cfg.axisStyle(),
			Range:     xRange,
			Ticks:     xTicks,
		},
		YAxis: chart.YAxis{
			Name:      "SHAP value for " + feature,
			NameStyle: cfg.axisStyle(),
			Style:     cfg.axisStyle(),
			Range:     yRange,
			Ticks:     yTicks,
		},
		Series:   series,
		Elements: []chart.Renderable{titleElement(cfg, title)},
	}
	return save(path, func(w io.Writer) error {
		return ch.Render(cfg.provider(), w)
	})
}
