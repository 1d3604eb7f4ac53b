package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/huangsam/attrplot/schema"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoFeatures is returned when a renderer is built without features.
var ErrNoFeatures = errors.New("no feature columns")

// Segment is one vertical stroke of an additive chart at time step Step.
// Segments with a higher Z are painted later.
type Segment struct {
	Step    int
	Feature string
	From    float64
	To      float64
	Z       int
	Color   drawing.Color
}

// Length returns the signed length of the segment.
func (s Segment) Length() float64 {
	return s.To - s.From
}

// AdditiveRenderer draws stacked attribution charts over time.
// Every chart drawn by one renderer uses the same feature colors.
type AdditiveRenderer struct {
	cfg    PlotConfig
	colors ColorAssignment
}

// NewAdditiveRenderer builds the color assignment for features once.
func NewAdditiveRenderer(features []string, cfg PlotConfig) (*AdditiveRenderer, error) {
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f)
		}
		seen[f] = struct{}{}
	}
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = DefaultLineWidth
	}
	return &AdditiveRenderer{cfg: cfg, colors: NewColorAssignment(features)}, nil
}

// Colors returns the renderer's color assignment.
func (a *AdditiveRenderer) Colors() ColorAssignment {
	return a.colors
}

// Legend returns one entry per feature, in feature order.
func (a *AdditiveRenderer) Legend() []LegendEntry {
	entries := make([]LegendEntry, a.colors.Len())
	for i, f := range a.colors.features {
		entries[i] = LegendEntry{Label: f, Color: a.colors.colors[f]}
	}
	return entries
}

// Segments stacks each row's values from independent positive and negative
// baselines. Positive segments of earlier features are painted last so they
// sit on top; negative segments follow feature order. Zero and NaN values
// draw nothing.
func (a *AdditiveRenderer) Segments(rows [][]float64) ([]Segment, error) {
	features := a.colors.features
	var segments []Segment
	for t, row := range rows {
		if len(row) != len(features) {
			return nil, fmt.Errorf("row %d has %d values for %d features", t, len(row), len(features))
		}
		vPos, vNeg := 0.0, 0.0
		for i, v := range row {
			switch {
			case v > 0:
				segments = append(segments, a.segment(t, i, vPos, vPos+v, -i))
				vPos += v
			case v < 0:
				segments = append(segments, a.segment(t, i, vNeg, vNeg+v, i))
				vNeg += v
			}
		}
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Z < segments[j].Z })
	return segments, nil
}

func (a *AdditiveRenderer) segment(t, i int, from, to float64, z int) Segment {
	f := a.colors.features[i]
	return Segment{Step: t, Feature: f, From: from, To: to, Z: z, Color: a.colors.colors[f]}
}

// Render writes one additive chart to path. labels name the time steps and
// may be nil. An empty row set still draws the reference line and legend.
func (a *AdditiveRenderer) Render(rows [][]float64, labels []string, path string) error {
	ch, err := a.Chart(rows, labels)
	if err != nil {
		return err
	}
	return save(path, func(w io.Writer) error {
		return ch.Render(a.cfg.provider(), w)
	})
}

// Chart builds the chart without rendering it.
func (a *AdditiveRenderer) Chart(rows [][]float64, labels []string) (*chart.Chart, error) {
	segments, err := a.Segments(rows)
	if err != nil {
		return nil, err
	}

	lo, hi := 0.0, 0.0
	series := make([]chart.Series, 0, len(segments)+1)
	for _, s := range segments {
		lo = math.Min(lo, math.Min(s.From, s.To))
		hi = math.Max(hi, math.Max(s.From, s.To))
		x := float64(s.Step)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Feature,
			XValues: []float64{x, x},
			YValues: []float64{s.From, s.To},
			Style:   chart.Style{StrokeColor: s.Color, StrokeWidth: a.cfg.LineWidth},
		})
	}

	xMax := math.Max(float64(len(rows)), 1) - 0.5
	series = append(series, chart.ContinuousSeries{
		Name:    "reference",
		XValues: []float64{-0.5, xMax},
		YValues: []float64{0, 0},
		Style:   chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: referenceWidth},
	})

	yRange, yTicks := axisRange(lo, hi)
	return &chart.Chart{
		Width:      a.cfg.Width,
		Height:     a.cfg.Height,
		Font:       a.cfg.Font,
		Background: a.cfg.background(),
		XAxis: chart.XAxis{
			Name:      "Time step",
			NameStyle: a.cfg.axisStyle(),
			Style:     a.cfg.axisStyle(),
			Range:     &chart.ContinuousRange{Min: -0.5, Max: xMax},
			Ticks:     stepTicks(len(rows), labels),
		},
		YAxis: chart.YAxis{
			Name:      "Attribution",
			NameStyle: a.cfg.axisStyle(),
			Style:     a.cfg.axisStyle(),
			Range:     yRange,
			Ticks:     yTicks,
		},
		Series: series,
		Elements: []chart.Renderable{
			titleElement(a.cfg, schema.AdditiveTitle),
			legendElement(a.cfg, a.Legend()),
		},
	}, nil
}
