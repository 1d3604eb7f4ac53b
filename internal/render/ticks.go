package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/stat"
)

// maxIndexTicks caps the number of labeled time steps on an additive chart.
const maxIndexTicks = 12

// niceTicks generates about n ticks covering [lo, hi] with 1, 2, 2.5 or 5 steps.
func niceTicks(lo, hi float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil
	}
	if hi <= lo {
		hi = lo + 1
	}
	mag := math.Pow(10, math.Floor(math.Log10((hi-lo)/float64(n-1))))
	bestStep, bestScore := mag, math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Max(math.Ceil((hi-lo)/step), 2)
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore, bestStep = score, step
		}
	}

	start := math.Floor(lo/bestStep) * bestStep
	end := math.Ceil(hi/bestStep) * bestStep
	var ticks []chart.Tick
	for i := 0; ; i++ {
		v := start + float64(i)*bestStep
		if v > end+bestStep/2 || len(ticks) > n+2 {
			break
		}
		// Snap values like 0.30000000000000004 onto the step grid.
		v = math.Round(v/bestStep) * bestStep
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
	}
	return ticks
}

func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return fmt.Sprintf("%.0f", v)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(v, 'g', 3, 64)
	}
}

// axisRange pads [lo, hi] and widens it to the surrounding ticks.
func axisRange(lo, hi float64) (*chart.ContinuousRange, []chart.Tick) {
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	ticks := niceTicks(lo-pad, hi+pad, 6)
	if len(ticks) < 2 {
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}, nil
	}
	return &chart.ContinuousRange{Min: ticks[0].Value, Max: ticks[len(ticks)-1].Value}, ticks
}

// stepTicks labels time steps 0..n-1, thinned to at most maxIndexTicks.
// Labels default to the step number. Unlabeled ticks at -0.5 and n-0.5
// bracket the steps: go-chart takes the axis range from the ticks, and
// zero or one step would otherwise leave it empty.
func stepTicks(n int, labels []string) []chart.Tick {
	every := 1
	if n > maxIndexTicks {
		every = (n + maxIndexTicks - 1) / maxIndexTicks
	}
	ticks := []chart.Tick{{Value: -0.5}}
	for t := 0; t < n; t += every {
		label := strconv.Itoa(t)
		if t < len(labels) {
			label = labels[t]
		}
		ticks = append(ticks, chart.Tick{Value: float64(t), Label: label})
	}
	return append(ticks, chart.Tick{Value: math.Max(float64(n), 1) - 0.5})
}

// finiteBounds returns the min and max of the finite values, or ok=false.
func finiteBounds(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

// Ordinal formats n as 1st, 2nd, 3rd, 4th, 11th, 21st and so on.
func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Decile returns the percentile rank of v within column scaled to 0..10,
// using average ranks for ties. NaN values are ignored.
func Decile(column []float64, v float64) int {
	sorted := make([]float64, 0, len(column))
	for _, c := range column {
		if !math.IsNaN(c) {
			sorted = append(sorted, c)
		}
	}
	if len(sorted) == 0 || math.IsNaN(v) {
		return 0
	}
	sort.Float64s(sorted)

	n := float64(len(sorted))
	atOrBelow := math.Round(stat.CDF(v, stat.Empirical, sorted, nil) * n)
	below := float64(sort.SearchFloat64s(sorted, v))
	rank := below + (atOrBelow-below+1)/2
	if atOrBelow == below {
		// v is not in the column; place it between its neighbours.
		rank = below + 0.5
	}
	return int(math.RoundToEven(rank / n * 10))
}
