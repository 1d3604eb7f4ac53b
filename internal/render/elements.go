package render

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LegendEntry is one labeled color swatch.
type LegendEntry struct {
	Label string
	Color drawing.Color
}

// titleElement draws a left-aligned title above the canvas.
func titleElement(cfg PlotConfig, title string) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		if title == "" {
			return
		}
		r.SetFont(cfg.resolveFont(defaults))
		r.SetFontSize(cfg.FontSize * 1.2)
		r.SetFontColor(drawing.ColorBlack)
		r.Text(title, canvas.Left, canvas.Top-int(cfg.FontSize))
	}
}

// legendElement draws one swatch per entry in the top right corner of the canvas.
// go-chart's own legend lists every series, which here means every segment.
func legendElement(cfg PlotConfig, entries []LegendEntry) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		if len(entries) == 0 {
			return
		}
		fontSize := cfg.FontSize * 0.8
		r.SetFont(cfg.resolveFont(defaults))
		r.SetFontSize(fontSize)

		const swatch, pad, gap = 18, 6, 6
		textWidth, textHeight := 0, 0
		for _, e := range entries {
			box := r.MeasureText(e.Label)
			textWidth = max(textWidth, box.Width())
			textHeight = max(textHeight, box.Height())
		}
		lineHeight := textHeight + 4
		width := pad*2 + swatch + gap + textWidth
		height := pad*2 + lineHeight*len(entries)
		left := canvas.Right - width - pad
		top := canvas.Top + pad

		r.SetFillColor(drawing.ColorWhite.WithAlpha(220))
		r.SetStrokeColor(drawing.ColorFromHex("cccccc"))
		r.SetStrokeWidth(1)
		r.MoveTo(left, top)
		r.LineTo(left+width, top)
		r.LineTo(left+width, top+height)
		r.LineTo(left, top+height)
		r.LineTo(left, top)
		r.Close()
		r.FillStroke()

		r.SetFontColor(drawing.ColorBlack)
		for i, e := range entries {
			baseline := top + pad + lineHeight*(i+1) - 2
			mid := baseline - textHeight/2
			r.SetStrokeColor(e.Color)
			r.SetStrokeWidth(cfg.LineWidth)
			r.MoveTo(left+pad, mid)
			r.LineTo(left+pad+swatch, mid)
			r.Stroke()
			r.Text(e.Label, left+pad+swatch+gap, baseline)
		}
	}
}
