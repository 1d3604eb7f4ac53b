// Package render draws attribution charts with go-chart.
package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default drawing sizes.
const (
	DefaultLineWidth = 4.0
	referenceWidth   = 0.6
	scatterDotWidth  = 5.0 // radius matching a marker area of 80pt^2
	scatterAlpha     = 77  // 0.3 of 255
	forceBarWidth    = 28.0
)

// PlotConfig is the rendering configuration shared by every chart of a run.
// It is built once and passed to renderers instead of being global state.
type PlotConfig struct {
	Width     int
	Height    int
	FontSize  float64
	Font      *truetype.Font // nil uses the go-chart default font
	Format    schema.ImageFormat
	LineWidth float64
}

// DefaultPlotConfig returns a PNG configuration with the default sizes.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Width:     contract.DefaultWidth,
		Height:    contract.DefaultHeight,
		FontSize:  contract.DefaultFontSize,
		Format:    schema.PNGFormat,
		LineWidth: DefaultLineWidth,
	}
}

// NewPlotConfig builds a PlotConfig from the validated run config.
func NewPlotConfig(cfg *contract.Config) (PlotConfig, error) {
	pc := DefaultPlotConfig()
	pc.Width = cfg.Width
	pc.Height = cfg.Height
	pc.FontSize = cfg.FontSize
	pc.Format = cfg.ImageFormat
	if cfg.FontFile != "" {
		font, err := LoadFont(cfg.FontFile)
		if err != nil {
			return PlotConfig{}, err
		}
		pc.Font = font
	}
	return pc, nil
}

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return font, nil
}

// Path joins dir and a base name with the configured image extension.
func (c PlotConfig) Path(dir, base string) string {
	return filepath.Join(dir, base+c.Format.Ext())
}

func (c PlotConfig) provider() chart.RendererProvider {
	if c.Format == schema.SVGFormat {
		return chart.SVG
	}
	return chart.PNG
}

func (c PlotConfig) textStyle(scale float64) chart.Style {
	return chart.Style{
		FontSize:  c.FontSize * scale,
		FontColor: drawing.ColorBlack,
		Font:      c.Font,
	}
}

func (c PlotConfig) axisStyle() chart.Style {
	return c.textStyle(0.85)
}

// background reserves room above the canvas for a title of the configured size.
func (c PlotConfig) background() chart.Style {
	return chart.Style{Padding: chart.Box{
		Top:    int(c.FontSize * 3),
		Left:   16,
		Right:  16,
		Bottom: 16,
	}}
}

// resolveFont returns the configured font or the one go-chart passes to elements.
func (c PlotConfig) resolveFont(defaults chart.Style) *truetype.Font {
	if c.Font != nil {
		return c.Font
	}
	if defaults.Font != nil {
		return defaults.Font
	}
	font, _ := chart.GetDefaultFont()
	return font
}

// save renders into memory first so a failed render never leaves a partial file.
func save(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
