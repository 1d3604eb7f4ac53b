package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/explain"
	"github.com/huangsam/attrplot/internal/frame"
	"github.com/huangsam/attrplot/internal/model"
	"github.com/huangsam/attrplot/internal/render"
	"github.com/huangsam/attrplot/schema"
	"gonum.org/v1/gonum/mat"
)

// regressionClass is the class index stored for regression outputs.
const regressionClass = -1

// pairRenderer writes every chart of one (model, dataset) pair.
// It is used by a single worker goroutine.
type pairRenderer struct {
	cfg     *contract.Config
	plotCfg render.PlotConfig
	model   *model.Model
	dataset *frame.Dataset

	x         *mat.Dense // dataset features in model feature order
	artifacts []schema.Artifact
	missing   []string
}

func (p *pairRenderer) render(ctx context.Context) error {
	m := p.model

	// --- 1. Overall importance (only when the model carries it) ---
	if m.HasImportances() {
		if err := p.importance(ctx); err != nil {
			return err
		}
	}

	// --- 2. Attribution values ---
	x, err := p.dataset.Features.Matrix(m.Features)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", p.dataset.Name, err)
	}
	p.x = x
	rows := make([][]float64, x.RawMatrix().Rows)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	exp, err := cachedExplain(ctx, m, p.dataset, rows)
	if err != nil {
		return err
	}

	// --- 3. Requested rows ---
	var selected []int
	var selectedIDs []string
	for _, id := range p.cfg.IDs {
		i, ok := p.dataset.Row(id)
		if !ok {
			metricsFromContext(ctx).IDSkipped()
			p.missing = append(p.missing, fmt.Sprintf("%s/%s/%s", m.Name, p.dataset.Name, id))
			continue
		}
		selected = append(selected, i)
		selectedIDs = append(selectedIDs, id)
	}

	// --- 4. Per output charts ---
	for _, class := range p.classes() {
		output := max(class, 0)
		values, expected, err := exp.Output(output)
		if err != nil {
			return err
		}
		if err := p.scatterPlots(ctx, class, values); err != nil {
			return err
		}
		for n, i := range selected {
			if err := p.forcePlot(ctx, class, selectedIDs[n], i, values, expected); err != nil {
				return err
			}
		}
		if p.cfg.ExportAttributions {
			if err := p.exportAttributions(ctx, class, values); err != nil {
				return err
			}
		}
	}
	return nil
}

// classes returns the selected class indices, or regressionClass for regressors.
func (p *pairRenderer) classes() []int {
	if !p.model.Kind.IsClassifier() {
		return []int{regressionClass}
	}
	return p.cfg.Classes
}

func (p *pairRenderer) importance(ctx context.Context) error {
	m, ds := p.model, p.dataset
	ranked := explain.Rank(m.Features, m.Importances)
	title := fmt.Sprintf("%s Overall Feature Importance (%s)", m.Name, ds.Name)
	base := fmt.Sprintf("%s_overall_feature_importance_%s", schema.SafeFileComponent(m.Name), schema.SafeFileComponent(ds.Name))
	path := p.plotCfg.Path(filepath.Join(p.cfg.OutputRoot, schema.FeatureImportanceDir), base)

	return p.draw(ctx, schema.Artifact{Path: path, Kind: schema.ImportanceArtifact, ClassIndex: regressionClass}, func() error {
		return render.ImportanceChart(p.plotCfg, title, ranked, path)
	})
}

func (p *pairRenderer) scatterPlots(ctx context.Context, class int, values *mat.Dense) error {
	m, ds := p.model, p.dataset
	for j, feature := range m.Features {
		title := fmt.Sprintf("%s_%s_%s", m.Name, feature, ds.Name)
		suffix := "_regression"
		if class != regressionClass {
			title = fmt.Sprintf("%s_class_%d", title, class)
			suffix = ""
		}
		base := fmt.Sprintf("%s_%s_%s", schema.SafeFileComponent(m.Name), schema.SafeFileComponent(feature), schema.SafeFileComponent(ds.Name))
		if class != regressionClass {
			base = fmt.Sprintf("%s_class_%d", base, class)
		}
		path := p.plotCfg.Path(filepath.Join(p.cfg.OutputRoot, schema.FeatureDir), base+suffix)

		x := mat.Col(nil, j, p.x)
		y := mat.Col(nil, j, values)
		artifact := schema.Artifact{Path: path, Kind: schema.ScatterArtifact, Feature: feature, ClassIndex: class}
		if err := p.draw(ctx, artifact, func() error {
			return render.ScatterChart(p.plotCfg, title, feature, x, y, path)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *pairRenderer) forcePlot(ctx context.Context, class int, id string, row int, values *mat.Dense, expected float64) error {
	m, ds := p.model, p.dataset
	labels := make([]string, len(m.Features))
	for j := range m.Features {
		v := p.x.At(row, j)
		if p.cfg.LabelMode == schema.PercentileLabels {
			labels[j] = render.Ordinal(render.Decile(mat.Col(nil, j, p.x), v))
		} else {
			labels[j] = render.ValueLabel(v)
		}
	}

	base := fmt.Sprintf("force_plot_%s_%s", schema.SafeFileComponent(m.Name), schema.SafeFileComponent(ds.Name))
	title := fmt.Sprintf("%s on %s, id %s", m.Name, ds.Name, id)
	if class != regressionClass {
		base = fmt.Sprintf("%s_class_%d", base, class)
		title = fmt.Sprintf("%s, class %d", title, class)
	}
	base = fmt.Sprintf("%s_%s", base, schema.SafeFileComponent(id))
	path := p.plotCfg.Path(filepath.Join(p.cfg.OutputRoot, schema.ForcePlotsDir), base)

	in := render.ForceInput{
		Title:        title,
		BaseValue:    expected,
		Features:     m.Features,
		Labels:       labels,
		Attributions: mat.Row(nil, row, values),
	}
	artifact := schema.Artifact{Path: path, Kind: schema.ForceArtifact, RowID: id, ClassIndex: class}
	return p.draw(ctx, artifact, func() error {
		return render.ForceChart(p.plotCfg, in, path)
	})
}

// exportAttributions writes the identifier column and one attribution
// column per feature, the layout the additive pipeline reads.
func (p *pairRenderer) exportAttributions(ctx context.Context, class int, values *mat.Dense) error {
	m, ds := p.model, p.dataset
	base := fmt.Sprintf("%s_%s", schema.SafeFileComponent(m.Name), schema.SafeFileComponent(ds.Name))
	if class != regressionClass {
		base = fmt.Sprintf("%s_class_%d", base, class)
	}
	dir := filepath.Join(p.cfg.OutputRoot, schema.AttributionsDir)
	path := filepath.Join(dir, base+".csv")

	columns := append([]string{p.cfg.IDColumn}, m.Features...)
	records := make([][]string, len(ds.IDs))
	for i, id := range ds.IDs {
		rec := make([]string, 0, len(columns))
		rec = append(rec, id)
		for _, v := range mat.Row(nil, i, values) {
			rec = append(rec, frame.FormatCell(v))
		}
		records[i] = rec
	}
	table, err := frame.New(columns, records)
	if err != nil {
		return err
	}

	artifact := schema.Artifact{Path: path, Kind: schema.AttributionArtifact, ClassIndex: class}
	return p.draw(ctx, artifact, func() error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := table.WriteCSV(f); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
}

// draw runs one render call, times it and records the artifact.
func (p *pairRenderer) draw(ctx context.Context, artifact schema.Artifact, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	artifact.Model = p.model.Name
	artifact.Dataset = p.dataset.Name

	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	metricsFromContext(ctx).PlotRendered(artifact.Kind, time.Since(start))
	p.artifacts = append(p.artifacts, artifact)
	return nil
}
