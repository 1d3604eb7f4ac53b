package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/frame"
	"github.com/huangsam/attrplot/internal/outwriter"
	"github.com/huangsam/attrplot/internal/parquet"
	"github.com/huangsam/attrplot/internal/render"
	"github.com/huangsam/attrplot/schema"
)

// plotForIDPrefix names the per-identifier additive charts.
const plotForIDPrefix = "plot_for_id_"

// additiveChart is one chart of an additive run.
type additiveChart struct {
	base string // file name without extension
	id   string // empty for the whole table
	rows *frame.Frame
}

// RunAdditive renders the stacked additive chart of a whole attribution
// table, then one chart per identifier. The output root is not reset.
func RunAdditive(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.AdditiveResult, error) {
	start := time.Now()
	if cfg.TablePath == "" {
		return nil, errors.New("an attribution table is required")
	}

	// --- 1. Load the table and split feature columns from bookkeeping ones ---
	table, err := frame.ReadTable(cfg.TablePath, parquet.ReadTable)
	if err != nil {
		return nil, err
	}
	if !table.Has(cfg.IDColumn) {
		return nil, fmt.Errorf("table %s: %w: identifier %q", cfg.TablePath, frame.ErrColumnNotFound, cfg.IDColumn)
	}
	if cfg.IndexColumn != "" && !table.Has(cfg.IndexColumn) {
		return nil, fmt.Errorf("table %s: %w: index %q", cfg.TablePath, frame.ErrColumnNotFound, cfg.IndexColumn)
	}
	features := table.Drop(cfg.IDColumn, cfg.IndexColumn).Columns()

	plotCfg, err := render.NewPlotConfig(cfg)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewAdditiveRenderer(features, plotCfg)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", cfg.TablePath, err)
	}

	ids, err := selectIDs(cfg, table)
	if err != nil {
		return nil, err
	}

	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogAdditiveHeader(cfg, table.Len(), len(features), len(ids))
	}
	if err := os.MkdirAll(cfg.OutputRoot, 0o755); err != nil {
		return nil, err
	}

	ctx, tracker := beginRun(ctx, mgr, schema.AdditivePipeline, additiveParams(cfg))
	result := &schema.AdditiveResult{RunID: tracker.id, Features: features, Rows: table.Len()}

	// --- 2. Whole table, then one chart per identifier ---
	charts := []additiveChart{{base: schema.MainPlotName, rows: table}}
	for _, id := range ids {
		subset, err := table.Filter(cfg.IDColumn, id)
		if err != nil {
			return nil, err
		}
		charts = append(charts, additiveChart{base: plotForIDPrefix + schema.SafeFileComponent(id), id: id, rows: subset})
	}

	var renderErr error
	for _, c := range charts {
		if renderErr = ctx.Err(); renderErr != nil {
			break
		}
		path := plotCfg.Path(cfg.OutputRoot, c.base)
		rowStart := time.Now()
		if renderErr = renderAdditive(cfg, renderer, c.rows, features, path); renderErr != nil {
			break
		}
		metricsFromContext(ctx).PlotRendered(schema.AdditiveArtifact, time.Since(rowStart))
		result.Artifacts = append(result.Artifacts, schema.Artifact{
			Path:       path,
			Kind:       schema.AdditiveArtifact,
			RowID:      c.id,
			ClassIndex: regressionClass,
		})
	}

	tracker.record(result.Artifacts)
	tracker.end(len(result.Artifacts))
	if renderErr != nil {
		return nil, renderErr
	}
	result.Duration = time.Since(start)
	return result, nil
}

// renderAdditive draws one subset of the table.
func renderAdditive(cfg *contract.Config, renderer *render.AdditiveRenderer, subset *frame.Frame, features []string, path string) error {
	rows, err := subset.Rows(features)
	if err != nil {
		return err
	}
	var labels []string
	if cfg.IndexColumn != "" {
		if labels, err = subset.Column(cfg.IndexColumn); err != nil {
			return err
		}
	}
	return renderer.Render(rows, labels, path)
}

// selectIDs returns the identifiers to chart: the requested ones as given,
// a seeded sample, or every identifier in first-appearance order.
func selectIDs(cfg *contract.Config, table *frame.Frame) ([]string, error) {
	if len(cfg.IDs) > 0 {
		return slices.Clone(cfg.IDs), nil
	}
	all, err := table.Unique(cfg.IDColumn)
	if err != nil {
		return nil, err
	}
	if cfg.Sample <= 0 || cfg.Sample >= len(all) {
		return all, nil
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))
	picked := rng.Perm(len(all))[:cfg.Sample]
	slices.Sort(picked)
	ids := make([]string, len(picked))
	for i, p := range picked {
		ids[i] = all[p]
	}
	return ids, nil
}
