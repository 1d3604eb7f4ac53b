// Package core has the plotting pipelines: per-observation attribution plots,
// stacked additive charts and feature importance reports.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/metrics"
	"github.com/huangsam/attrplot/internal/outwriter"
	"github.com/huangsam/attrplot/internal/render"
	"github.com/huangsam/attrplot/schema"
)

// ExecutorFunc defines the function signature for executing a pipeline from the CLI.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteGenerate runs the per-observation pipeline and prints a summary.
// It serves as the main entry point for the 'generate' command.
func ExecuteGenerate(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	m := metrics.New()
	result, err := RunGenerate(WithMetrics(ctx, m), cfg, mgr)
	if err != nil {
		return err
	}
	if err := m.WriteFile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	if err := outwriter.PrintGenerateResult(result, cfg); err != nil {
		return err
	}
	previewArtifacts(cfg, result.Artifacts)
	return nil
}

// ExecuteAdditive runs the additive pipeline and prints a summary.
// It serves as the main entry point for the 'additive' command.
func ExecuteAdditive(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	m := metrics.New()
	result, err := RunAdditive(WithMetrics(ctx, m), cfg, mgr)
	if err != nil {
		return err
	}
	if err := m.WriteFile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	if err := outwriter.PrintAdditiveResult(result, cfg); err != nil {
		return err
	}
	previewArtifacts(cfg, result.Artifacts)
	return nil
}

// ExecuteImportance ranks the features of every pair and prints the report.
// It serves as the main entry point for the 'importance' command.
func ExecuteImportance(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	m := metrics.New()
	results, err := RunImportance(WithMetrics(ctx, m), cfg, mgr)
	if err != nil {
		return err
	}
	if err := m.WriteFile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return outwriter.PrintImportanceResults(results, cfg, time.Since(start))
}

// previewArtifacts prints rendered PNG charts inline on sixel terminals.
func previewArtifacts(cfg *contract.Config, artifacts []schema.Artifact) {
	if !cfg.Preview || cfg.ImageFormat != schema.PNGFormat || cfg.Output != schema.TextOut {
		return
	}
	for _, a := range artifacts {
		if a.Kind == schema.AttributionArtifact {
			continue
		}
		fmt.Println(a.Path)
		if err := render.Preview(os.Stdout, a.Path); err != nil {
			contract.LogWarn("Preview failed", err)
			return
		}
		fmt.Println()
	}
}
