package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/frame"
	"github.com/huangsam/attrplot/internal/model"
	"github.com/huangsam/attrplot/internal/outwriter"
	"github.com/huangsam/attrplot/internal/parquet"
	"github.com/huangsam/attrplot/internal/render"
	"github.com/huangsam/attrplot/schema"
	"github.com/rs/zerolog/log"
)

// Reasons recorded for pairs without output.
const kindMismatch = "kind mismatch"

// pairJob is one (model, dataset) combination handed to a worker.
type pairJob struct {
	model   *model.Model
	dataset *frame.Dataset
}

// pairResult is what a worker reports back for one pair.
type pairResult struct {
	artifacts []schema.Artifact
	skipped   *schema.SkippedPair
	missing   []string
	err       error
}

// RunGenerate runs the per-observation pipeline: for every (model, dataset)
// pair of matching task kind it renders the importance, scatter and force
// plots under the output root, which is reset once before any worker starts.
func RunGenerate(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.GenerateResult, error) {
	start := time.Now()

	// --- 1. Load inputs ---
	models, err := model.LoadModels(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	datasets, err := frame.LoadDatasets(cfg.DataDir, datasetOptions(cfg))
	if err != nil {
		return nil, err
	}
	plotCfg, err := render.NewPlotConfig(cfg)
	if err != nil {
		return nil, err
	}

	jobs := make([]pairJob, 0, len(models)*len(datasets))
	for _, m := range models {
		for _, ds := range datasets {
			jobs = append(jobs, pairJob{model: m, dataset: ds})
		}
	}
	if err := checkClasses(cfg.Classes, jobs); err != nil {
		return nil, err
	}

	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogGenerateHeader(cfg, len(models), len(datasets))
	}

	// --- 2. Reset the output root ---
	if err := ResetOutputRoot(cfg.OutputRoot, cfg.DataDir, cfg.ModelDir); err != nil {
		return nil, err
	}

	// --- 3. Begin run tracking (if configured) ---
	ctx = contextWithCacheManager(ctx, mgr)
	ctx, tracker := beginRun(ctx, mgr, schema.GeneratePipeline, generateParams(cfg))

	// --- 4. Render every pair ---
	result := &schema.GenerateResult{RunID: tracker.id}
	var errs []error
	for _, r := range processPairs(ctx, cfg, plotCfg, jobs) {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if r.skipped != nil {
			result.Skipped = append(result.Skipped, *r.skipped)
		}
		result.Artifacts = append(result.Artifacts, r.artifacts...)
		result.MissingIDs = append(result.MissingIDs, r.missing...)
	}
	sortArtifacts(result.Artifacts)
	slices.SortFunc(result.Skipped, func(a, b schema.SkippedPair) int {
		return strings.Compare(a.Model+"\x00"+a.Dataset, b.Model+"\x00"+b.Dataset)
	})
	slices.Sort(result.MissingIDs)

	// --- 5. End run tracking ---
	tracker.record(result.Artifacts)
	tracker.end(len(result.Artifacts))

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	result.Duration = time.Since(start)
	return result, nil
}

// ResetOutputRoot removes the output root and recreates it with the
// per-observation subfolders. A root that contains one of inputs, the
// working directory or the home directory is refused.
func ResetOutputRoot(root string, inputs ...string) error {
	if err := contract.ValidateOutputRoot(root, inputs...); err != nil {
		return err
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to remove output root %s: %w", root, err)
	}
	for _, dir := range schema.PipelineSubdirs() {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// datasetOptions builds the table loading options of a run.
func datasetOptions(cfg *contract.Config) frame.LoadOptions {
	return frame.LoadOptions{
		IDColumn:    cfg.IDColumn,
		DropColumns: cfg.DropColumns,
		Parquet:     parquet.ReadTable,
	}
}

// checkClasses rejects selected classes that a paired classifier does not have.
func checkClasses(classes []int, jobs []pairJob) error {
	for _, job := range jobs {
		m := job.model
		if !m.Kind.IsClassifier() || !m.Kind.Matches(job.dataset.Kind) {
			continue
		}
		for _, k := range classes {
			if k >= m.Kind.Outputs() {
				return fmt.Errorf("%w: class %d for model %s with %d classes", schema.ErrClassOutOfRange, k, m.Name, m.Kind.Outputs())
			}
		}
	}
	return nil
}

// processPairs renders all pairs in parallel using a worker pool.
// It spawns cfg.Workers goroutines and gathers one result per pair.
func processPairs(ctx context.Context, cfg *contract.Config, plotCfg render.PlotConfig, jobs []pairJob) []pairResult {
	jobCh := make(chan pairJob, len(jobs))
	resultCh := make(chan pairResult, len(jobs))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for job := range jobCh {
				if err := ctx.Err(); err != nil {
					resultCh <- pairResult{err: err}
					continue
				}
				resultCh <- processPair(ctx, cfg, plotCfg, job)
			}
		})
	}

	// Send all pairs to the workers
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	results := make([]pairResult, 0, len(jobs))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// processPair renders one pair, or skips it when the task kinds differ.
func processPair(ctx context.Context, cfg *contract.Config, plotCfg render.PlotConfig, job pairJob) pairResult {
	m, ds := job.model, job.dataset
	if !m.Kind.Matches(ds.Kind) {
		log.Debug().
			Int64("run", runIDFromContext(ctx)).
			Str("model", m.Name).
			Str("dataset", ds.Name).
			Msg("Skipping pair with a different task kind")
		metricsFromContext(ctx).PairSkipped(kindMismatch)
		return pairResult{skipped: &schema.SkippedPair{Model: m.Name, Dataset: ds.Name, Reason: kindMismatch}}
	}

	p := &pairRenderer{cfg: cfg, plotCfg: plotCfg, model: m, dataset: ds}
	if err := p.render(ctx); err != nil {
		return pairResult{err: fmt.Errorf("model %s on dataset %s: %w", m.Name, ds.Name, err)}
	}
	return pairResult{artifacts: p.artifacts, missing: p.missing}
}

// sortArtifacts orders artifacts by path so results are stable across worker schedules.
func sortArtifacts(artifacts []schema.Artifact) {
	slices.SortFunc(artifacts, func(a, b schema.Artifact) int {
		return strings.Compare(a.Path, b.Path)
	})
}
