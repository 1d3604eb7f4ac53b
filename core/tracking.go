package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
)

// runTracker records one pipeline run in the run store.
// Store failures are logged and never fail the run.
type runTracker struct {
	store contract.RunStore
	id    int64
}

// beginRun starts run tracking when a run store is configured and returns
// a context carrying the run ID.
func beginRun(ctx context.Context, mgr contract.CacheManager, pipeline schema.Pipeline, configParams map[string]any) (context.Context, *runTracker) {
	tracker := &runTracker{}
	if mgr == nil {
		return ctx, tracker
	}
	tracker.store = mgr.GetRunStore()
	if tracker.store == nil {
		return ctx, tracker
	}

	id, err := tracker.store.BeginRun(uuid.New().String(), pipeline, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		tracker.store = nil
		return ctx, tracker
	}
	tracker.id = id
	if id > 0 {
		ctx = withRunID(ctx, id)
	}
	return ctx, tracker
}

// record stores the artifacts written by the run.
func (r *runTracker) record(artifacts []schema.Artifact) {
	if r.store == nil || r.id <= 0 {
		return
	}
	now := time.Now()
	for _, a := range artifacts {
		if err := r.store.RecordArtifact(r.id, a, now); err != nil {
			contract.LogWarn("Failed to record artifact "+a.Path, err)
			return
		}
	}
}

// end finalizes the run.
func (r *runTracker) end(totalArtifacts int) {
	if r.store == nil || r.id <= 0 {
		return
	}
	if err := r.store.EndRun(r.id, time.Now(), totalArtifacts); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// generateParams lists the settings stored with a per-observation run.
func generateParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"data_dir":     cfg.DataDir,
		"model_dir":    cfg.ModelDir,
		"output_root":  cfg.OutputRoot,
		"ids":          cfg.IDs,
		"classes":      cfg.Classes,
		"workers":      cfg.Workers,
		"image_format": string(cfg.ImageFormat),
		"label_mode":   string(cfg.LabelMode),
	}
}

// additiveParams lists the settings stored with an additive run.
func additiveParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"table":        cfg.TablePath,
		"output_root":  cfg.OutputRoot,
		"id_column":    cfg.IDColumn,
		"index_column": cfg.IndexColumn,
		"ids":          cfg.IDs,
		"sample":       cfg.Sample,
		"seed":         cfg.Seed,
		"image_format": string(cfg.ImageFormat),
	}
}
