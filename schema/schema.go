// Package schema has configs, models and shared types for all parts of attrplot.
package schema

import (
	"errors"
	"time"
)

// Sentinel errors shared across packages.
var (
	ErrUnknownTaskKind = errors.New("cannot determine task kind from dataset name")
	ErrNoModels        = errors.New("no models found")
	ErrNoDatasets      = errors.New("no datasets found")
	ErrClassOutOfRange = errors.New("class index out of range")
)

// Artifact is one file produced by a pipeline.
type Artifact struct {
	Path       string       `json:"path"`
	Kind       ArtifactKind `json:"kind"`
	Model      string       `json:"model,omitempty"`
	Dataset    string       `json:"dataset,omitempty"`
	Feature    string       `json:"feature,omitempty"`
	RowID      string       `json:"row_id,omitempty"`
	ClassIndex int          `json:"class_index"` // -1 for regression and additive charts
}

// SkippedPair records a (model, dataset) combination that produced no output.
type SkippedPair struct {
	Model   string `json:"model"`
	Dataset string `json:"dataset"`
	Reason  string `json:"reason"`
}

// GenerateResult summarizes one per-observation run.
type GenerateResult struct {
	RunID      int64         `json:"run_id"`
	Artifacts  []Artifact    `json:"artifacts"`
	Skipped    []SkippedPair `json:"skipped"`
	MissingIDs []string      `json:"missing_ids,omitempty"` // model/dataset/id triples that were not found
	Duration   time.Duration `json:"duration"`
}

// AdditiveResult summarizes one additive run.
type AdditiveResult struct {
	RunID     int64         `json:"run_id"`
	Artifacts []Artifact    `json:"artifacts"`
	Features  []string      `json:"features"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"duration"`
}

// FeatureImportance is a single feature score.
type FeatureImportance struct {
	Rank       int     `json:"rank"`
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ImportanceResult holds the ranked features of one (model, dataset) pair.
// Source is "model" for importances stored with the model and "shap" for
// mean absolute attribution values.
type ImportanceResult struct {
	Model    string              `json:"model"`
	Dataset  string              `json:"dataset"`
	Source   string              `json:"source"`
	Features []FeatureImportance `json:"features"`
}

// Importance sources.
const (
	ModelImportanceSource = "model"
	SHAPImportanceSource  = "shap"
)
