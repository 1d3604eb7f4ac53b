package schema

import "time"

// RunRecord represents a row from the attrplot_runs table.
type RunRecord struct {
	RunID          int64
	RunUUID        string
	Pipeline       string
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	TotalArtifacts int32
	ConfigParams   *string
}

// ArtifactRecord represents a row from the attrplot_artifacts table.
type ArtifactRecord struct {
	RunID      int64
	Path       string
	Kind       string
	Model      string
	Dataset    string
	Feature    string
	RowID      string
	ClassIndex int32
	CreatedAt  time.Time
}
