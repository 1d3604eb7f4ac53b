package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of a report.
	OutputMode string

	// ImageFormat represents the encoding of rendered charts.
	ImageFormat string

	// TaskKind represents the learning task of a model or dataset.
	TaskKind string

	// Aggregation represents how tree outputs are combined.
	Aggregation string

	// LabelMode represents how feature values are labeled on force plots.
	LabelMode string

	// ArtifactKind represents the type of chart written to disk.
	ArtifactKind string

	// Pipeline represents one of the two plotting pipelines.
	Pipeline string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All image formats supported.
const (
	PNGFormat ImageFormat = "png" // default
	SVGFormat ImageFormat = "svg"
)

// Task kinds.
const (
	Classification TaskKind = "classification"
	Regression     TaskKind = "regression"
)

// Tree output aggregations.
const (
	MeanAggregation Aggregation = "mean" // default, random forests
	SumAggregation  Aggregation = "sum"  // gradient boosting
)

// Force plot label modes.
const (
	ValueLabels      LabelMode = "value" // default
	PercentileLabels LabelMode = "percentile"
)

// Artifact kinds.
const (
	ImportanceArtifact  ArtifactKind = "importance"
	ScatterArtifact     ArtifactKind = "scatter"
	ForceArtifact       ArtifactKind = "force"
	AdditiveArtifact    ArtifactKind = "additive"
	AttributionArtifact ArtifactKind = "attribution"
)

// Pipelines.
const (
	GeneratePipeline Pipeline = "generate"
	AdditivePipeline Pipeline = "additive"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	BoltBackend       DatabaseBackend = "bolt"
	NoneBackend       DatabaseBackend = "none"
)

// Output subdirectories of the per-observation pipeline.
const (
	FeatureImportanceDir = "feature_importance"
	ForcePlotsDir        = "force_plots"
	FeatureDir           = "feature"
	AttributionsDir      = "attributions"
)

// Fixed names used by the two pipelines.
const (
	TargetColumn      = "Target"
	MainPlotName      = "main_plot"
	AdditiveTitle     = "Shapley feature importance (additive)"
	FeaturePrefix     = "X_"
	TargetPrefix      = "y_"
	DefaultOutputRoot = "./visualization"
	DefaultIDColumn   = "id"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidImageFormats lists all valid image formats.
var ValidImageFormats = map[ImageFormat]struct{}{
	PNGFormat: {},
	SVGFormat: {},
}

// ValidLabelModes lists all valid force plot label modes.
var ValidLabelModes = map[LabelMode]struct{}{
	ValueLabels:      {},
	PercentileLabels: {},
}

// ValidAggregations lists all valid tree aggregations.
var ValidAggregations = map[Aggregation]struct{}{
	MeanAggregation: {},
	SumAggregation:  {},
}

// ValidCacheBackends lists all valid attribution cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	BoltBackend:       {},
	NoneBackend:       {},
}

// ValidRunBackends lists all valid run store backends.
// The run store needs SQL migrations, so bolt is not offered.
var ValidRunBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// PipelineSubdirs returns the subfolders created under the output root.
func PipelineSubdirs() []string {
	return []string{FeatureImportanceDir, ForcePlotsDir, FeatureDir}
}
