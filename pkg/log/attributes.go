// Package log defines standard attribute keys for benchmarking-harness
// operations. Using these keys keeps the pipeline stages, model runs and
// metric values filterable in structured log output.
package log

// Run and pipeline context.
const (
	// RunIDKey is the unique identifier of one harness execution.
	RunIDKey = "run.id"

	// StageKey names the pipeline stage emitting the log entry.
	// Standard values: "load", "filter", "encode", "split", "tune",
	// "train", "evaluate", "report".
	StageKey = "bench.stage"

	// ModelNameKey identifies the model family being processed.
	// Examples: "LogisticRegression", "RandomForest".
	ModelNameKey = "model.name"

	// OperationKey specifies the estimator operation being performed.
	// Standard values: "fit", "predict", "predict_proba", "transform".
	OperationKey = "ml.operation"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"

	// RowsDroppedKey is the number of rows removed by the missing-data filter.
	RowsDroppedKey = "data.rows_dropped"

	// ColumnsDroppedKey is the number of columns removed by the filter.
	ColumnsDroppedKey = "data.columns_dropped"
)

// Tuning and evaluation.
const (
	// CandidateKey is the index of a grid-search candidate.
	CandidateKey = "tune.candidate"

	// CVScoreKey is the mean cross-validation score of a candidate.
	CVScoreKey = "tune.cv_score"

	// AUCKey is the held-out test ROC-AUC of a model.
	AUCKey = "metric.auc"

	// AccuracyKey is the held-out test accuracy of a model.
	AccuracyKey = "metric.accuracy"

	// DurationMsKey is the wall-clock duration of an operation in milliseconds.
	DurationMsKey = "duration_ms"
)
