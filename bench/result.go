package bench

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/dataset"
	"github.com/clinbench/clinbench/metrics"
)

// ModelState is the lifecycle position of one model within a run.
type ModelState string

// Model lifecycle states. A model moves strictly forward; Failed is terminal
// from any earlier state.
const (
	StateUntrained ModelState = "untrained"
	StateTuning    ModelState = "tuning"
	StateTrained   ModelState = "trained"
	StateEvaluated ModelState = "evaluated"
	StateFailed    ModelState = "failed"
)

// ModelResult is the immutable outcome of one model family in a run. For a
// failed model only Name, State, Err and Duration are meaningful.
type ModelResult struct {
	Name  string
	State ModelState

	// BestParams is nil when tuning was disabled; CVScore is the mean
	// cross-validated ROC-AUC of the winning candidate.
	BestParams map[string]interface{}
	CVScore    float64

	// Labels and Probas are the test-partition predictions: 0/1 labels and
	// positive-class probabilities, row-aligned with the test split.
	Labels *mat.VecDense
	Probas *mat.VecDense

	AUC       float64
	Accuracy  float64
	Confusion *metrics.ConfusionMatrix
	Report    *metrics.Report

	Err      error
	Duration time.Duration
}

// Failed reports whether the model ended in the failed state.
func (r *ModelResult) Failed() bool { return r.State == StateFailed }

// Results aggregates one full benchmark run.
type Results struct {
	RunID string

	// Dataset shape after filtering and encoding.
	Filter       *dataset.FilterReport
	FeatureNames []string
	// ClassNames maps label 0 and 1 back to the raw outcome values.
	ClassNames []string

	TrainSize int
	TestSize  int

	Models []*ModelResult
}
