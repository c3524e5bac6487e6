// Package ensemble implements the tree-ensemble model families: bagged
// random forests and gradient-boosted trees.
package ensemble

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/core/parallel"
	"github.com/clinbench/clinbench/pkg/errors"
	"github.com/clinbench/clinbench/tree"
)

// RandomForestClassifier averages the class probabilities of decision trees
// fitted on bootstrap resamples with per-split feature subsampling.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators    int
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int // 0 means sqrt(nFeatures)
	randomState    int64

	// Learned parameters
	trees    []*tree.DecisionTreeClassifier
	classes_ []int
}

// RandomForestOption is a functional option for RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a RandomForestClassifier.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:          model.NewStateManager(),
		nEstimators:    100,
		maxDepth:       0,
		minSamplesLeaf: 1,
		maxFeatures:    0,
		randomState:    -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithForestNEstimators sets the number of trees.
func WithForestNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithForestMaxDepth caps the depth of each tree. Zero leaves it unbounded.
func WithForestMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.maxDepth = depth }
}

// WithForestMinSamplesLeaf sets the minimum number of samples per leaf.
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.minSamplesLeaf = n }
}

// WithForestMaxFeatures sets the per-split feature subsample size. Zero picks
// sqrt(nFeatures), the usual default for classification.
func WithForestMaxFeatures(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.maxFeatures = n }
}

// WithForestRandomState seeds bootstrapping and feature subsampling. Tree i
// always derives its seed as randomState+i, so results do not depend on the
// fitting order of the worker goroutines.
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.randomState = seed }
}

// Fit grows the forest. y must be an (n x 1) matrix of 0/1 labels containing
// both classes.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if err := model.ValidateFitInputs("RandomForestClassifier.Fit", X, y); err != nil {
		return err
	}
	classes, err := model.BinaryClasses("RandomForestClassifier.Fit", y)
	if err != nil {
		return err
	}
	if rf.nEstimators < 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "n_estimators must be at least 1")
	}
	rf.classes_ = classes

	nSamples, nFeatures := X.Dims()
	maxFeatures := rf.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Ceil(math.Sqrt(float64(nFeatures))))
	}

	baseSeed := rf.randomState
	if baseSeed < 0 {
		baseSeed = rand.Int63() / 2 // headroom for the +i offsets
	}

	rf.trees = make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	var mu sync.Mutex
	var firstErr error

	parallel.Parallelize(rf.nEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			seed := baseSeed + int64(t)
			bootX, bootY := bootstrap(X, y, nSamples, nFeatures, seed)

			dt := tree.NewDecisionTreeClassifier(
				tree.WithTreeMaxDepth(rf.maxDepth),
				tree.WithTreeMinSamplesLeaf(rf.minSamplesLeaf),
				tree.WithTreeMaxFeatures(maxFeatures),
				tree.WithTreeRandomState(seed),
			)
			if err := dt.Fit(bootX, bootY); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "tree %d", t)
				}
				mu.Unlock()
				return
			}
			rf.trees[t] = dt
		}
	})
	if firstErr != nil {
		return firstErr
	}

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// bootstrap draws n samples with replacement using its own seeded source.
func bootstrap(X, y mat.Matrix, nSamples, nFeatures int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	bootX := mat.NewDense(nSamples, nFeatures, nil)
	bootY := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		src := rng.Intn(nSamples)
		for j := 0; j < nFeatures; j++ {
			bootX.Set(i, j, X.At(src, j))
		}
		bootY.Set(i, 0, y.At(src, 0))
	}
	return bootX, bootY
}

// PredictProba returns the (n x 2) mean of the per-tree class probabilities.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()

	sums := make([][2]float64, nSamples)
	var mu sync.Mutex
	var firstErr error

	parallel.Parallelize(len(rf.trees), func(start, end int) {
		local := make([][2]float64, nSamples)
		for t := start; t < end; t++ {
			probas, err := rf.trees[t].PredictProba(X)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			for i := 0; i < nSamples; i++ {
				local[i][0] += probas.At(i, 0)
				local[i][1] += probas.At(i, 1)
			}
		}
		mu.Lock()
		for i := range sums {
			sums[i][0] += local[i][0]
			sums[i][1] += local[i][1]
		}
		mu.Unlock()
	})
	if firstErr != nil {
		return nil, firstErr
	}

	probas := mat.NewDense(nSamples, 2, nil)
	n := float64(len(rf.trees))
	for i := 0; i < nSamples; i++ {
		probas.Set(i, 0, sums[i][0]/n)
		probas.Set(i, 1, sums[i][1]/n)
	}
	return probas, nil
}

// Predict returns 0/1 labels from the averaged probabilities.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if probas.At(i, 1) >= 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// Classes returns the sorted class labels seen during fitting.
func (rf *RandomForestClassifier) Classes() []int {
	out := make([]int, len(rf.classes_))
	copy(out, rf.classes_)
	return out
}

// NTrees returns the number of fitted trees.
func (rf *RandomForestClassifier) NTrees() int { return len(rf.trees) }

// GetParams returns the model hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     rf.nEstimators,
		"max_depth":        rf.maxDepth,
		"min_samples_leaf": rf.minSamplesLeaf,
		"max_features":     rf.maxFeatures,
		"random_state":     rf.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (rf *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			v, err := model.ParamInt("n_estimators", value)
			if err != nil {
				return err
			}
			rf.nEstimators = v
		case "max_depth":
			v, err := model.ParamInt("max_depth", value)
			if err != nil {
				return err
			}
			rf.maxDepth = v
		case "min_samples_leaf":
			v, err := model.ParamInt("min_samples_leaf", value)
			if err != nil {
				return err
			}
			rf.minSamplesLeaf = v
		case "max_features":
			v, err := model.ParamInt("max_features", value)
			if err != nil {
				return err
			}
			rf.maxFeatures = v
		case "random_state":
			v, err := model.ParamInt("random_state", value)
			if err != nil {
				return err
			}
			rf.randomState = int64(v)
		default:
			return errors.NewValueError("RandomForestClassifier.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}
