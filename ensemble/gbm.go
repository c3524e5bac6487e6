package ensemble

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/pkg/errors"
)

// GradientBoostingClassifier fits shallow regression trees to the gradient of
// the logistic loss, stagewise. Leaf values use a single Newton step, so each
// leaf outputs sum(residual) / sum(p*(1-p)) over its training samples.
type GradientBoostingClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators    int
	learningRate   float64
	maxDepth       int
	minSamplesLeaf int
	subsample      float64
	randomState    int64

	// Learned parameters
	baseScore float64 // initial log-odds
	stages    []*regTree
	classes_  []int
}

// GradientBoostingOption is a functional option for GradientBoostingClassifier.
type GradientBoostingOption func(*GradientBoostingClassifier)

// NewGradientBoostingClassifier creates a GradientBoostingClassifier.
func NewGradientBoostingClassifier(opts ...GradientBoostingOption) *GradientBoostingClassifier {
	gb := &GradientBoostingClassifier{
		state:          model.NewStateManager(),
		nEstimators:    100,
		learningRate:   0.1,
		maxDepth:       3,
		minSamplesLeaf: 1,
		subsample:      1.0,
		randomState:    -1,
	}
	for _, opt := range opts {
		opt(gb)
	}
	return gb
}

// WithGBNEstimators sets the number of boosting stages.
func WithGBNEstimators(n int) GradientBoostingOption {
	return func(gb *GradientBoostingClassifier) { gb.nEstimators = n }
}

// WithGBLearningRate sets the shrinkage applied to each stage.
func WithGBLearningRate(lr float64) GradientBoostingOption {
	return func(gb *GradientBoostingClassifier) { gb.learningRate = lr }
}

// WithGBMaxDepth caps the depth of each stage tree.
func WithGBMaxDepth(depth int) GradientBoostingOption {
	return func(gb *GradientBoostingClassifier) { gb.maxDepth = depth }
}

// WithGBMinSamplesLeaf sets the minimum number of samples per leaf.
func WithGBMinSamplesLeaf(n int) GradientBoostingOption {
	return func(gb *GradientBoostingClassifier) { gb.minSamplesLeaf = n }
}

// WithGBSubsample sets the row fraction drawn without replacement per stage.
func WithGBSubsample(fraction float64) GradientBoostingOption {
	return func(gb *GradientBoostingClassifier) { gb.subsample = fraction }
}

// WithGBRandomState seeds the per-stage row subsampling.
func WithGBRandomState(seed int64) GradientBoostingOption {
	return func(gb *GradientBoostingClassifier) { gb.randomState = seed }
}

// Fit runs the boosting stages. y must be an (n x 1) matrix of 0/1 labels
// containing both classes.
func (gb *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	if err := model.ValidateFitInputs("GradientBoostingClassifier.Fit", X, y); err != nil {
		return err
	}
	classes, err := model.BinaryClasses("GradientBoostingClassifier.Fit", y)
	if err != nil {
		return err
	}
	if gb.nEstimators < 1 {
		return errors.NewValueError("GradientBoostingClassifier.Fit", "n_estimators must be at least 1")
	}
	if gb.learningRate <= 0 {
		return errors.NewValueError("GradientBoostingClassifier.Fit", "learning_rate must be positive")
	}
	if gb.subsample <= 0 || gb.subsample > 1 {
		return errors.NewValueError("GradientBoostingClassifier.Fit", "subsample must be in (0, 1]")
	}
	gb.classes_ = classes

	nSamples, nFeatures := X.Dims()

	positives := 0.0
	for i := 0; i < nSamples; i++ {
		positives += y.At(i, 0)
	}
	prior := positives / float64(nSamples)
	gb.baseScore = math.Log(prior / (1 - prior))

	seed := gb.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	scores := make([]float64, nSamples)
	for i := range scores {
		scores[i] = gb.baseScore
	}

	residual := make([]float64, nSamples)
	hessian := make([]float64, nSamples)
	gb.stages = make([]*regTree, 0, gb.nEstimators)

	for stage := 0; stage < gb.nEstimators; stage++ {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(scores[i])
			residual[i] = y.At(i, 0) - p
			hessian[i] = p * (1 - p)
		}

		indices := gb.stageSample(rng, nSamples)
		t := growRegTree(X, residual, hessian, indices, gb.maxDepth, gb.minSamplesLeaf)
		gb.stages = append(gb.stages, t)

		for i := 0; i < nSamples; i++ {
			scores[i] += gb.learningRate * t.predict(X, i)
		}
	}

	gb.state.SetDimensions(nFeatures, nSamples)
	gb.state.SetFitted()
	return nil
}

// stageSample draws the row subset for one stage without replacement.
func (gb *GradientBoostingClassifier) stageSample(rng *rand.Rand, nSamples int) []int {
	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if gb.subsample >= 1 {
		return indices
	}
	rng.Shuffle(nSamples, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	k := int(gb.subsample * float64(nSamples))
	if k < 1 {
		k = 1
	}
	return indices[:k]
}

// rawScore computes the boosted log-odds for one row.
func (gb *GradientBoostingClassifier) rawScore(X mat.Matrix, i int) float64 {
	score := gb.baseScore
	for _, t := range gb.stages {
		score += gb.learningRate * t.predict(X, i)
	}
	return score
}

// PredictProba returns an (n x 2) matrix of class probabilities.
func (gb *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := gb.state.RequireFitted("GradientBoostingClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := gb.checkWidth("GradientBoostingClassifier.PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p := sigmoid(gb.rawScore(X, i))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Predict returns 0/1 labels using the 0.5 probability threshold.
func (gb *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := gb.PredictProba(X)
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

func (gb *GradientBoostingClassifier) checkWidth(op string, X mat.Matrix) error {
	_, c := X.Dims()
	nFeatures, _ := gb.state.GetDimensions()
	if c != nFeatures {
		return errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return nil
}

// Classes returns the sorted class labels seen during fitting.
func (gb *GradientBoostingClassifier) Classes() []int {
	out := make([]int, len(gb.classes_))
	copy(out, gb.classes_)
	return out
}

// NStages returns the number of fitted boosting stages.
func (gb *GradientBoostingClassifier) NStages() int { return len(gb.stages) }

// GetParams returns the model hyperparameters.
func (gb *GradientBoostingClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     gb.nEstimators,
		"learning_rate":    gb.learningRate,
		"max_depth":        gb.maxDepth,
		"min_samples_leaf": gb.minSamplesLeaf,
		"subsample":        gb.subsample,
		"random_state":     gb.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (gb *GradientBoostingClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			v, err := model.ParamInt("n_estimators", value)
			if err != nil {
				return err
			}
			gb.nEstimators = v
		case "learning_rate":
			v, err := model.ParamFloat("learning_rate", value)
			if err != nil {
				return err
			}
			gb.learningRate = v
		case "max_depth":
			v, err := model.ParamInt("max_depth", value)
			if err != nil {
				return err
			}
			gb.maxDepth = v
		case "min_samples_leaf":
			v, err := model.ParamInt("min_samples_leaf", value)
			if err != nil {
				return err
			}
			gb.minSamplesLeaf = v
		case "subsample":
			v, err := model.ParamFloat("subsample", value)
			if err != nil {
				return err
			}
			gb.subsample = v
		case "random_state":
			v, err := model.ParamInt("random_state", value)
			if err != nil {
				return err
			}
			gb.randomState = int64(v)
		default:
			return errors.NewValueError("GradientBoostingClassifier.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
