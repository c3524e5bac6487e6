// Package linear implements the logistic-regression model family.
package linear

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/pkg/errors"
)

// LogisticRegression is a binary L2-regularized logistic regression trained
// by full-batch gradient descent with a decaying learning rate.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // Inverse regularization strength (1/lambda)
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64

	// Learned parameters
	coef_      []float64
	intercept_ float64
	classes_   []int
	nIter_     int

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a LogisticRegression classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.seedRand()
	return lr
}

func (lr *LogisticRegression) seedRand() {
	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLRFitIntercept sets whether an intercept term is fitted.
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithLRMaxIter sets the maximum number of gradient-descent iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithLRTol sets the gradient tolerance for early stopping.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLRRandomState sets the seed for weight initialization.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
		lr.seedRand()
	}
}

// Fit trains the model. y must be an (n x 1) matrix of 0/1 labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := model.ValidateFitInputs("LogisticRegression.Fit", X, y); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()

	classes, err := model.BinaryClasses("LogisticRegression.Fit", y)
	if err != nil {
		return err
	}
	lr.classes_ = classes

	// Small random initialization, deterministic under a fixed seed.
	lr.coef_ = make([]float64, nFeatures)
	for j := range lr.coef_ {
		lr.coef_[j] = lr.rand.NormFloat64() * 0.01
	}
	lr.intercept_ = 0

	baseLearningRate := 1.0
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept_
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef_[j]
			}
			residual := sigmoid(z) - y.At(i, 0)
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		// L2 penalty gradient.
		lambda := 1.0 / lr.c
		for j := range lr.coef_ {
			gradWeights[j] += lambda * lr.coef_[j] / float64(nSamples)
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.coef_ {
			lr.coef_[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			lr.intercept_ -= learningRate * gradIntercept
		}
		lr.nIter_ = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_, ""))
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// decision computes the linear score for one row.
func (lr *LogisticRegression) decision(X mat.Matrix, i int) float64 {
	z := lr.intercept_
	for j := range lr.coef_ {
		z += X.At(i, j) * lr.coef_[j]
	}
	return z
}

// Predict returns 0/1 labels using the 0.5 probability threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}
	if err := lr.checkWidth("LogisticRegression.Predict", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if sigmoid(lr.decision(X, i)) >= 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns an (n x 2) matrix of class probabilities, column 1
// holding the positive class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	if err := lr.checkWidth("LogisticRegression.PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p := sigmoid(lr.decision(X, i))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

func (lr *LogisticRegression) checkWidth(op string, X mat.Matrix) error {
	_, c := X.Dims()
	if c != len(lr.coef_) {
		return errors.NewDimensionError(op, len(lr.coef_), c, 1)
	}
	return nil
}

// Classes returns the sorted class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// NIter returns the number of gradient-descent iterations performed.
func (lr *LogisticRegression) NIter() int { return lr.nIter_ }

// Coef returns the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	out := make([]float64, len(lr.coef_))
	copy(out, lr.coef_)
	return out
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 { return lr.intercept_ }

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "C":
			v, err := model.ParamFloat("C", value)
			if err != nil {
				return err
			}
			lr.c = v
		case "fit_intercept":
			v, err := model.ParamBool("fit_intercept", value)
			if err != nil {
				return err
			}
			lr.fitIntercept = v
		case "max_iter":
			v, err := model.ParamInt("max_iter", value)
			if err != nil {
				return err
			}
			lr.maxIter = v
		case "tol":
			v, err := model.ParamFloat("tol", value)
			if err != nil {
				return err
			}
			lr.tol = v
		case "random_state":
			v, err := model.ParamInt("random_state", value)
			if err != nil {
				return err
			}
			lr.randomState = int64(v)
			lr.seedRand()
		default:
			return errors.NewValueError("LogisticRegression.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
