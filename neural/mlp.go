// Package neural implements a small feed-forward classifier: one ReLU hidden
// layer and a sigmoid output, trained by full-batch gradient descent on the
// logistic loss. Inputs should be standardized first; the benchmark pipeline
// chains it after a StandardScaler.
package neural

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/pkg/errors"
)

// MLPClassifier is a binary multilayer perceptron with a single hidden layer.
type MLPClassifier struct {
	state *model.StateManager

	// Hyperparameters
	hiddenUnits  int
	learningRate float64
	maxIter      int
	tol          float64
	randomState  int64

	// Learned parameters. w1 is (features x hidden), w2 is (hidden x 1).
	w1, w2   *mat.Dense
	b1       []float64
	b2       float64
	classes_ []int
	nIter_   int
	loss_    float64

	rand *rand.Rand
}

// MLPOption is a functional option for MLPClassifier.
type MLPOption func(*MLPClassifier)

// NewMLPClassifier creates an MLPClassifier.
func NewMLPClassifier(opts ...MLPOption) *MLPClassifier {
	m := &MLPClassifier{
		state:        model.NewStateManager(),
		hiddenUnits:  16,
		learningRate: 0.1,
		maxIter:      200,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.seedRand()
	return m
}

func (m *MLPClassifier) seedRand() {
	if m.randomState >= 0 {
		m.rand = rand.New(rand.NewSource(m.randomState))
	} else {
		m.rand = rand.New(rand.NewSource(rand.Int63()))
	}
}

// WithMLPHiddenUnits sets the hidden layer width.
func WithMLPHiddenUnits(n int) MLPOption {
	return func(m *MLPClassifier) { m.hiddenUnits = n }
}

// WithMLPLearningRate sets the gradient-descent step size.
func WithMLPLearningRate(lr float64) MLPOption {
	return func(m *MLPClassifier) { m.learningRate = lr }
}

// WithMLPMaxIter sets the maximum number of full-batch iterations.
func WithMLPMaxIter(n int) MLPOption {
	return func(m *MLPClassifier) { m.maxIter = n }
}

// WithMLPTol sets the loss-improvement tolerance for early stopping.
func WithMLPTol(tol float64) MLPOption {
	return func(m *MLPClassifier) { m.tol = tol }
}

// WithMLPRandomState seeds the weight initialization.
func WithMLPRandomState(seed int64) MLPOption {
	return func(m *MLPClassifier) {
		m.randomState = seed
		m.seedRand()
	}
}

// Fit trains the network. y must be an (n x 1) matrix of 0/1 labels
// containing both classes.
func (m *MLPClassifier) Fit(X, y mat.Matrix) error {
	if err := model.ValidateFitInputs("MLPClassifier.Fit", X, y); err != nil {
		return err
	}
	classes, err := model.BinaryClasses("MLPClassifier.Fit", y)
	if err != nil {
		return err
	}
	if m.hiddenUnits < 1 {
		return errors.NewValueError("MLPClassifier.Fit", "hidden_units must be at least 1")
	}
	if m.learningRate <= 0 {
		return errors.NewValueError("MLPClassifier.Fit", "learning_rate must be positive")
	}
	m.classes_ = classes

	nSamples, nFeatures := X.Dims()
	h := m.hiddenUnits

	// He initialization for the ReLU layer, Xavier-style for the output.
	m.w1 = mat.NewDense(nFeatures, h, nil)
	scale1 := math.Sqrt(2.0 / float64(nFeatures))
	for i := 0; i < nFeatures; i++ {
		for j := 0; j < h; j++ {
			m.w1.Set(i, j, m.rand.NormFloat64()*scale1)
		}
	}
	m.w2 = mat.NewDense(h, 1, nil)
	scale2 := math.Sqrt(1.0 / float64(h))
	for j := 0; j < h; j++ {
		m.w2.Set(j, 0, m.rand.NormFloat64()*scale2)
	}
	m.b1 = make([]float64, h)
	m.b2 = 0

	hidden := make([][]float64, nSamples)
	for i := range hidden {
		hidden[i] = make([]float64, h)
	}
	output := make([]float64, nSamples)

	prevLoss := math.Inf(1)
	converged := false

	for iter := 0; iter < m.maxIter; iter++ {
		// Forward pass.
		loss := 0.0
		for i := 0; i < nSamples; i++ {
			for j := 0; j < h; j++ {
				z := m.b1[j]
				for f := 0; f < nFeatures; f++ {
					z += X.At(i, f) * m.w1.At(f, j)
				}
				if z < 0 {
					z = 0
				}
				hidden[i][j] = z
			}
			z := m.b2
			for j := 0; j < h; j++ {
				z += hidden[i][j] * m.w2.At(j, 0)
			}
			p := sigmoid(z)
			output[i] = p
			loss -= logLoss(y.At(i, 0), p)
		}
		loss /= float64(nSamples)

		// Backward pass.
		gradW1 := mat.NewDense(nFeatures, h, nil)
		gradW2 := make([]float64, h)
		gradB1 := make([]float64, h)
		gradB2 := 0.0

		for i := 0; i < nSamples; i++ {
			delta := output[i] - y.At(i, 0) // dLoss/dz at the output
			gradB2 += delta
			for j := 0; j < h; j++ {
				gradW2[j] += delta * hidden[i][j]
				if hidden[i][j] > 0 { // ReLU gate
					dj := delta * m.w2.At(j, 0)
					gradB1[j] += dj
					for f := 0; f < nFeatures; f++ {
						gradW1.Set(f, j, gradW1.At(f, j)+dj*X.At(i, f))
					}
				}
			}
		}

		inv := 1.0 / float64(nSamples)
		lr := m.learningRate
		for j := 0; j < h; j++ {
			m.w2.Set(j, 0, m.w2.At(j, 0)-lr*gradW2[j]*inv)
			m.b1[j] -= lr * gradB1[j] * inv
			for f := 0; f < nFeatures; f++ {
				m.w1.Set(f, j, m.w1.At(f, j)-lr*gradW1.At(f, j)*inv)
			}
		}
		m.b2 -= lr * gradB2 * inv

		m.nIter_ = iter + 1
		m.loss_ = loss
		if math.Abs(prevLoss-loss) < m.tol {
			converged = true
			break
		}
		prevLoss = loss
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("MLPClassifier", m.nIter_, ""))
	}

	m.state.SetDimensions(nFeatures, nSamples)
	m.state.SetFitted()
	return nil
}

// forward computes P(class == 1) for one row.
func (m *MLPClassifier) forward(X mat.Matrix, i int) float64 {
	nFeatures, h := m.w1.Dims()
	z2 := m.b2
	for j := 0; j < h; j++ {
		z := m.b1[j]
		for f := 0; f < nFeatures; f++ {
			z += X.At(i, f) * m.w1.At(f, j)
		}
		if z > 0 {
			z2 += z * m.w2.At(j, 0)
		}
	}
	return sigmoid(z2)
}

// Predict returns 0/1 labels using the 0.5 probability threshold.
func (m *MLPClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MLPClassifier", "Predict"); err != nil {
		return nil, err
	}
	if err := m.checkWidth("MLPClassifier.Predict", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if m.forward(X, i) >= 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns an (n x 2) matrix of class probabilities.
func (m *MLPClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MLPClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := m.checkWidth("MLPClassifier.PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p := m.forward(X, i)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

func (m *MLPClassifier) checkWidth(op string, X mat.Matrix) error {
	_, c := X.Dims()
	nFeatures, _ := m.state.GetDimensions()
	if c != nFeatures {
		return errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return nil
}

// Classes returns the sorted class labels seen during fitting.
func (m *MLPClassifier) Classes() []int {
	out := make([]int, len(m.classes_))
	copy(out, m.classes_)
	return out
}

// NIter returns the number of iterations performed.
func (m *MLPClassifier) NIter() int { return m.nIter_ }

// Loss returns the final training log-loss.
func (m *MLPClassifier) Loss() float64 { return m.loss_ }

// GetParams returns the model hyperparameters.
func (m *MLPClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"hidden_units":  m.hiddenUnits,
		"learning_rate": m.learningRate,
		"max_iter":      m.maxIter,
		"tol":           m.tol,
		"random_state":  m.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (m *MLPClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "hidden_units":
			v, err := model.ParamInt("hidden_units", value)
			if err != nil {
				return err
			}
			m.hiddenUnits = v
		case "learning_rate":
			v, err := model.ParamFloat("learning_rate", value)
			if err != nil {
				return err
			}
			m.learningRate = v
		case "max_iter":
			v, err := model.ParamInt("max_iter", value)
			if err != nil {
				return err
			}
			m.maxIter = v
		case "tol":
			v, err := model.ParamFloat("tol", value)
			if err != nil {
				return err
			}
			m.tol = v
		case "random_state":
			v, err := model.ParamInt("random_state", value)
			if err != nil {
				return err
			}
			m.randomState = int64(v)
			m.seedRand()
		default:
			return errors.NewValueError("MLPClassifier.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// logLoss returns log(p) for the true class, clamped away from log(0).
func logLoss(y, p float64) float64 {
	const eps = 1e-12
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	if y == 1 {
		return math.Log(p)
	}
	return math.Log(1 - p)
}
