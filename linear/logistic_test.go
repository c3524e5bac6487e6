package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

// separableData returns a linearly separable binary problem.
func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.1,
		0.2, 0.0,
		0.1, 0.3,
		0.3, 0.2,
		2.0, 2.1,
		2.2, 1.9,
		1.9, 2.3,
		2.1, 2.0,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_FitPredict(t *testing.T) {
	cerrors.SetWarningHandler(func(error) {})
	defer cerrors.SetWarningHandler(nil)

	X, y := separableData()
	lr := NewLogisticRegression(
		WithLRMaxIter(500),
		WithLRRandomState(42),
	)
	require.NoError(t, lr.Fit(X, y))

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d misclassified", i)
	}
	assert.Equal(t, []int{0, 1}, lr.Classes())
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	cerrors.SetWarningHandler(func(error) {})
	defer cerrors.SetWarningHandler(nil)

	X, y := separableData()
	lr := NewLogisticRegression(WithLRMaxIter(500), WithLRRandomState(1))
	require.NoError(t, lr.Fit(X, y))

	probas, err := lr.PredictProba(X)
	require.NoError(t, err)

	rows, cols := probas.Dims()
	require.Equal(t, 8, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d probabilities do not sum to 1", i)
	}
	// Positive samples score higher than negative ones.
	assert.Greater(t, probas.At(4, 1), probas.At(0, 1))
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	cerrors.SetWarningHandler(func(error) {})
	defer cerrors.SetWarningHandler(nil)

	X, y := separableData()
	a := NewLogisticRegression(WithLRMaxIter(50), WithLRRandomState(7))
	b := NewLogisticRegression(WithLRMaxIter(50), WithLRRandomState(7))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.Equal(t, a.Coef(), b.Coef())
	assert.Equal(t, a.Intercept(), b.Intercept())
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	require.Error(t, err)
	var nfe *cerrors.NotFittedError
	assert.True(t, cerrors.As(err, &nfe))
}

func TestLogisticRegression_SingleClassFails(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})
	err := NewLogisticRegression().Fit(X, y)
	require.Error(t, err)
}

func TestLogisticRegression_SetParams(t *testing.T) {
	lr := NewLogisticRegression()
	err := lr.SetParams(map[string]interface{}{
		"C":        0.5,
		"max_iter": 200,
		"tol":      1e-3,
	})
	require.NoError(t, err)

	params := lr.GetParams()
	assert.Equal(t, 0.5, params["C"])
	assert.Equal(t, 200, params["max_iter"])
	assert.Equal(t, 1e-3, params["tol"])

	err = lr.SetParams(map[string]interface{}{"bogus": 1})
	require.Error(t, err)
}
