package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

// clusteredData returns two well-separated clusters of 10 samples each.
func clusteredData() (*mat.Dense, *mat.Dense) {
	n := 20
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n/2; i++ {
		X.Set(i, 0, 0.1*float64(i))
		X.Set(i, 1, 0.2*float64(i))
	}
	for i := n / 2; i < n; i++ {
		X.Set(i, 0, 5.0+0.1*float64(i))
		X.Set(i, 1, 5.0+0.2*float64(i))
		y.Set(i, 0, 1)
	}
	return X, y
}

func TestRandomForest_FitPredict(t *testing.T) {
	X, y := clusteredData()
	rf := NewRandomForestClassifier(
		WithForestNEstimators(25),
		WithForestMaxDepth(4),
		WithForestRandomState(42),
	)
	require.NoError(t, rf.Fit(X, y))
	assert.Equal(t, 25, rf.NTrees())

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	correct := 0
	rows, _ := pred.Dims()
	for i := 0; i < rows; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 18, "forest should fit well-separated clusters")
}

func TestRandomForest_PredictProbaShape(t *testing.T) {
	X, y := clusteredData()
	rf := NewRandomForestClassifier(WithForestNEstimators(10), WithForestRandomState(1))
	require.NoError(t, rf.Fit(X, y))

	probas, err := rf.PredictProba(X)
	require.NoError(t, err)
	rows, cols := probas.Dims()
	require.Equal(t, 20, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, probas.At(i, 0)+probas.At(i, 1), 1e-9)
	}
}

func TestRandomForest_Deterministic(t *testing.T) {
	X, y := clusteredData()
	a := NewRandomForestClassifier(WithForestNEstimators(15), WithForestRandomState(7))
	b := NewRandomForestClassifier(WithForestNEstimators(15), WithForestRandomState(7))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.PredictProba(X)
	require.NoError(t, err)
	pb, err := b.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(pa, pb), "same seed must reproduce identical probabilities")
}

func TestRandomForest_NotFitted(t *testing.T) {
	_, err := NewRandomForestClassifier().Predict(mat.NewDense(1, 2, []float64{0, 0}))
	require.Error(t, err)
	var nfe *cerrors.NotFittedError
	assert.True(t, cerrors.As(err, &nfe))
}

func TestRandomForest_SingleClassFails(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{0, 0, 0, 0})
	require.Error(t, NewRandomForestClassifier(WithForestNEstimators(3)).Fit(X, y))
}

func TestRandomForest_SetParams(t *testing.T) {
	rf := NewRandomForestClassifier()
	err := rf.SetParams(map[string]interface{}{
		"n_estimators": 50,
		"max_depth":    6,
		"random_state": 3,
	})
	require.NoError(t, err)

	params := rf.GetParams()
	assert.Equal(t, 50, params["n_estimators"])
	assert.Equal(t, 6, params["max_depth"])
	assert.Equal(t, int64(3), params["random_state"])

	require.Error(t, rf.SetParams(map[string]interface{}{"bogus": 1}))
}
