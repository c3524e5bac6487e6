package tree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

// thresholdData is separable by a single split on feature 0 at 0.5.
func thresholdData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0.1, 5.0,
		0.2, 3.0,
		0.3, 9.0,
		0.7, 1.0,
		0.8, 7.0,
		0.9, 2.0,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestDecisionTree_FitPredict(t *testing.T) {
	X, y := thresholdData()
	dt := NewDecisionTreeClassifier(WithTreeMaxDepth(3))
	require.NoError(t, dt.Fit(X, y))

	pred, err := dt.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}
	assert.Equal(t, []int{0, 1}, dt.Classes())
	// A single split suffices: root plus two leaves.
	assert.Equal(t, 3, dt.NNodes())
}

func TestDecisionTree_PredictProba(t *testing.T) {
	X, y := thresholdData()
	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.Fit(X, y))

	probas, err := dt.PredictProba(X)
	require.NoError(t, err)
	rows, cols := probas.Dims()
	require.Equal(t, 6, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, probas.At(i, 0)+probas.At(i, 1), 1e-12)
	}
	// Pure leaves on separable data.
	assert.Equal(t, 0.0, probas.At(0, 1))
	assert.Equal(t, 1.0, probas.At(5, 1))
}

func TestDecisionTree_EntropyCriterion(t *testing.T) {
	X, y := thresholdData()
	dt := NewDecisionTreeClassifier(WithTreeCriterion(CriterionEntropy))
	require.NoError(t, dt.Fit(X, y))

	pred, err := dt.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0))
	}
}

func TestDecisionTree_UnknownCriterion(t *testing.T) {
	X, y := thresholdData()
	err := NewDecisionTreeClassifier(WithTreeCriterion("mse")).Fit(X, y)
	require.Error(t, err)
}

func TestDecisionTree_MinSamplesLeaf(t *testing.T) {
	X, y := thresholdData()
	// Leaves must hold at least 3 samples, so only the 3/3 split is legal.
	dt := NewDecisionTreeClassifier(WithTreeMinSamplesLeaf(3))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 3, dt.NNodes())
}

func TestDecisionTree_MaxDepthOne(t *testing.T) {
	X, y := thresholdData()
	dt := NewDecisionTreeClassifier(WithTreeMaxDepth(1))
	require.NoError(t, dt.Fit(X, y))
	assert.LessOrEqual(t, dt.NNodes(), 3)
}

func TestDecisionTree_RejectsNaN(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0.1, math.NaN(), 0.8, 0.9})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
	err := NewDecisionTreeClassifier().Fit(X, y)
	require.Error(t, err)
	var die *cerrors.DataIntegrityError
	assert.True(t, cerrors.As(err, &die))
	assert.Equal(t, 1, die.Row)
}

func TestDecisionTree_NotFitted(t *testing.T) {
	_, err := NewDecisionTreeClassifier().Predict(mat.NewDense(1, 1, []float64{0}))
	require.Error(t, err)
	var nfe *cerrors.NotFittedError
	assert.True(t, cerrors.As(err, &nfe))
}

func TestDecisionTree_SetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	err := dt.SetParams(map[string]interface{}{
		"max_depth":        4,
		"min_samples_leaf": 2,
		"criterion":        CriterionEntropy,
	})
	require.NoError(t, err)

	params := dt.GetParams()
	assert.Equal(t, 4, params["max_depth"])
	assert.Equal(t, 2, params["min_samples_leaf"])
	assert.Equal(t, CriterionEntropy, params["criterion"])

	require.Error(t, dt.SetParams(map[string]interface{}{"bogus": true}))
}
