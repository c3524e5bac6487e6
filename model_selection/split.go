// Package modelselection implements the data-splitting and hyperparameter
// search machinery: the single train/test split shared by every model, k-fold
// cross-validation, and grid search scored by ROC-AUC.
package modelselection

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/pkg/errors"
)

// Split is the immutable result of one train/test partition. Every model in a
// benchmark run trains and evaluates on the same Split.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit shuffles the row indices with the given seed and partitions
// them once. The shuffle is plain, not stratified: with a rare outcome and a
// small dataset a partition can end up single-class, which downstream
// consumers must surface rather than hide.
func TrainTestSplit(X, y mat.Matrix, testFraction float64, seed int64) (*Split, error) {
	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if nSamples != yRows {
		return nil, errors.NewDimensionError("TrainTestSplit", nSamples, yRows, 0)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.NewConfigurationError("test_fraction",
			"must be strictly between 0 and 1", testFraction)
	}

	nTest := int(math.Round(testFraction * float64(nSamples)))
	if nTest < 1 || nSamples-nTest < 1 {
		return nil, errors.NewConfigurationError("test_fraction",
			"partition would leave an empty train or test set", testFraction)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(nSamples, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

	testIdx := append([]int(nil), indices[:nTest]...)
	trainIdx := append([]int(nil), indices[nTest:]...)

	return &Split{
		XTrain:       takeRows(X, trainIdx),
		XTest:        takeRows(X, testIdx),
		YTrain:       takeRows(y, trainIdx),
		YTest:        takeRows(y, testIdx),
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}, nil
}

// takeRows copies the given rows of m into a new dense matrix.
func takeRows(m mat.Matrix, indices []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, src := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(src, j))
		}
	}
	return out
}
