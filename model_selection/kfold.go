package modelselection

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/pkg/errors"
)

// Fold is one train/validation index pair of a k-fold split.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold partitions row indices into NSplits contiguous folds, optionally
// after a seeded shuffle.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewKFold creates a KFold splitter.
func NewKFold(nSplits int, shuffle bool, seed int64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split generates the train/validation indices for each fold. Every row
// appears in exactly one validation fold.
func (kf *KFold) Split(X mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if kf.NSplits < 2 {
		return nil, errors.NewConfigurationError("cv_folds", "must be at least 2", kf.NSplits)
	}
	if kf.NSplits > nSamples {
		return nil, errors.NewConfigurationError("cv_folds",
			"cannot exceed the number of samples", kf.NSplits)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		rng := rand.New(rand.NewSource(kf.Seed))
		rng.Shuffle(nSamples, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}

	// The first (nSamples % NSplits) folds take one extra sample.
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	folds := make([]Fold, kf.NSplits)
	cursor := 0
	for f := 0; f < kf.NSplits; f++ {
		testSize := foldSize
		if f < remainder {
			testSize++
		}

		testIdx := append([]int(nil), indices[cursor:cursor+testSize]...)
		trainIdx := make([]int, 0, nSamples-testSize)
		trainIdx = append(trainIdx, indices[:cursor]...)
		trainIdx = append(trainIdx, indices[cursor+testSize:]...)

		folds[f] = Fold{TrainIndices: trainIdx, TestIndices: testIdx}
		cursor += testSize
	}

	return folds, nil
}
