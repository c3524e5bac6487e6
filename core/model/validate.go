package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/pkg/errors"
)

// ValidateFitInputs checks the shared Fit preconditions: non-empty X, row
// agreement between X and y, and a single label column.
func ValidateFitInputs(op string, X, y mat.Matrix) error {
	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, op)
	}
	if nSamples != yRows {
		return errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError(op, 1, yCols, 1)
	}
	return nil
}

// CheckBinaryLabels validates that every label in y is 0 or 1. A single-class
// vector passes; use BinaryClasses when both classes are required.
func CheckBinaryLabels(op string, y mat.Matrix) error {
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// BinaryClasses validates that y holds exactly the labels {0, 1} and returns
// the sorted class slice.
func BinaryClasses(op string, y mat.Matrix) ([]int, error) {
	if err := CheckBinaryLabels(op, y); err != nil {
		return nil, err
	}
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}
	if len(seen) != 2 {
		return nil, errors.NewValueError(op, "training data must contain both classes")
	}
	return []int{0, 1}, nil
}
