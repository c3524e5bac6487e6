// Package preprocessing converts filtered datasets into numeric feature
// matrices: one-hot encoding for categorical predictors, pass-through for
// continuous ones, binarization for the outcome, and standard scaling for
// models that need it.
package preprocessing

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/dataset"
	"github.com/clinbench/clinbench/pkg/errors"
)

// OneHotEncoder expands each categorical predictor into one indicator column
// per observed level and passes continuous predictors through unchanged. The
// level order is fixed (lexicographic) and recorded at Fit time, so encoding
// is reproducible across partitions and reruns.
//
// Encoding never introduces missing values: a missing cell or a level not
// seen during Fit is a DataIntegrityError, never a silent row drop.
type OneHotEncoder struct {
	state *model.StateManager

	columns      []string
	kinds        []dataset.ColumnKind
	levels       map[string][]string
	featureNames []string
}

// NewOneHotEncoder creates an unfitted OneHotEncoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{
		state: model.NewStateManager(),
	}
}

// Fit records the predictor schema and the sorted distinct levels of every
// categorical column. The outcome column is excluded from the features.
func (e *OneHotEncoder) Fit(ds *dataset.Dataset) error {
	e.columns = e.columns[:0]
	e.kinds = e.kinds[:0]
	e.levels = make(map[string][]string)
	e.featureNames = e.featureNames[:0]

	for j, name := range ds.Columns {
		if name == ds.Outcome {
			continue
		}
		kind := ds.Kinds[j]
		e.columns = append(e.columns, name)
		e.kinds = append(e.kinds, kind)

		if kind == dataset.KindContinuous {
			e.featureNames = append(e.featureNames, name)
			continue
		}
		levels, err := ds.Levels(name)
		if err != nil {
			return err
		}
		if len(levels) == 0 {
			return errors.NewDataIntegrityError("encode", name, -1, "categorical column has no observed levels")
		}
		e.levels[name] = levels
		for _, lv := range levels {
			e.featureNames = append(e.featureNames, name+"="+lv)
		}
	}

	if len(e.columns) == 0 {
		return errors.NewConfigurationError("columns", "dataset has no predictor columns", nil)
	}

	e.state.SetDimensions(len(e.featureNames), ds.NumRows())
	e.state.SetFitted()
	return nil
}

// Transform encodes a dataset into an (n_rows x n_features) matrix using the
// fitted schema. Each categorical row activates exactly one indicator column
// per variable.
func (e *OneHotEncoder) Transform(ds *dataset.Dataset) (*mat.Dense, error) {
	if err := e.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}

	// Resolve fitted columns against the incoming dataset up front.
	colIdx := make([]int, len(e.columns))
	for k, name := range e.columns {
		j, ok := ds.ColumnIndex(name)
		if !ok {
			return nil, errors.NewDataIntegrityError("encode", name, -1, "fitted column absent from dataset")
		}
		colIdx[k] = j
	}

	levelIdx := make(map[string]map[string]int, len(e.levels))
	for name, levels := range e.levels {
		idx := make(map[string]int, len(levels))
		for i, lv := range levels {
			idx[lv] = i
		}
		levelIdx[name] = idx
	}

	n := ds.NumRows()
	X := mat.NewDense(n, len(e.featureNames), nil)

	for i := 0; i < n; i++ {
		offset := 0
		for k, name := range e.columns {
			cell := ds.Rows[i][colIdx[k]]
			if ds.IsMissing(cell) {
				return nil, errors.NewDataIntegrityError("encode", name, i, "missing value reached the encoder")
			}
			if e.kinds[k] == dataset.KindContinuous {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, errors.NewDataIntegrityError("encode", name, i,
						fmt.Sprintf("cannot parse %q as float", cell))
				}
				X.Set(i, offset, v)
				offset++
				continue
			}
			levels := e.levels[name]
			pos, ok := levelIdx[name][cell]
			if !ok {
				return nil, errors.NewDataIntegrityError("encode", name, i,
					fmt.Sprintf("level %q not seen during fit", cell))
			}
			X.Set(i, offset+pos, 1)
			offset += len(levels)
		}
	}

	return X, nil
}

// FitTransform fits the encoder and transforms the same dataset.
func (e *OneHotEncoder) FitTransform(ds *dataset.Dataset) (*mat.Dense, error) {
	if err := e.Fit(ds); err != nil {
		return nil, err
	}
	return e.Transform(ds)
}

// FeatureNames returns the output column names in encoding order: continuous
// columns keep their name, indicator columns are "column=level".
func (e *OneHotEncoder) FeatureNames() []string {
	out := make([]string, len(e.featureNames))
	copy(out, e.featureNames)
	return out
}

// LabelBinarizer maps a binary string outcome onto {0, 1}. Classes are
// sorted; the second sorted class is the positive one.
type LabelBinarizer struct {
	state   *model.StateManager
	classes []string
}

// NewLabelBinarizer creates an unfitted LabelBinarizer.
func NewLabelBinarizer() *LabelBinarizer {
	return &LabelBinarizer{
		state: model.NewStateManager(),
	}
}

// Fit records the two outcome levels. Any other number of distinct values is
// a ValueError.
func (lb *LabelBinarizer) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewValueError("LabelBinarizer.Fit", "empty label vector")
	}
	set := make(map[string]struct{})
	for _, v := range values {
		set[v] = struct{}{}
	}
	if len(set) != 2 {
		return errors.NewValueError("LabelBinarizer.Fit",
			fmt.Sprintf("outcome must have exactly two levels, got %d", len(set)))
	}
	lb.classes = make([]string, 0, 2)
	for v := range set {
		lb.classes = append(lb.classes, v)
	}
	sort.Strings(lb.classes)
	lb.state.SetFitted()
	return nil
}

// Transform maps labels to an (n x 1) matrix of 0/1 values.
func (lb *LabelBinarizer) Transform(values []string) (*mat.Dense, error) {
	if err := lb.state.RequireFitted("LabelBinarizer", "Transform"); err != nil {
		return nil, err
	}
	y := mat.NewDense(len(values), 1, nil)
	for i, v := range values {
		switch v {
		case lb.classes[0]:
			y.Set(i, 0, 0)
		case lb.classes[1]:
			y.Set(i, 0, 1)
		default:
			return nil, errors.NewDataIntegrityError("encode", "", i,
				fmt.Sprintf("outcome level %q not seen during fit", v))
		}
	}
	return y, nil
}

// FitTransform fits the binarizer and transforms the same labels.
func (lb *LabelBinarizer) FitTransform(values []string) (*mat.Dense, error) {
	if err := lb.Fit(values); err != nil {
		return nil, err
	}
	return lb.Transform(values)
}

// Classes returns the sorted outcome levels; index 1 is the positive class.
func (lb *LabelBinarizer) Classes() []string {
	out := make([]string, len(lb.classes))
	copy(out, lb.classes)
	return out
}
