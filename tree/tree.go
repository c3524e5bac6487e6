// Package tree implements a CART decision tree classifier. It is the base
// learner for the ensemble models and is usable on its own.
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/pkg/errors"
)

// Impurity criteria supported by the tree.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// node is one vertex of the fitted tree. Leaves carry the positive-class
// fraction of their training samples; internal nodes carry a threshold split.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	leaf      bool
	proba     float64 // P(class == 1) at a leaf
	samples   int
}

// DecisionTreeClassifier is a binary CART classifier with axis-aligned
// threshold splits. Splits are chosen greedily by impurity decrease.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	maxDepth        int // 0 means unbounded
	minSamplesSplit int
	minSamplesLeaf  int
	criterion       string
	maxFeatures     int // 0 means all features
	randomState     int64

	// Learned parameters
	root     *node
	classes_ []int
	nNodes_  int

	rand *rand.Rand
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a DecisionTreeClassifier.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		criterion:       CriterionGini,
		maxFeatures:     0,
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	dt.seedRand()
	return dt
}

func (dt *DecisionTreeClassifier) seedRand() {
	if dt.randomState >= 0 {
		dt.rand = rand.New(rand.NewSource(dt.randomState))
	} else {
		dt.rand = rand.New(rand.NewSource(rand.Int63()))
	}
}

// WithTreeMaxDepth caps the tree depth. Zero leaves it unbounded.
func WithTreeMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) { dt.maxDepth = depth }
}

// WithTreeMinSamplesSplit sets the minimum node size eligible for splitting.
func WithTreeMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesSplit = n }
}

// WithTreeMinSamplesLeaf sets the minimum number of samples per leaf.
func WithTreeMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesLeaf = n }
}

// WithTreeCriterion selects the impurity criterion, "gini" or "entropy".
func WithTreeCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) { dt.criterion = criterion }
}

// WithTreeMaxFeatures limits the number of features examined per split. Zero
// examines all of them. Random forests use this for feature subsampling.
func WithTreeMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) { dt.maxFeatures = n }
}

// WithTreeRandomState seeds the feature subsampling.
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
		dt.seedRand()
	}
}

// Fit grows the tree. y must be an (n x 1) matrix of 0/1 labels.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if err := model.ValidateFitInputs("DecisionTreeClassifier.Fit", X, y); err != nil {
		return err
	}
	if dt.criterion != CriterionGini && dt.criterion != CriterionEntropy {
		return errors.NewValueError("DecisionTreeClassifier.Fit",
			fmt.Sprintf("unknown criterion %q", dt.criterion))
	}

	// A single-class sample is allowed: the tree degenerates to one leaf.
	// Bootstrap resamples drawn by the forest may lack a class entirely.
	if err := model.CheckBinaryLabels("DecisionTreeClassifier.Fit", y); err != nil {
		return err
	}
	dt.classes_ = []int{0, 1}

	nSamples, nFeatures := X.Dims()
	if err := checkFinite("DecisionTreeClassifier.Fit", X); err != nil {
		return err
	}

	indices := make([]int, nSamples)
	labels := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		indices[i] = i
		labels[i] = y.At(i, 0)
	}

	dt.nNodes_ = 0
	dt.root = dt.grow(X, labels, indices, 0)
	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// checkFinite rejects NaN or infinite feature values. Missing data must be
// resolved before modelling, so a non-finite cell here is a pipeline defect.
func checkFinite(op string, X mat.Matrix) error {
	rows, cols := X.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewDataIntegrityError(op,
					fmt.Sprintf("feature[%d]", j), i, "non-finite value in feature matrix")
			}
		}
	}
	return nil
}

// grow recursively builds the tree over the given sample indices.
func (dt *DecisionTreeClassifier) grow(X mat.Matrix, labels []float64, indices []int, depth int) *node {
	dt.nNodes_++
	n := len(indices)
	positives := 0
	for _, i := range indices {
		if labels[i] == 1 {
			positives++
		}
	}
	proba := float64(positives) / float64(n)

	pure := positives == 0 || positives == n
	depthStop := dt.maxDepth > 0 && depth >= dt.maxDepth
	if pure || depthStop || n < dt.minSamplesSplit {
		return &node{leaf: true, proba: proba, samples: n}
	}

	feature, threshold, ok := dt.bestSplit(X, labels, indices)
	if !ok {
		return &node{leaf: true, proba: proba, samples: n}
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		samples:   n,
		left:      dt.grow(X, labels, leftIdx, depth+1),
		right:     dt.grow(X, labels, rightIdx, depth+1),
	}
}

// bestSplit scans candidate thresholds and returns the split with the lowest
// weighted child impurity. Candidate features are subsampled when maxFeatures
// is set.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, labels []float64, indices []int) (int, float64, bool) {
	_, nFeatures := X.Dims()
	features := dt.candidateFeatures(nFeatures)

	bestImpurity := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	n := len(indices)
	values := make([]float64, n)
	order := make([]int, n)

	for _, f := range features {
		for k, i := range indices {
			values[k] = X.At(i, f)
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

		// Walk sample boundaries in sorted order, maintaining left-side
		// positive counts incrementally.
		totalPos := 0
		for _, i := range indices {
			if labels[i] == 1 {
				totalPos++
			}
		}
		leftPos := 0
		for k := 0; k < n-1; k++ {
			idx := indices[order[k]]
			if labels[idx] == 1 {
				leftPos++
			}
			lo, hi := values[order[k]], values[order[k+1]]
			if lo == hi {
				continue
			}
			nLeft := k + 1
			nRight := n - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			impurity := (float64(nLeft)*dt.impurity(leftPos, nLeft) +
				float64(nRight)*dt.impurity(totalPos-leftPos, nRight)) / float64(n)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// candidateFeatures returns the feature indices examined at a split.
func (dt *DecisionTreeClassifier) candidateFeatures(nFeatures int) []int {
	all := make([]int, nFeatures)
	for i := range all {
		all[i] = i
	}
	if dt.maxFeatures <= 0 || dt.maxFeatures >= nFeatures {
		return all
	}
	dt.rand.Shuffle(nFeatures, func(i, j int) { all[i], all[j] = all[j], all[i] })
	subset := all[:dt.maxFeatures]
	sort.Ints(subset)
	return subset
}

// impurity computes the configured criterion for a node with pos positives
// out of n samples.
func (dt *DecisionTreeClassifier) impurity(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	switch dt.criterion {
	case CriterionEntropy:
		h := 0.0
		if p > 0 {
			h -= p * math.Log2(p)
		}
		if p < 1 {
			h -= (1 - p) * math.Log2(1-p)
		}
		return h
	default: // gini
		return 2 * p * (1 - p)
	}
}

// predictRow walks the tree for one sample and returns P(class == 1).
func (dt *DecisionTreeClassifier) predictRow(X mat.Matrix, i int) float64 {
	n := dt.root
	for !n.leaf {
		if X.At(i, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.proba
}

// Predict returns 0/1 labels using the 0.5 probability threshold.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Predict"); err != nil {
		return nil, err
	}
	if err := dt.checkWidth("DecisionTreeClassifier.Predict", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if dt.predictRow(X, i) >= 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns an (n x 2) matrix of leaf class fractions.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := dt.checkWidth("DecisionTreeClassifier.PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p := dt.predictRow(X, i)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

func (dt *DecisionTreeClassifier) checkWidth(op string, X mat.Matrix) error {
	_, c := X.Dims()
	nFeatures, _ := dt.state.GetDimensions()
	if c != nFeatures {
		return errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return nil
}

// Classes returns the sorted class labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []int {
	out := make([]int, len(dt.classes_))
	copy(out, dt.classes_)
	return out
}

// NNodes returns the number of nodes in the fitted tree.
func (dt *DecisionTreeClassifier) NNodes() int { return dt.nNodes_ }

// GetParams returns the model hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"criterion":         dt.criterion,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "max_depth":
			v, err := model.ParamInt("max_depth", value)
			if err != nil {
				return err
			}
			dt.maxDepth = v
		case "min_samples_split":
			v, err := model.ParamInt("min_samples_split", value)
			if err != nil {
				return err
			}
			dt.minSamplesSplit = v
		case "min_samples_leaf":
			v, err := model.ParamInt("min_samples_leaf", value)
			if err != nil {
				return err
			}
			dt.minSamplesLeaf = v
		case "criterion":
			v, ok := value.(string)
			if !ok {
				return errors.NewValueError("DecisionTreeClassifier.SetParams", "criterion must be a string")
			}
			dt.criterion = v
		case "max_features":
			v, err := model.ParamInt("max_features", value)
			if err != nil {
				return err
			}
			dt.maxFeatures = v
		case "random_state":
			v, err := model.ParamInt("random_state", value)
			if err != nil {
				return err
			}
			dt.randomState = int64(v)
			dt.seedRand()
		default:
			return errors.NewValueError("DecisionTreeClassifier.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}
