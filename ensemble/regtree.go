package ensemble

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// regTree is the stage learner for gradient boosting: a regression tree grown
// on the loss gradient with squared-error splits. It is internal to the
// package; boosting controls its lifecycle entirely.
type regTree struct {
	feature   int
	threshold float64
	left      *regTree
	right     *regTree
	leaf      bool
	value     float64
}

// growRegTree builds a tree over the given sample indices. residual and
// hessian are the first and second derivatives of the logistic loss at the
// current scores; leaf values take one Newton step.
func growRegTree(X mat.Matrix, residual, hessian []float64, indices []int, maxDepth, minSamplesLeaf int) *regTree {
	return growRegNode(X, residual, hessian, indices, 0, maxDepth, minSamplesLeaf)
}

func growRegNode(X mat.Matrix, residual, hessian []float64, indices []int, depth, maxDepth, minSamplesLeaf int) *regTree {
	if depth >= maxDepth || len(indices) < 2*minSamplesLeaf {
		return &regTree{leaf: true, value: newtonValue(residual, hessian, indices)}
	}

	feature, threshold, ok := bestRegSplit(X, residual, indices, minSamplesLeaf)
	if !ok {
		return &regTree{leaf: true, value: newtonValue(residual, hessian, indices)}
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &regTree{
		feature:   feature,
		threshold: threshold,
		left:      growRegNode(X, residual, hessian, leftIdx, depth+1, maxDepth, minSamplesLeaf),
		right:     growRegNode(X, residual, hessian, rightIdx, depth+1, maxDepth, minSamplesLeaf),
	}
}

// newtonValue computes sum(residual) / sum(hessian) over the leaf samples.
func newtonValue(residual, hessian []float64, indices []int) float64 {
	num, den := 0.0, 0.0
	for _, i := range indices {
		num += residual[i]
		den += hessian[i]
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

// bestRegSplit picks the threshold maximizing squared-error reduction of the
// residuals, scanning each feature in sorted order with running sums.
func bestRegSplit(X mat.Matrix, residual []float64, indices []int, minSamplesLeaf int) (int, float64, bool) {
	_, nFeatures := X.Dims()
	n := len(indices)

	total := 0.0
	for _, i := range indices {
		total += residual[i]
	}

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	values := make([]float64, n)
	order := make([]int, n)

	for f := 0; f < nFeatures; f++ {
		for k, i := range indices {
			values[k] = X.At(i, f)
			order[k] = k
		}
		sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			idx := indices[order[k]]
			leftSum += residual[idx]
			lo, hi := values[order[k]], values[order[k+1]]
			if lo == hi {
				continue
			}
			nLeft := k + 1
			nRight := n - nLeft
			if nLeft < minSamplesLeaf || nRight < minSamplesLeaf {
				continue
			}

			rightSum := total - leftSum
			// Variance reduction up to a constant: sum_L^2/n_L + sum_R^2/n_R.
			gain := leftSum*leftSum/float64(nLeft) + rightSum*rightSum/float64(nRight) - total*total/float64(n)
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	if bestFeature < 0 || math.IsNaN(bestThreshold) {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// predict walks the tree for one row of X.
func (t *regTree) predict(X mat.Matrix, i int) float64 {
	n := t
	for !n.leaf {
		if X.At(i, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}
