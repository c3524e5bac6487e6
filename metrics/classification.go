// Package metrics implements the classification metrics the harness reports:
// ROC-AUC, accuracy, confusion matrix and the per-class precision/recall/F1
// table.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/pkg/errors"
)

// checkVectors validates a pair of equal-length non-empty vectors.
func checkVectors(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 || yPred.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, op)
	}
	if yTrue.Len() != yPred.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return nil
}

// ROCAUC computes the area under the ROC curve from binary labels and
// positive-class scores. Ties in the scores are handled by midranks, so the
// result equals the Mann-Whitney U statistic normalized to [0, 1].
//
// When only one class is present the metric is undefined; 0.5 is returned and
// an UndefinedMetricWarning is raised.
func ROCAUC(yTrue, yScore *mat.VecDense) (float64, error) {
	if err := checkVectors("ROCAUC", yTrue, yScore); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return 0, errors.NewValueError("ROCAUC",
				fmt.Sprintf("labels must be 0 or 1, got %v", yTrue.AtVec(i)))
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	// Midranks of the scores.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) < yScore.AtVec(order[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(order[j+1]) == yScore.AtVec(order[i]) {
			j++
		}
		// Average rank for the tie group [i, j].
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	sumRanksPos := 0.0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			sumRanksPos += ranks[i]
		}
	}

	auc := (sumRanksPos - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// Accuracy computes the fraction of exact label matches.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(yTrue.Len()), nil
}

// ConfusionMatrix counts predictions per (actual, predicted) class pair.
// Rows index the actual class, columns the predicted class, both in sorted
// class order. Classes are the sorted union of labels observed in either
// vector, so a model that never predicts one class still yields the full
// matrix.
type ConfusionMatrix struct {
	Classes []int
	Counts  [][]int
}

// NewConfusionMatrix builds the matrix from integer-valued label vectors.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	if err := checkVectors("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, err
	}

	classSet := make(map[int]struct{})
	toInt := func(v float64, op string) (int, error) {
		if v != math.Trunc(v) || math.IsNaN(v) {
			return 0, errors.NewValueError(op, fmt.Sprintf("labels must be integer-valued, got %v", v))
		}
		return int(v), nil
	}
	n := yTrue.Len()
	actual := make([]int, n)
	predicted := make([]int, n)
	for i := 0; i < n; i++ {
		a, err := toInt(yTrue.AtVec(i), "ConfusionMatrix")
		if err != nil {
			return nil, err
		}
		p, err := toInt(yPred.AtVec(i), "ConfusionMatrix")
		if err != nil {
			return nil, err
		}
		actual[i], predicted[i] = a, p
		classSet[a] = struct{}{}
		classSet[p] = struct{}{}
	}

	classes := make([]int, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	for i := 0; i < n; i++ {
		counts[index[actual[i]]][index[predicted[i]]]++
	}

	return &ConfusionMatrix{Classes: classes, Counts: counts}, nil
}

// ClassMetrics holds precision, recall, F1 and support for one class or one
// averaging scheme.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is the per-class metric table plus macro and support-weighted
// averages, mirroring the usual classification report layout.
type Report struct {
	Classes     []int
	PerClass    []ClassMetrics
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Accuracy    float64
}

// ClassificationReport computes the per-class table from integer-valued
// labels. Precision for a class with no predicted samples is set to 0 and an
// UndefinedMetricWarning is raised, matching the convention of reporting the
// degenerate case plainly instead of failing.
func ClassificationReport(yTrue, yPred *mat.VecDense) (*Report, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	k := len(cm.Classes)
	report := &Report{
		Classes:  cm.Classes,
		PerClass: make([]ClassMetrics, k),
		Accuracy: acc,
	}

	total := 0
	for i := 0; i < k; i++ {
		tp := cm.Counts[i][i]
		support := 0
		predicted := 0
		for j := 0; j < k; j++ {
			support += cm.Counts[i][j]
			predicted += cm.Counts[j][i]
		}
		total += support

		m := ClassMetrics{Support: support}
		if predicted > 0 {
			m.Precision = float64(tp) / float64(predicted)
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no predicted samples for class %d", cm.Classes[i]), 0))
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.PerClass[i] = m
	}

	for _, m := range report.PerClass {
		report.MacroAvg.Precision += m.Precision / float64(k)
		report.MacroAvg.Recall += m.Recall / float64(k)
		report.MacroAvg.F1 += m.F1 / float64(k)

		w := float64(m.Support) / float64(total)
		report.WeightedAvg.Precision += w * m.Precision
		report.WeightedAvg.Recall += w * m.Recall
		report.WeightedAvg.F1 += w * m.F1
	}
	report.MacroAvg.Support = total
	report.WeightedAvg.Support = total

	return report, nil
}

// Format renders the report as a text table. names maps class labels to
// display names; when nil the integer labels are printed.
func (r *Report) Format(names []string) string {
	label := func(i int) string {
		if c := r.Classes[i]; c >= 0 && c < len(names) {
			return names[c]
		}
		return fmt.Sprintf("%d", r.Classes[i])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%14s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	b.WriteString("\n")
	for i, m := range r.PerClass {
		fmt.Fprintf(&b, "%14s %9.3f %9.3f %9.3f %9d\n", label(i), m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %9s %9s %9.3f %9d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %9.3f %9.3f %9.3f %9d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %9.3f %9.3f %9.3f %9d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}
