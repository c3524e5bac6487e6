package bench

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// Report writes the per-model benchmark summary as text. Every model gets the
// same block: AUC, accuracy, confusion matrix and the classification report.
// No winner is declared; ranking models is the reader's call.
func (res *Results) Report(w io.Writer) error {
	fmt.Fprintf(w, "run %s\n", res.RunID)
	fmt.Fprintf(w, "columns dropped: %d", len(res.Filter.ColumnsDropped))
	if len(res.Filter.ColumnsDropped) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(res.Filter.ColumnsDropped, ", "))
	}
	fmt.Fprintf(w, ", rows dropped: %d, rows kept: %d\n", res.Filter.RowsDropped, res.Filter.RowsKept)
	fmt.Fprintf(w, "features: %d, train: %d, test: %d\n",
		len(res.FeatureNames), res.TrainSize, res.TestSize)
	fmt.Fprintf(w, "outcome classes: %s=0, %s=1\n", res.ClassNames[0], res.ClassNames[1])

	for _, m := range res.Models {
		fmt.Fprintf(w, "\n=== %s ===\n", m.Name)
		if m.Failed() {
			fmt.Fprintf(w, "failed: %v\n", m.Err)
			continue
		}

		if m.BestParams != nil {
			fmt.Fprintf(w, "best params: %s (cv auc %.3f)\n", formatParams(m.BestParams), m.CVScore)
		}
		fmt.Fprintf(w, "auc: %.3f\n", m.AUC)
		fmt.Fprintf(w, "accuracy: %.3f\n", m.Accuracy)

		if err := res.writeConfusion(w, m); err != nil {
			return err
		}
		fmt.Fprintln(w)
		if _, err := io.WriteString(w, m.Report.Format(res.ClassNames)); err != nil {
			return err
		}
	}
	return nil
}

// writeConfusion prints the confusion matrix with actual classes as rows.
func (res *Results) writeConfusion(w io.Writer, m *ModelResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "actual \\ predicted")
	for _, c := range m.Confusion.Classes {
		fmt.Fprintf(tw, "\t%s", res.className(c))
	}
	fmt.Fprintln(tw)
	for i, c := range m.Confusion.Classes {
		fmt.Fprint(tw, res.className(c))
		for j := range m.Confusion.Classes {
			fmt.Fprintf(tw, "\t%d", m.Confusion.Counts[i][j])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (res *Results) className(label int) string {
	if label >= 0 && label < len(res.ClassNames) {
		return res.ClassNames[label]
	}
	return fmt.Sprintf("%d", label)
}

// formatParams renders hyperparameters in a stable key order.
func formatParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, ", ")
}
