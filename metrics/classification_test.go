package metrics

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

func vec(values []float64) *mat.VecDense {
	if len(values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(values), values)
}

func TestROCAUC(t *testing.T) {
	// Silence degenerate-input warnings for the table run.
	cerrors.SetWarningHandler(func(error) {})
	defer cerrors.SetWarningHandler(nil)

	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{
			name:   "Perfect classifier",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "Worst classifier",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "Random classifier",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "Typical case",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.75,
		},
		{
			name:   "All positive labels",
			yTrue:  []float64{1, 1, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.5, // Undefined case, returns 0.5
		},
		{
			name:   "All negative labels",
			yTrue:  []float64{0, 0, 0, 0},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.5, // Undefined case, returns 0.5
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yScore:  []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yScore:  []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yScore:  []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(vec(tt.yTrue), vec(tt.yScore))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ROCAUC = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCAUC_RaisesUndefinedMetricWarning(t *testing.T) {
	var captured []error
	cerrors.SetWarningHandler(func(w error) { captured = append(captured, w) })
	defer cerrors.SetWarningHandler(nil)

	_, err := ROCAUC(vec([]float64{1, 1, 1}), vec([]float64{0.2, 0.5, 0.9}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(captured))
	}
	var umw *cerrors.UndefinedMetricWarning
	if !cerrors.As(captured[0], &umw) {
		t.Fatalf("expected UndefinedMetricWarning, got %T", captured[0])
	}
}

func TestAccuracy(t *testing.T) {
	got, err := Accuracy(
		vec([]float64{0, 1, 1, 0, 1}),
		vec([]float64{0, 1, 0, 0, 1}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.8) > 1e-12 {
		t.Errorf("Accuracy = %v, want 0.8", got)
	}
}

func TestNewConfusionMatrix(t *testing.T) {
	yTrue := vec([]float64{0, 0, 1, 1, 1, 0})
	yPred := vec([]float64{0, 1, 1, 1, 0, 0})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cm.Classes) != 2 || cm.Classes[0] != 0 || cm.Classes[1] != 1 {
		t.Fatalf("Classes = %v, want [0 1]", cm.Classes)
	}
	// Rows = actual, columns = predicted.
	want := [][]int{{2, 1}, {1, 2}}
	for i := range want {
		for j := range want[i] {
			if cm.Counts[i][j] != want[i][j] {
				t.Errorf("Counts[%d][%d] = %d, want %d", i, j, cm.Counts[i][j], want[i][j])
			}
		}
	}
}

func TestNewConfusionMatrix_DegeneratePrediction(t *testing.T) {
	// A model predicting a single class still yields the full 2x2 matrix.
	yTrue := vec([]float64{0, 1, 0, 1})
	yPred := vec([]float64{1, 1, 1, 1})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cm.Classes) != 2 {
		t.Fatalf("Classes = %v, want both classes", cm.Classes)
	}
	if cm.Counts[0][1] != 2 || cm.Counts[1][1] != 2 {
		t.Errorf("Counts = %v, want all mass in the predicted-1 column", cm.Counts)
	}
}

func TestClassificationReport(t *testing.T) {
	yTrue := vec([]float64{0, 0, 0, 1, 1, 1})
	yPred := vec([]float64{0, 0, 1, 1, 1, 0})

	report, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, class := range report.Classes {
		m := report.PerClass[i]
		if m.Support != 3 {
			t.Errorf("class %d support = %d, want 3", class, m.Support)
		}
		if math.Abs(m.Precision-2.0/3.0) > 1e-12 {
			t.Errorf("class %d precision = %v, want 2/3", class, m.Precision)
		}
		if math.Abs(m.Recall-2.0/3.0) > 1e-12 {
			t.Errorf("class %d recall = %v, want 2/3", class, m.Recall)
		}
	}
	if math.Abs(report.Accuracy-2.0/3.0) > 1e-12 {
		t.Errorf("accuracy = %v, want 2/3", report.Accuracy)
	}
	if math.Abs(report.MacroAvg.F1-report.WeightedAvg.F1) > 1e-12 {
		t.Error("balanced classes should give equal macro and weighted F1")
	}
}

func TestClassificationReport_UndefinedPrecisionWarns(t *testing.T) {
	var captured []error
	cerrors.SetWarningHandler(func(w error) { captured = append(captured, w) })
	defer cerrors.SetWarningHandler(nil)

	// Class 0 is never predicted.
	_, err := ClassificationReport(
		vec([]float64{0, 1, 0, 1}),
		vec([]float64{1, 1, 1, 1}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured) == 0 {
		t.Fatal("expected an UndefinedMetricWarning for the unpredicted class")
	}
}

func TestReportFormat(t *testing.T) {
	yTrue := vec([]float64{0, 0, 1, 1})
	yPred := vec([]float64{0, 1, 1, 1})

	report, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := report.Format([]string{"case", "control"})
	for _, frag := range []string{"case", "control", "precision", "macro avg", "weighted avg"} {
		if !strings.Contains(out, frag) {
			t.Errorf("formatted report missing %q:\n%s", frag, out)
		}
	}
}
