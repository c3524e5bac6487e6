package errors

import (
	"strings"
	"testing"
)

func TestWarningHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("LogisticRegression", 100, "")
	Warn(w)

	if len(captured) != 1 {
		t.Fatalf("expected 1 captured warning, got %d", len(captured))
	}
	if !strings.Contains(captured[0].Error(), "LogisticRegression") {
		t.Errorf("warning message missing algorithm name: %v", captured[0])
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("missing_threshold", "must be in [0, 1]", 1.5)

	var cfgErr *ConfigurationError
	if !As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError in chain, got %T", err)
	}
	if cfgErr.Field != "missing_threshold" {
		t.Errorf("Field = %q, want %q", cfgErr.Field, "missing_threshold")
	}
	if !strings.Contains(err.Error(), "1.5") {
		t.Errorf("error message should include the offending value: %v", err)
	}
}

func TestDataIntegrityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "with column and row",
			err:  NewDataIntegrityError("encode", "smoking_status", 12, "missing value after filtering"),
			want: []string{"encode", "smoking_status", "row 12"},
		},
		{
			name: "without row",
			err:  NewDataIntegrityError("filter", "", -1, "no rows remain"),
			want: []string{"filter", "no rows remain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, frag := range tt.want {
				if !strings.Contains(tt.err.Error(), frag) {
					t.Errorf("error %q missing fragment %q", tt.err.Error(), frag)
				}
			}
		})
	}
}

func TestFitErrorUnwrap(t *testing.T) {
	cause := New("singular hessian")
	err := NewFitError("GradientBoosting", map[string]interface{}{"max_depth": 3}, cause)

	if !Is(err, cause) {
		t.Error("FitError should unwrap to its cause")
	}

	var fitErr *FitError
	if !As(err, &fitErr) {
		t.Fatal("expected FitError in chain")
	}
	if fitErr.Model != "GradientBoosting" {
		t.Errorf("Model = %q, want GradientBoosting", fitErr.Model)
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("OneHotEncoder", "Transform")
	if !strings.Contains(err.Error(), "Fit()") {
		t.Errorf("message should direct the caller to Fit(): %v", err)
	}
}
