package errors

import (
	"strings"
	"testing"
)

func TestDataError(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		column string
		reason string
		want   string
	}{
		{
			name:   "With column",
			op:     "Features",
			column: "Diagnosis",
			reason: "target has a single class",
			want:   `diagbench: Features: column "Diagnosis": target has a single class`,
		},
		{
			name:   "Without column",
			op:     "Load",
			reason: "row 12 has 3 fields, want 35",
			want:   "diagbench: Load: row 12 has 3 fields, want 35",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDataError(tt.op, tt.column, tt.reason)
			if err.Error() != tt.want {
				t.Errorf("DataError message = %q, want %q", err.Error(), tt.want)
			}

			var dataErr *DataError
			if !As(err, &dataErr) {
				t.Error("errors.As failed to unwrap DataError")
			}
		})
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("svm", "C", "expected a number, got string")
	want := `diagbench: model "svm": parameter "C": expected a number, got string`
	if err.Error() != want {
		t.Errorf("ConfigurationError message = %q, want %q", err.Error(), want)
	}

	var cfgErr *ConfigurationError
	if !As(err, &cfgErr) {
		t.Fatal("errors.As failed to unwrap ConfigurationError")
	}
	if cfgErr.Model != "svm" || cfgErr.Param != "C" {
		t.Errorf("ConfigurationError fields = (%q, %q), want (svm, C)", cfgErr.Model, cfgErr.Param)
	}
}

func TestFitError(t *testing.T) {
	cause := New("singular matrix")
	err := NewFitError("random_forest", "refit", cause)

	var fitErr *FitError
	if !As(err, &fitErr) {
		t.Fatal("errors.As failed to unwrap FitError")
	}
	if fitErr.Model != "random_forest" {
		t.Errorf("FitError.Model = %q, want random_forest", fitErr.Model)
	}
	if !Is(err, cause) {
		t.Error("FitError should wrap its cause")
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("KNNClassifier", "Predict")
	if !strings.Contains(err.Error(), "not fitted yet") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestRecover(t *testing.T) {
	err := SafeExecute("divide", func() error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("SafeExecute should return an error after a panic")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %T", err)
	}
	if panicErr.Operation != "divide" {
		t.Errorf("PanicError.Operation = %q, want divide", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("PanicError should capture a stack trace")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewUndefinedMetricWarning("sensitivity", "no positive samples", 0)
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "sensitivity") {
		t.Errorf("unexpected warning: %v", captured)
	}
}
