package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(values []float64) *mat.VecDense {
	if len(values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(values), values)
}

func TestConfusionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    ConfusionMatrix
		wantErr bool
	}{
		{
			name:  "Mixed outcomes",
			yTrue: []float64{1, 1, 0, 0, 1, 0},
			yPred: []float64{1, 0, 0, 1, 1, 0},
			want:  ConfusionMatrix{TP: 2, TN: 2, FP: 1, FN: 1},
		},
		{
			name:  "Perfect classifier",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0, 1, 0, 1},
			want:  ConfusionMatrix{TP: 2, TN: 2},
		},
		{
			name:  "Everything positive",
			yTrue: []float64{0, 0, 1},
			yPred: []float64{1, 1, 1},
			want:  ConfusionMatrix{TP: 1, FP: 2},
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 2, 1},
			yPred:   []float64{0, 1, 1},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfusionMatrix(vec(tt.yTrue), vec(tt.yPred))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewConfusionMatrix() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if *got != tt.want {
				t.Errorf("NewConfusionMatrix() = %+v, want %+v", *got, tt.want)
			}
			if got.Total() != len(tt.yTrue) {
				t.Errorf("Total() = %d, want %d", got.Total(), len(tt.yTrue))
			}
		})
	}
}

func TestConfusionMatrixRates(t *testing.T) {
	cm := &ConfusionMatrix{TP: 30, TN: 50, FP: 10, FN: 10}

	if got := cm.Accuracy(); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Accuracy() = %v, want 0.8", got)
	}
	if got := cm.Sensitivity(); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Sensitivity() = %v, want 0.75", got)
	}
	if got := cm.Specificity(); math.Abs(got-50.0/60.0) > 1e-9 {
		t.Errorf("Specificity() = %v, want %v", got, 50.0/60.0)
	}
}

func TestConfusionMatrixUndefinedRates(t *testing.T) {
	// No actual positives: sensitivity is undefined and reported as NaN.
	noPositives := &ConfusionMatrix{TN: 5, FP: 2}
	if got := noPositives.Sensitivity(); !math.IsNaN(got) {
		t.Errorf("Sensitivity() with no positives = %v, want NaN", got)
	}
	if got := noPositives.Specificity(); math.Abs(got-5.0/7.0) > 1e-9 {
		t.Errorf("Specificity() = %v, want %v", got, 5.0/7.0)
	}

	noNegatives := &ConfusionMatrix{TP: 4, FN: 1}
	if got := noNegatives.Specificity(); !math.IsNaN(got) {
		t.Errorf("Specificity() with no negatives = %v, want NaN", got)
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "80 percent accuracy",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 1, 1, 0},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(vec(tt.yTrue), vec(tt.yPred))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassificationError(t *testing.T) {
	yTrue := vec([]float64{0, 0, 1, 1})
	yPred := vec([]float64{0, 1, 1, 0})

	got, err := ClassificationError(yTrue, yPred)
	if err != nil {
		t.Fatalf("ClassificationError() error = %v", err)
	}
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("ClassificationError() = %v, want 0.5", got)
	}
}
