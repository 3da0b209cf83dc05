package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

const sampleCSV = `PatientID,Age,Gender,DoctorInCharge,Smoking,Diagnosis
4751,73,0,XXXConfid,1,0
4752,89,1,XXXConfid,0,1
4753,73,0,XXXConfid,1,0
4754,74,1,XXXConfid,0,1
4755,89,0,XXXConfid,1,0
4756,61,1,XXXConfid,0,1
`

func TestLoadDropsColumns(t *testing.T) {
	ds, err := Load(strings.NewReader(sampleCSV),
		WithDropColumns("PatientID", "DoctorInCharge"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantCols := []string{"Age", "Gender", "Smoking", "Diagnosis"}
	got := ds.Columns()
	if len(got) != len(wantCols) {
		t.Fatalf("Columns() = %v, want %v", got, wantCols)
	}
	for i := range wantCols {
		if got[i] != wantCols[i] {
			t.Errorf("Columns()[%d] = %q, want %q", i, got[i], wantCols[i])
		}
	}
	if ds.NumRows() != 6 {
		t.Errorf("NumRows() = %d, want 6", ds.NumRows())
	}
}

func TestLoadLabelEncoding(t *testing.T) {
	csv := "ID,Stage,Label\n1,late,0\n2,early,1\n3,mid,0\n4,early,1\n"
	ds, err := Load(strings.NewReader(csv), WithDropColumns("ID"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Categories are encoded in sorted order regardless of row order.
	enc := ds.Encoding("Stage")
	if enc == nil {
		t.Fatal("Stage should be label-encoded")
	}
	want := map[string]float64{"early": 0, "late": 1, "mid": 2}
	for cat, code := range want {
		if enc[cat] != code {
			t.Errorf("Encoding(Stage)[%q] = %v, want %v", cat, enc[cat], code)
		}
	}

	col, err := ds.Column("Stage")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	wantCol := []float64{1, 0, 2, 0}
	for i := range wantCol {
		if col[i] != wantCol[i] {
			t.Errorf("Stage[%d] = %v, want %v", i, col[i], wantCol[i])
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "Missing value",
			csv:  "A,B\n1,2\n3,\n",
		},
		{
			name: "Header only",
			csv:  "A,B\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.csv))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var dataErr *errors.DataError
			if !errors.As(err, &dataErr) {
				t.Errorf("expected DataError, got %T: %v", err, err)
			}
		})
	}
}

func TestFeatures(t *testing.T) {
	ds, err := Load(strings.NewReader(sampleCSV),
		WithDropColumns("PatientID", "DoctorInCharge"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	X, y, err := ds.Features("Diagnosis")
	if err != nil {
		t.Fatalf("Features() error = %v", err)
	}

	rows, cols := X.Dims()
	if rows != 6 || cols != 3 {
		t.Errorf("X dims = (%d, %d), want (6, 3)", rows, cols)
	}

	wantY := []float64{0, 1, 0, 1, 0, 1}
	for i := range wantY {
		if y.AtVec(i) != wantY[i] {
			t.Errorf("y[%d] = %v, want %v", i, y.AtVec(i), wantY[i])
		}
	}

	names := ds.FeatureNames("Diagnosis")
	if len(names) != 3 || names[0] != "Age" {
		t.Errorf("FeatureNames() = %v", names)
	}
}

func TestFeaturesTargetErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "Single class",
			csv:  "A,Label\n1,1\n2,1\n3,1\n",
		},
		{
			name: "Three classes",
			csv:  "A,Label\n1,0\n2,1\n3,2\n",
		},
		{
			name: "Missing target column",
			csv:  "A,B\n1,0\n2,1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load(strings.NewReader(tt.csv))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if _, _, err := ds.Features("Label"); err == nil {
				t.Fatal("Features() should fail")
			} else {
				var dataErr *errors.DataError
				if !errors.As(err, &dataErr) {
					t.Errorf("expected DataError, got %T: %v", err, err)
				}
			}
		})
	}
}

func TestClassBalance(t *testing.T) {
	ds, err := Load(strings.NewReader(sampleCSV),
		WithDropColumns("PatientID", "DoctorInCharge"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	balance, err := ds.ClassBalance("Diagnosis")
	if err != nil {
		t.Fatalf("ClassBalance() error = %v", err)
	}
	if math.Abs(balance[0]-0.5) > 1e-12 || math.Abs(balance[1]-0.5) > 1e-12 {
		t.Errorf("ClassBalance() = %v, want 0.5 per class", balance)
	}
}
