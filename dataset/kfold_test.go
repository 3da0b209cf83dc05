package dataset

import (
	"testing"
)

func TestStratifiedKFoldPartition(t *testing.T) {
	y := makeLabels(40, 10)
	folds, err := StratifiedKFold(y, 5, 42)
	if err != nil {
		t.Fatalf("StratifiedKFold() error = %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}

	seen := make(map[int]int)
	for f, fold := range folds {
		if len(fold.TrainIndices)+len(fold.TestIndices) != y.Len() {
			t.Errorf("fold %d: train+test = %d, want %d",
				f, len(fold.TrainIndices)+len(fold.TestIndices), y.Len())
		}
		inTrain := make(map[int]bool, len(fold.TrainIndices))
		for _, i := range fold.TrainIndices {
			inTrain[i] = true
		}
		for _, i := range fold.TestIndices {
			if inTrain[i] {
				t.Errorf("fold %d: index %d in both train and test", f, i)
			}
			seen[i]++
		}
	}
	// Every row is a validation sample exactly once.
	for i := 0; i < y.Len(); i++ {
		if seen[i] != 1 {
			t.Errorf("index %d appears in %d validation folds, want 1", i, seen[i])
		}
	}
}

func TestStratifiedKFoldClassMix(t *testing.T) {
	y := makeLabels(80, 20)
	folds, err := StratifiedKFold(y, 4, 7)
	if err != nil {
		t.Fatalf("StratifiedKFold() error = %v", err)
	}

	for f, fold := range folds {
		pos := 0
		for _, i := range fold.TestIndices {
			if y.AtVec(i) == 1 {
				pos++
			}
		}
		// 20 positives over 4 folds: exactly 5 each.
		if pos != 5 {
			t.Errorf("fold %d: %d positives in validation set, want 5", f, pos)
		}
	}
}

func TestStratifiedKFoldDeterminism(t *testing.T) {
	y := makeLabels(30, 12)

	a, err := StratifiedKFold(y, 3, 99)
	if err != nil {
		t.Fatalf("StratifiedKFold() error = %v", err)
	}
	b, err := StratifiedKFold(y, 3, 99)
	if err != nil {
		t.Fatalf("StratifiedKFold() error = %v", err)
	}
	for f := range a {
		if len(a[f].TestIndices) != len(b[f].TestIndices) {
			t.Fatalf("fold %d sizes differ", f)
		}
		for k := range a[f].TestIndices {
			if a[f].TestIndices[k] != b[f].TestIndices[k] {
				t.Fatalf("fold %d: test indices differ at %d", f, k)
			}
		}
	}
}

func TestStratifiedKFoldErrors(t *testing.T) {
	tests := []struct {
		name  string
		nNeg  int
		nPos  int
		folds int
	}{
		{name: "Too few folds", nNeg: 10, nPos: 10, folds: 1},
		{name: "Class smaller than folds", nNeg: 20, nPos: 3, folds: 5},
		{name: "Folds exceed samples", nNeg: 2, nPos: 2, folds: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := StratifiedKFold(makeLabels(tt.nNeg, tt.nPos), tt.folds, 1); err == nil {
				t.Fatal("StratifiedKFold() should fail")
			}
		})
	}

	t.Run("Empty labels", func(t *testing.T) {
		if _, err := StratifiedKFold(nil, 2, 1); err == nil {
			t.Fatal("StratifiedKFold(nil) should fail")
		}
	})
}
