package experiment

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
	"github.com/hmizuno-lab/diagbench/pkg/log"
)

func init() {
	log.SetLevel(log.ParseLevel("error"))
}

// benchData builds an in-memory dataset with two informative features and a
// string-valued diagnosis column, n rows per class.
func benchData(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(12, 12))

	var b strings.Builder
	b.WriteString("MarkerA,MarkerB,Diagnosis\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%.4f,%.4f,healthy\n", rng.NormFloat64()-2, rng.NormFloat64()-2)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%.4f,%.4f,sick\n", rng.NormFloat64()+2, rng.NormFloat64()+2)
	}

	ds, err := dataset.Load(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return ds
}

func quickSpecs() []ModelSpec {
	return []ModelSpec{
		{
			Name:      "tree",
			Algorithm: "decision_tree",
			Scaler:    "none",
			Grid:      map[string][]any{"max_depth": []any{2, 3}},
		},
		{
			Name:      "knn",
			Algorithm: "knn",
			Grid:      map[string][]any{"n_neighbors": []any{3, 5}},
		},
	}
}

func quickResampling() ResamplingConfig {
	return ResamplingConfig{Folds: 3, Repeats: 2, Scoring: "accuracy"}
}

func TestHarnessRunReports(t *testing.T) {
	ds := benchData(t, 30)
	h := New()

	result, err := h.Run(ds, "Diagnosis", quickSpecs(), quickResampling(), 0.8, 42)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Failures) != 0 {
		t.Fatalf("Failures = %v, want none", result.Failures)
	}
	if len(result.Reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(result.Reports))
	}
	if result.TrainSize+result.TestSize != ds.NumRows() {
		t.Errorf("train+test = %d, want %d", result.TrainSize+result.TestSize, ds.NumRows())
	}

	for name, rep := range result.Reports {
		if rep.Confusion.Total() != result.TestSize {
			t.Errorf("%s: confusion total = %d, want %d", name, rep.Confusion.Total(), result.TestSize)
		}
		if rep.TestSize != result.TestSize {
			t.Errorf("%s: TestSize = %d, want %d", name, rep.TestSize, result.TestSize)
		}
		if rep.Accuracy < 0 || rep.Accuracy > 1 {
			t.Errorf("%s: accuracy = %v out of range", name, rep.Accuracy)
		}
		if rep.CVScore < 0 || rep.CVScore > 1 {
			t.Errorf("%s: CV score = %v out of range", name, rep.CVScore)
		}
		if rep.Predictions.Len() != result.TestSize {
			t.Errorf("%s: %d predictions, want %d", name, rep.Predictions.Len(), result.TestSize)
		}
		// The blobs are well separated, so every family should do better
		// than chance.
		if rep.Accuracy < 0.7 {
			t.Errorf("%s: accuracy = %v, want >= 0.7", name, rep.Accuracy)
		}
	}
}

func TestHarnessDeterminism(t *testing.T) {
	ds := benchData(t, 25)
	h := New()

	run := func() *Result {
		result, err := h.Run(ds, "Diagnosis", quickSpecs(), quickResampling(), 0.75, 7)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return result
	}

	a, b := run(), run()
	for name, repA := range a.Reports {
		repB := b.Reports[name]
		if repB == nil {
			t.Fatalf("%s missing from second run", name)
		}
		for k, v := range repA.BestParams {
			if repB.BestParams[k] != v {
				t.Errorf("%s: BestParams[%s] = %v vs %v", name, k, v, repB.BestParams[k])
			}
		}
		if math.Abs(repA.CVScore-repB.CVScore) > 0 {
			t.Errorf("%s: CV scores differ: %v vs %v", name, repA.CVScore, repB.CVScore)
		}
		for i := 0; i < repA.Predictions.Len(); i++ {
			if repA.Predictions.AtVec(i) != repB.Predictions.AtVec(i) {
				t.Fatalf("%s: predictions differ at %d", name, i)
			}
		}
	}
}

func TestHarnessSingleCombinationGrid(t *testing.T) {
	ds := benchData(t, 20)
	h := New()

	specs := []ModelSpec{{
		Name:      "fixed_tree",
		Algorithm: "decision_tree",
		Scaler:    "none",
		Grid:      map[string][]any{"max_depth": []any{4}},
	}}

	result, err := h.Run(ds, "Diagnosis", specs, quickResampling(), 0.8, 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rep := result.Reports["fixed_tree"]
	if rep == nil {
		t.Fatalf("missing report, failures = %v", result.Failures)
	}
	if got := rep.BestParams["max_depth"]; got != 4 {
		t.Errorf("BestParams[max_depth] = %v, want 4", got)
	}
}

func TestHarnessFailureIsolation(t *testing.T) {
	ds := benchData(t, 20)
	h := New()

	specs := []ModelSpec{
		{
			Name:      "broken_knn",
			Algorithm: "knn",
			// Far more neighbors than any training fold holds.
			Grid: map[string][]any{"n_neighbors": []any{10000}},
		},
		{
			Name:      "tree",
			Algorithm: "decision_tree",
			Scaler:    "none",
			Grid:      map[string][]any{"max_depth": []any{3}},
		},
	}

	result, err := h.Run(ds, "Diagnosis", specs, quickResampling(), 0.8, 3)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	failure := result.Failures["broken_knn"]
	if failure == nil {
		t.Fatal("broken_knn should have failed")
	}
	var fe *errors.FitError
	if !errors.As(failure, &fe) {
		t.Errorf("failure = %v, want FitError", failure)
	} else if fe.Stage != "cross_validation" {
		t.Errorf("FitError stage = %q, want cross_validation", fe.Stage)
	}

	if result.Reports["tree"] == nil {
		t.Error("tree should still have been evaluated")
	}
	if _, ok := result.Reports["broken_knn"]; ok {
		t.Error("a failed model must not also have a report")
	}
}

func TestHarnessConfigurationErrors(t *testing.T) {
	ds := benchData(t, 20)
	h := New()
	resampling := quickResampling()

	tests := []struct {
		name  string
		specs []ModelSpec
	}{
		{
			name: "Unknown algorithm",
			specs: []ModelSpec{{
				Name:      "mystery",
				Algorithm: "deep_net",
				Grid:      map[string][]any{"layers": []any{2}},
			}},
		},
		{
			name: "Empty grid",
			specs: []ModelSpec{{
				Name:      "tree",
				Algorithm: "decision_tree",
				Grid:      map[string][]any{},
			}},
		},
		{
			name: "Unknown hyperparameter",
			specs: []ModelSpec{{
				Name:      "tree",
				Algorithm: "decision_tree",
				Grid:      map[string][]any{"depth_limit": []any{3}},
			}},
		},
		{
			name:  "No models",
			specs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Run(ds, "Diagnosis", tt.specs, resampling, 0.8, 1)
			if err == nil {
				t.Fatal("Run() should fail")
			}
			var ce *errors.ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestHarnessSingleClassTarget(t *testing.T) {
	csv := "MarkerA,Diagnosis\n1.0,sick\n2.0,sick\n3.0,sick\n"
	ds, err := dataset.Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	h := New()
	_, err = h.Run(ds, "Diagnosis", quickSpecs(), quickResampling(), 0.8, 1)
	if err == nil {
		t.Fatal("Run() on a single-class target should fail")
	}
	var de *errors.DataError
	if !errors.As(err, &de) {
		t.Errorf("error = %v, want DataError", err)
	}
}

func TestHarnessRocAucScoring(t *testing.T) {
	ds := benchData(t, 25)
	h := New()

	resampling := ResamplingConfig{Folds: 3, Repeats: 1, Scoring: "roc_auc"}
	result, err := h.Run(ds, "Diagnosis", quickSpecs(), resampling, 0.8, 5)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("Failures = %v, want none", result.Failures)
	}
	for name, rep := range result.Reports {
		if rep.AUC < 0 || rep.AUC > 1 {
			t.Errorf("%s: AUC = %v out of range", name, rep.AUC)
		}
	}
}
