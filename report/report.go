// Package report renders benchmark results: a textual per-model summary and
// an optional hyperparameter curve plot.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/hmizuno-lab/diagbench/experiment"
)

// Render writes a human-readable summary of a benchmark run. Models are
// printed in name order, successful reports first, then failures.
func Render(w io.Writer, result *experiment.Result) error {
	fmt.Fprintf(w, "benchmark run %s (seed %d)\n", result.RunID, result.Seed)
	fmt.Fprintf(w, "train %d samples, test %d samples\n", result.TrainSize, result.TestSize)

	names := make([]string, 0, len(result.Reports))
	for name := range result.Reports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rep := result.Reports[name]
		fmt.Fprintf(w, "\n=== %s ===\n", name)
		fmt.Fprintf(w, "best params: %s\n", formatParams(rep.BestParams))
		fmt.Fprintf(w, "cv score:    %.4f\n", rep.CVScore)
		fmt.Fprintf(w, "%s\n", rep.Confusion)
		fmt.Fprintf(w, "accuracy:    %.4f\n", rep.Accuracy)
		fmt.Fprintf(w, "sensitivity: %.4f\n", rep.Sensitivity)
		fmt.Fprintf(w, "specificity: %.4f\n", rep.Specificity)
		fmt.Fprintf(w, "auc:         %.4f\n", rep.AUC)
	}

	if len(result.Failures) > 0 {
		failed := make([]string, 0, len(result.Failures))
		for name := range result.Failures {
			failed = append(failed, name)
		}
		sort.Strings(failed)

		fmt.Fprintf(w, "\nfailed models:\n")
		for _, name := range failed {
			fmt.Fprintf(w, "  %s: %v\n", name, result.Failures[name])
		}
	}
	return nil
}

// formatParams renders a parameter map with sorted keys.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, params[k])
	}
	if out == "" {
		return "(defaults)"
	}
	return out
}
