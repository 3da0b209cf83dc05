// Package stats implements the exploratory diagnostics behind the explore
// command: per-column summaries, correlation matrices, and z-score outlier
// detection.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// Summary holds descriptive statistics of one numeric column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarizes every column of the dataset in column order.
func Describe(ds *dataset.Dataset) ([]Summary, error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "stats.Describe")
	}

	out := make([]Summary, 0, ds.NumCols())
	for _, name := range ds.Columns() {
		values, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(name, values))
	}
	return out, nil
}

func summarize(name string, values []float64) Summary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Column: name,
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Std:    stat.StdDev(values, nil),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
