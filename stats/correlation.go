package stats

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// CorrelationMatrix computes the Pearson correlation of every column pair.
// The matrix rows and columns follow the returned column names.
func CorrelationMatrix(ds *dataset.Dataset) (*mat.SymDense, []string, error) {
	return correlationMatrix(ds, func(v []float64) []float64 { return v })
}

// SpearmanMatrix computes the rank correlation of every column pair: each
// column is replaced by its average ranks and the Pearson correlation of the
// ranks is taken.
func SpearmanMatrix(ds *dataset.Dataset) (*mat.SymDense, []string, error) {
	return correlationMatrix(ds, averageRanks)
}

func correlationMatrix(ds *dataset.Dataset, transform func([]float64) []float64) (*mat.SymDense, []string, error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "stats.CorrelationMatrix")
	}

	names := ds.Columns()
	columns := make([][]float64, len(names))
	for i, name := range names {
		values, err := ds.Column(name)
		if err != nil {
			return nil, nil, err
		}
		columns[i] = transform(values)
	}

	corr := mat.NewSymDense(len(names), nil)
	for i := range columns {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < len(columns); j++ {
			corr.SetSym(i, j, stat.Correlation(columns[i], columns[j], nil))
		}
	}
	return corr, names, nil
}

// averageRanks maps values to 1-based ranks, averaging over ties.
func averageRanks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j+2) / 2.0
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
