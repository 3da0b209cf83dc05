package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// Outlier flags one cell whose z-score magnitude exceeds the threshold.
type Outlier struct {
	Column string
	Row    int
	Value  float64
	ZScore float64
}

// Outliers scans every column for values more than threshold standard
// deviations from the column mean. Constant columns produce no outliers.
// Results are ordered by column, then by row.
func Outliers(ds *dataset.Dataset, threshold float64) ([]Outlier, error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "stats.Outliers")
	}
	if threshold <= 0 {
		return nil, errors.NewValueError("stats.Outliers", "threshold must be positive")
	}

	var out []Outlier
	for _, name := range ds.Columns() {
		values, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		mean := stat.Mean(values, nil)
		std := stat.StdDev(values, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		for row, v := range values {
			z := (v - mean) / std
			if math.Abs(z) > threshold {
				out = append(out, Outlier{Column: name, Row: row, Value: v, ZScore: z})
			}
		}
	}
	return out, nil
}
