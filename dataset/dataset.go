// Package dataset loads delimited clinical tables into numeric matrices.
//
// A Dataset is immutable once loaded: every record has a value for every
// attribute, non-numeric columns are label-encoded with a deterministic
// (sorted) category order, and identifier or administrative columns are
// dropped before modeling.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// Dataset is an immutable table of named numeric columns.
type Dataset struct {
	columns []string
	data    [][]float64 // row-major
	// encodings maps a label-encoded column to its category -> code table.
	encodings map[string]map[string]float64
}

// LoadOption configures CSV loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	comma rune
	drop  map[string]bool
}

// WithComma sets the field delimiter (default ',').
func WithComma(c rune) LoadOption {
	return func(cfg *loadConfig) { cfg.comma = c }
}

// WithDropColumns excludes the named columns, e.g. patient identifiers and
// the overseeing-physician column, before any modeling takes place.
func WithDropColumns(names ...string) LoadOption {
	return func(cfg *loadConfig) {
		for _, n := range names {
			cfg.drop[n] = true
		}
	}
}

// LoadFile reads a delimited file from disk.
func LoadFile(path string, opts ...LoadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load reads a delimited table with a header row. Rows with missing values
// are rejected with a DataError; imputation is out of scope.
func Load(r io.Reader, opts ...LoadOption) (*Dataset, error) {
	cfg := &loadConfig{comma: ',', drop: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read csv")
	}
	if len(records) < 2 {
		return nil, errors.NewDataError("Load", "", "need a header row and at least one record")
	}

	header := records[0]
	keep := make([]int, 0, len(header))
	columns := make([]string, 0, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if cfg.drop[name] {
			continue
		}
		keep = append(keep, j)
		columns = append(columns, name)
	}
	if len(columns) == 0 {
		return nil, errors.NewDataError("Load", "", "all columns were dropped")
	}

	rows := records[1:]
	raw := make([][]string, len(rows))
	for i, rec := range rows {
		if len(rec) != len(header) {
			return nil, errors.NewDataError("Load", "",
				"record "+strconv.Itoa(i+1)+" has "+strconv.Itoa(len(rec))+" fields, want "+strconv.Itoa(len(header)))
		}
		vals := make([]string, len(keep))
		for k, j := range keep {
			v := strings.TrimSpace(rec[j])
			if v == "" {
				return nil, errors.NewDataError("Load", columns[k],
					"record "+strconv.Itoa(i+1)+" has a missing value")
			}
			vals[k] = v
		}
		raw[i] = vals
	}

	ds := &Dataset{
		columns:   columns,
		data:      make([][]float64, len(raw)),
		encodings: make(map[string]map[string]float64),
	}
	for i := range ds.data {
		ds.data[i] = make([]float64, len(columns))
	}

	// Column-wise pass: numeric columns parse directly, anything else is
	// label-encoded with categories in sorted order so codes do not depend
	// on row order.
	for k, name := range columns {
		numeric := true
		for i := range raw {
			if _, err := strconv.ParseFloat(raw[i][k], 64); err != nil {
				numeric = false
				break
			}
		}

		if numeric {
			for i := range raw {
				v, _ := strconv.ParseFloat(raw[i][k], 64)
				ds.data[i][k] = v
			}
			continue
		}

		seen := make(map[string]bool)
		for i := range raw {
			seen[raw[i][k]] = true
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		codes := make(map[string]float64, len(cats))
		for code, c := range cats {
			codes[c] = float64(code)
		}
		ds.encodings[name] = codes
		for i := range raw {
			ds.data[i][k] = codes[raw[i][k]]
		}
	}

	return ds, nil
}

// Columns returns the column names in table order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// NumRows returns the number of records.
func (d *Dataset) NumRows() int {
	return len(d.data)
}

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int {
	return len(d.columns)
}

// Encoding returns the category -> code table for a label-encoded column,
// or nil for numeric columns.
func (d *Dataset) Encoding(column string) map[string]float64 {
	return d.encodings[column]
}

func (d *Dataset) columnIndex(name string) int {
	for j, c := range d.columns {
		if c == name {
			return j
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]float64, error) {
	j := d.columnIndex(name)
	if j < 0 {
		return nil, errors.NewDataError("Column", name, "no such column")
	}
	out := make([]float64, len(d.data))
	for i := range d.data {
		out[i] = d.data[i][j]
	}
	return out, nil
}

// Matrix returns the full table as a dense matrix, columns in table order.
func (d *Dataset) Matrix() *mat.Dense {
	m := mat.NewDense(len(d.data), len(d.columns), nil)
	for i := range d.data {
		m.SetRow(i, d.data[i])
	}
	return m
}

// Features splits the table into a feature matrix X (all columns except the
// target) and a binary label vector y. The two distinct target values are
// mapped to 0 and 1 in ascending order. A target with anything other than
// exactly two distinct values is a DataError.
func (d *Dataset) Features(target string) (*mat.Dense, *mat.VecDense, error) {
	tj := d.columnIndex(target)
	if tj < 0 {
		return nil, nil, errors.NewDataError("Features", target, "no such column")
	}

	distinct := make(map[float64]bool)
	for i := range d.data {
		distinct[d.data[i][tj]] = true
	}
	if len(distinct) < 2 {
		return nil, nil, errors.NewDataError("Features", target, "target has fewer than two classes")
	}
	if len(distinct) > 2 {
		return nil, nil, errors.NewDataError("Features", target, "target is not binary")
	}

	values := make([]float64, 0, 2)
	for v := range distinct {
		values = append(values, v)
	}
	sort.Float64s(values)
	labelOf := map[float64]float64{values[0]: 0, values[1]: 1}

	n := len(d.data)
	p := len(d.columns) - 1
	if p == 0 {
		return nil, nil, errors.NewDataError("Features", target, "no predictive attributes remain")
	}

	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i := range d.data {
		col := 0
		for j := range d.columns {
			if j == tj {
				continue
			}
			X.Set(i, col, d.data[i][j])
			col++
		}
		y.SetVec(i, labelOf[d.data[i][tj]])
	}
	return X, y, nil
}

// FeatureNames returns the column names of the matrix produced by Features.
func (d *Dataset) FeatureNames(target string) []string {
	out := make([]string, 0, len(d.columns)-1)
	for _, c := range d.columns {
		if c == target {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ClassCounts tallies the records per distinct value of the named column.
func (d *Dataset) ClassCounts(column string) (map[float64]int, error) {
	vals, err := d.Column(column)
	if err != nil {
		return nil, err
	}
	counts := make(map[float64]int)
	for _, v := range vals {
		counts[v]++
	}
	return counts, nil
}

// ClassBalance returns the proportion of records per distinct value of the
// named column, computed as count-of-class over total record count.
func (d *Dataset) ClassBalance(column string) (map[float64]float64, error) {
	counts, err := d.ClassCounts(column)
	if err != nil {
		return nil, err
	}
	total := float64(d.NumRows())
	balance := make(map[float64]float64, len(counts))
	for v, c := range counts {
		balance[v] = float64(c) / total
	}
	return balance, nil
}
