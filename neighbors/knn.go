// Package neighbors implements a k-nearest-neighbors classifier for binary
// targets.
package neighbors

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/core/parallel"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// KNNClassifier predicts by majority vote among the k nearest training
// samples under squared euclidean distance. Distances assume standardized
// features; pair it with a scaler fit on the training split.
type KNNClassifier struct {
	model.BaseEstimator

	nNeighbors int

	X *mat.Dense
	y []float64
}

// Option configures a KNNClassifier.
type Option func(*KNNClassifier)

// WithNNeighbors sets k.
func WithNNeighbors(k int) Option {
	return func(c *KNNClassifier) { c.nNeighbors = k }
}

// NewKNNClassifier returns a classifier with k = 5.
func NewKNNClassifier(opts ...Option) *KNNClassifier {
	c := &KNNClassifier{nNeighbors: 5}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit stores the training data.
func (c *KNNClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNNClassifier.Fit")
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("KNNClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNNClassifier.Fit", "y must be a column vector")
	}
	if c.nNeighbors < 1 {
		return errors.NewValueError("KNNClassifier.Fit", "n_neighbors must be at least 1")
	}
	if c.nNeighbors > nSamples {
		return errors.NewValueError("KNNClassifier.Fit", "n_neighbors exceeds the number of training samples")
	}

	c.X = mat.DenseCopyOf(X)
	c.y = make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValueError("KNNClassifier.Fit", "labels must be 0 or 1")
		}
		c.y[i] = v
	}

	c.SetFitted()
	return nil
}

// Predict returns an n x 1 matrix of 0/1 labels.
func (c *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if proba.At(i, 1) > 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// PredictProba returns an n x 2 matrix where the positive-class probability
// is the fraction of positive votes among the k nearest neighbors. Queries
// are scored in parallel.
func (c *KNNClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !c.IsFitted() {
		return nil, errors.NewNotFittedError("KNNClassifier", "PredictProba")
	}
	n, p := X.Dims()
	_, trainCols := c.X.Dims()
	if p != trainCols {
		return nil, errors.NewDimensionError("KNNClassifier.PredictProba", trainCols, p, 1)
	}

	out := mat.NewDense(n, 2, nil)
	parallel.Parallelize(n, func(start, end int) {
		query := make([]float64, p)
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			pos := c.voteFraction(query)
			out.Set(i, 0, 1-pos)
			out.Set(i, 1, pos)
		}
	})
	return out, nil
}

// voteFraction returns the positive fraction among the k nearest training
// samples. Ties in distance are broken by training index, so results do not
// depend on sort internals.
func (c *KNNClassifier) voteFraction(query []float64) float64 {
	nTrain, p := c.X.Dims()
	type neighbor struct {
		dist float64
		idx  int
	}
	all := make([]neighbor, nTrain)
	for i := 0; i < nTrain; i++ {
		var d float64
		for j := 0; j < p; j++ {
			diff := c.X.At(i, j) - query[j]
			d += diff * diff
		}
		all[i] = neighbor{dist: d, idx: i}
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].dist != all[b].dist {
			return all[a].dist < all[b].dist
		}
		return all[a].idx < all[b].idx
	})

	pos := 0
	for _, nb := range all[:c.nNeighbors] {
		if c.y[nb.idx] == 1 {
			pos++
		}
	}
	return float64(pos) / float64(c.nNeighbors)
}

// GetParams returns the classifier hyperparameters.
func (c *KNNClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": c.nNeighbors,
	}
}
