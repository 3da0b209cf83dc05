// Package ensemble implements tree ensembles for binary classification: a
// bagging random forest and a gradient boosting machine with Newton leaf
// values.
package ensemble

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/core/parallel"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
	"github.com/hmizuno-lab/diagbench/tree"
)

// RandomForestClassifier averages the probability estimates of decision
// trees grown on bootstrap samples with per-node feature subsampling.
type RandomForestClassifier struct {
	model.BaseEstimator

	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 selects floor(sqrt(p))
	criterion       string
	randomState     int64

	trees     []*tree.DecisionTreeClassifier
	nFeatures int
}

// ForestOption configures a RandomForestClassifier.
type ForestOption func(*RandomForestClassifier)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.nEstimators = n }
}

// WithForestMaxDepth limits the depth of each tree; 0 disables the limit.
func WithForestMaxDepth(d int) ForestOption {
	return func(f *RandomForestClassifier) { f.maxDepth = d }
}

// WithForestMinSamplesSplit sets the per-tree minimum node size for splits.
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.minSamplesSplit = n }
}

// WithForestMinSamplesLeaf sets the per-tree minimum child size.
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.minSamplesLeaf = n }
}

// WithForestMaxFeatures sets the features sampled per node; 0 selects
// floor(sqrt(p)).
func WithForestMaxFeatures(k int) ForestOption {
	return func(f *RandomForestClassifier) { f.maxFeatures = k }
}

// WithForestCriterion selects the split criterion, "gini" or "entropy".
func WithForestCriterion(c string) ForestOption {
	return func(f *RandomForestClassifier) { f.criterion = c }
}

// WithForestRandomState seeds bootstrapping and feature subsampling.
func WithForestRandomState(seed int64) ForestOption {
	return func(f *RandomForestClassifier) { f.randomState = seed }
}

// NewRandomForestClassifier returns a forest with 100 trees and sqrt(p)
// feature subsampling.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	f := &RandomForestClassifier{
		nEstimators:     100,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		criterion:       "gini",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit grows the forest on X and binary labels y. Trees are trained in
// parallel; the result depends only on the data and the seed.
func (f *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := checkXY("RandomForestClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if f.nEstimators < 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "n_estimators must be at least 1")
	}

	maxFeatures := f.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	// Bootstrap indices and per-tree seeds are drawn sequentially from one
	// stream so that parallel training stays reproducible.
	rng := rand.New(rand.NewPCG(uint64(f.randomState), uint64(f.randomState)))
	samples := make([][]int, f.nEstimators)
	seeds := make([]int64, f.nEstimators)
	for b := 0; b < f.nEstimators; b++ {
		idx := make([]int, nSamples)
		for i := range idx {
			idx[i] = rng.IntN(nSamples)
		}
		samples[b] = idx
		seeds[b] = int64(rng.Uint64() >> 1)
	}

	f.trees = make([]*tree.DecisionTreeClassifier, f.nEstimators)
	var (
		mu       sync.Mutex
		firstErr error
	)
	parallel.Parallelize(f.nEstimators, func(start, end int) {
		for b := start; b < end; b++ {
			Xb, yb := takeRows(X, y, samples[b])
			t := tree.NewDecisionTreeClassifier(
				tree.WithCriterion(f.criterion),
				tree.WithMaxDepth(f.maxDepth),
				tree.WithMinSamplesSplit(f.minSamplesSplit),
				tree.WithMinSamplesLeaf(f.minSamplesLeaf),
				tree.WithMaxFeatures(maxFeatures),
				tree.WithRandomState(seeds[b]),
			)
			if err := t.Fit(Xb, yb); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			f.trees[b] = t
		}
	})
	if firstErr != nil {
		return firstErr
	}

	f.nFeatures = nFeatures
	f.SetFitted()
	return nil
}

// Predict returns an n x 1 matrix of 0/1 labels.
func (f *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// PredictProba returns an n x 2 matrix averaging the tree probabilities.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	n, p := X.Dims()
	if p != f.nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", f.nFeatures, p, 1)
	}

	pos := make([]float64, n)
	for _, t := range f.trees {
		proba, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			pos[i] += proba.At(i, 1)
		}
	}

	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p1 := pos[i] / float64(len(f.trees))
		out.Set(i, 0, 1-p1)
		out.Set(i, 1, p1)
	}
	return out, nil
}

// GetParams returns the forest hyperparameters.
func (f *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.nEstimators,
		"max_depth":         f.maxDepth,
		"min_samples_split": f.minSamplesSplit,
		"min_samples_leaf":  f.minSamplesLeaf,
		"max_features":      f.maxFeatures,
		"criterion":         f.criterion,
	}
}

// checkXY validates feature and label shapes and that labels are binary.
func checkXY(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	nSamples, nFeatures = X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return 0, 0, errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nSamples, nFeatures, nil
}

// takeRows materializes the given rows of X and y as dense matrices.
func takeRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, p := X.Dims()
	Xs := mat.NewDense(len(indices), p, nil)
	ys := mat.NewDense(len(indices), 1, nil)
	for k, i := range indices {
		for j := 0; j < p; j++ {
			Xs.Set(k, j, X.At(i, j))
		}
		ys.Set(k, 0, y.At(i, 0))
	}
	return Xs, ys
}

// labelsFromProba thresholds the positive-class column at 0.5.
func labelsFromProba(proba mat.Matrix) *mat.Dense {
	n, _ := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if proba.At(i, 1) > 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out
}
