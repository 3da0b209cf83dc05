// Package tree implements a CART decision tree classifier for binary
// targets.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// DecisionTreeClassifier is a CART-style binary classifier with axis-aligned
// numeric splits.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	// Hyperparameters
	criterion           string  // "gini" (default) or "entropy"
	maxDepth            int     // 0 means no depth limit
	minSamplesSplit     int     // minimum samples to attempt a split
	minSamplesLeaf      int     // minimum samples in each child
	maxFeatures         int     // 0 means all features, >0 samples a subset per node
	minImpurityDecrease float64 // minimal gain to accept a split
	randomState         int64   // seed for feature subsampling

	// Fitted state
	root      *node
	nFeatures int
}

type node struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *node
	right     *node

	// leaf data
	n        int
	probaPos float64 // fraction of positive samples in the leaf
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithCriterion selects the impurity measure, "gini" or "entropy".
func WithCriterion(c string) Option {
	return func(t *DecisionTreeClassifier) { t.criterion = c }
}

// WithMaxDepth limits tree depth; 0 disables the limit.
func WithMaxDepth(d int) Option {
	return func(t *DecisionTreeClassifier) { t.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum size of each child node.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.minSamplesLeaf = n }
}

// WithMaxFeatures samples k features per node when looking for a split.
func WithMaxFeatures(k int) Option {
	return func(t *DecisionTreeClassifier) { t.maxFeatures = k }
}

// WithMinImpurityDecrease sets the minimal impurity gain to accept a split.
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeClassifier) { t.minImpurityDecrease = v }
}

// WithRandomState seeds feature subsampling for reproducible trees.
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.randomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		criterion:       "gini",
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the tree on X and binary labels y.
func (t *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, yVec, err := validateClassifierInput("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if t.criterion != "gini" && t.criterion != "entropy" {
		return errors.NewValueError("DecisionTreeClassifier.Fit",
			fmt.Sprintf("unknown criterion %q", t.criterion))
	}

	t.nFeatures = nFeatures
	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}

	rng := rand.New(rand.NewPCG(uint64(t.randomState), uint64(t.randomState)))
	t.root = t.buildNode(X, yVec, idx, 0, rng)
	t.SetFitted()
	return nil
}

// Predict returns an n x 1 matrix of 0/1 labels.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return thresholdProba(proba), nil
}

// PredictProba returns an n x 2 matrix of class probabilities.
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	n, p := X.Dims()
	if p != t.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", t.nFeatures, p, 1)
	}

	out := mat.NewDense(n, 2, nil)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		pos := t.root.probaFor(row)
		out.Set(i, 0, 1-pos)
		out.Set(i, 1, pos)
	}
	return out, nil
}

// GetParams returns the tree hyperparameters.
func (t *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             t.criterion,
		"max_depth":             t.maxDepth,
		"min_samples_split":     t.minSamplesSplit,
		"min_samples_leaf":      t.minSamplesLeaf,
		"max_features":          t.maxFeatures,
		"min_impurity_decrease": t.minImpurityDecrease,
	}
}

func (n *node) probaFor(x []float64) float64 {
	for !n.isLeaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.probaPos
}

func (t *DecisionTreeClassifier) buildNode(X mat.Matrix, y *mat.VecDense, idx []int, depth int, rng *rand.Rand) *node {
	nPos := 0
	for _, i := range idx {
		if y.AtVec(i) == 1 {
			nPos++
		}
	}

	leaf := func() *node {
		return &node{
			isLeaf:   true,
			n:        len(idx),
			probaPos: float64(nPos) / float64(len(idx)),
		}
	}

	if nPos == 0 || nPos == len(idx) {
		return leaf()
	}
	if len(idx) < t.minSamplesSplit {
		return leaf()
	}
	if t.maxDepth > 0 && depth >= t.maxDepth {
		return leaf()
	}

	features := t.candidateFeatures(rng)
	parentImpurity := t.impurity(nPos, len(idx)-nPos)

	best := split{feature: -1}
	for _, f := range features {
		if s := t.bestSplitForFeature(X, y, idx, f, parentImpurity); s.feature >= 0 && s.gain > best.gain {
			best = s
		}
	}
	if best.feature < 0 || best.gain <= t.minImpurityDecrease {
		return leaf()
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		n:         len(idx),
		left:      t.buildNode(X, y, left, depth+1, rng),
		right:     t.buildNode(X, y, right, depth+1, rng),
	}
}

// candidateFeatures returns the feature indices searched at a node, in a
// deterministic order for a fixed seed.
func (t *DecisionTreeClassifier) candidateFeatures(rng *rand.Rand) []int {
	features := make([]int, t.nFeatures)
	for j := range features {
		features[j] = j
	}
	if t.maxFeatures <= 0 || t.maxFeatures >= t.nFeatures {
		return features
	}
	rng.Shuffle(len(features), func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	features = features[:t.maxFeatures]
	sort.Ints(features)
	return features
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplitForFeature scans midpoints between consecutive distinct values of
// one feature and returns the split with the highest impurity gain.
func (t *DecisionTreeClassifier) bestSplitForFeature(X mat.Matrix, y *mat.VecDense, idx []int, f int, parentImpurity float64) split {
	type pair struct {
		v   float64
		pos bool
	}
	pairs := make([]pair, len(idx))
	totalPos := 0
	for k, i := range idx {
		pairs[k] = pair{v: X.At(i, f), pos: y.AtVec(i) == 1}
		if pairs[k].pos {
			totalPos++
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

	best := split{feature: -1}
	n := len(pairs)
	leftPos := 0
	for s := 1; s < n; s++ {
		if pairs[s-1].pos {
			leftPos++
		}
		if pairs[s].v == pairs[s-1].v {
			continue
		}
		if s < t.minSamplesLeaf || n-s < t.minSamplesLeaf {
			continue
		}

		leftNeg := s - leftPos
		rightPos := totalPos - leftPos
		rightNeg := (n - s) - rightPos

		weighted := float64(s)/float64(n)*t.impurity(leftPos, leftNeg) +
			float64(n-s)/float64(n)*t.impurity(rightPos, rightNeg)
		gain := parentImpurity - weighted
		if gain > best.gain {
			best = split{
				feature:   f,
				threshold: (pairs[s-1].v + pairs[s].v) / 2.0,
				gain:      gain,
			}
		}
	}
	return best
}

func (t *DecisionTreeClassifier) impurity(pos, neg int) float64 {
	n := float64(pos + neg)
	if n == 0 {
		return 0
	}
	p := float64(pos) / n
	q := float64(neg) / n
	if t.criterion == "entropy" {
		e := 0.0
		if p > 0 {
			e -= p * math.Log2(p)
		}
		if q > 0 {
			e -= q * math.Log2(q)
		}
		return e
	}
	return p*(1-p) + q*(1-q)
}

// validateClassifierInput checks the common Fit preconditions and extracts
// the label column.
func validateClassifierInput(op string, X, y mat.Matrix) (nSamples, nFeatures int, labels *mat.VecDense, err error) {
	nSamples, nFeatures = X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return 0, 0, nil, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, nil, errors.NewValueError(op, "y must be a column vector")
	}

	labels = mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return 0, 0, nil, errors.NewValueError(op, "labels must be 0 or 1")
		}
		labels.SetVec(i, v)
	}
	return nSamples, nFeatures, labels, nil
}

// thresholdProba converts an n x 2 probability matrix to 0/1 labels at 0.5.
func thresholdProba(proba mat.Matrix) *mat.Dense {
	n, _ := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if proba.At(i, 1) > 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out
}
