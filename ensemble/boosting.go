package ensemble

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// GradientBoostingClassifier minimizes logistic loss by adding shallow
// regression trees fit to the loss gradients. Leaf values take a Newton step
// using second-order statistics.
type GradientBoostingClassifier struct {
	model.BaseEstimator

	nEstimators    int
	learningRate   float64
	maxDepth       int
	minSamplesLeaf int
	subsample      float64 // fraction of rows per iteration, (0, 1]
	lambda         float64 // L2 regularization on leaf values
	randomState    int64

	baseScore float64
	trees     []*regressionTree
	nFeatures int
}

// BoostingOption configures a GradientBoostingClassifier.
type BoostingOption func(*GradientBoostingClassifier)

// WithBoostingNEstimators sets the number of boosting rounds.
func WithBoostingNEstimators(n int) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.nEstimators = n }
}

// WithLearningRate scales each tree's contribution.
func WithLearningRate(lr float64) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.learningRate = lr }
}

// WithBoostingMaxDepth limits the depth of each regression tree.
func WithBoostingMaxDepth(d int) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.maxDepth = d }
}

// WithBoostingMinSamplesLeaf sets the minimum samples per leaf.
func WithBoostingMinSamplesLeaf(n int) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.minSamplesLeaf = n }
}

// WithSubsample trains each round on a random row fraction in (0, 1].
func WithSubsample(fraction float64) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.subsample = fraction }
}

// WithLambda sets the L2 regularization applied to leaf values.
func WithLambda(lambda float64) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.lambda = lambda }
}

// WithBoostingRandomState seeds row subsampling.
func WithBoostingRandomState(seed int64) BoostingOption {
	return func(g *GradientBoostingClassifier) { g.randomState = seed }
}

// NewGradientBoostingClassifier returns a booster with 100 rounds of
// depth-3 trees at learning rate 0.1.
func NewGradientBoostingClassifier(opts ...BoostingOption) *GradientBoostingClassifier {
	g := &GradientBoostingClassifier{
		nEstimators:    100,
		learningRate:   0.1,
		maxDepth:       3,
		minSamplesLeaf: 1,
		subsample:      1.0,
		lambda:         1.0,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit trains the boosting ensemble on X and binary labels y.
func (g *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := checkXY("GradientBoostingClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if g.nEstimators < 1 {
		return errors.NewValueError("GradientBoostingClassifier.Fit", "n_estimators must be at least 1")
	}
	if g.learningRate <= 0 {
		return errors.NewValueError("GradientBoostingClassifier.Fit", "learning_rate must be positive")
	}
	if g.subsample <= 0 || g.subsample > 1 {
		return errors.NewValueError("GradientBoostingClassifier.Fit", "subsample must be in (0, 1]")
	}

	labels := make([]float64, nSamples)
	nPos := 0
	for i := 0; i < nSamples; i++ {
		labels[i] = y.At(i, 0)
		if labels[i] == 1 {
			nPos++
		}
	}
	if nPos == 0 || nPos == nSamples {
		return errors.NewDataError("GradientBoostingClassifier.Fit", "",
			"training data contains a single class")
	}

	// Initialize the raw score at the log odds of the positive rate.
	pPos := float64(nPos) / float64(nSamples)
	g.baseScore = math.Log(pPos / (1 - pPos))

	score := make([]float64, nSamples)
	for i := range score {
		score[i] = g.baseScore
	}

	rng := rand.New(rand.NewPCG(uint64(g.randomState), uint64(g.randomState)))
	params := regTreeParams{
		maxDepth:       g.maxDepth,
		minSamplesLeaf: g.minSamplesLeaf,
		lambda:         g.lambda,
	}

	grad := make([]float64, nSamples)
	hess := make([]float64, nSamples)
	g.trees = make([]*regressionTree, 0, g.nEstimators)
	row := make([]float64, nFeatures)
	for round := 0; round < g.nEstimators; round++ {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(score[i])
			grad[i] = p - labels[i]
			hess[i] = p * (1 - p)
		}

		idx := g.sampleRows(nSamples, rng)
		t := fitRegressionTree(X, grad, hess, idx, params)
		g.trees = append(g.trees, t)

		for i := 0; i < nSamples; i++ {
			mat.Row(row, i, X)
			score[i] += g.learningRate * t.predictRow(row)
		}
	}

	g.nFeatures = nFeatures
	g.SetFitted()
	return nil
}

// sampleRows returns the training rows for one round, without replacement
// when subsampling is enabled.
func (g *GradientBoostingClassifier) sampleRows(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if g.subsample >= 1 {
		return idx
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	k := int(g.subsample * float64(n))
	if k < 1 {
		k = 1
	}
	return idx[:k]
}

// Predict returns an n x 1 matrix of 0/1 labels.
func (g *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := g.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// PredictProba returns an n x 2 matrix of class probabilities obtained by
// passing the accumulated raw score through the logistic function.
func (g *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingClassifier", "PredictProba")
	}
	n, p := X.Dims()
	if p != g.nFeatures {
		return nil, errors.NewDimensionError("GradientBoostingClassifier.PredictProba", g.nFeatures, p, 1)
	}

	out := mat.NewDense(n, 2, nil)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		score := g.baseScore
		for _, t := range g.trees {
			score += g.learningRate * t.predictRow(row)
		}
		p1 := sigmoid(score)
		out.Set(i, 0, 1-p1)
		out.Set(i, 1, p1)
	}
	return out, nil
}

// GetParams returns the boosting hyperparameters.
func (g *GradientBoostingClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     g.nEstimators,
		"learning_rate":    g.learningRate,
		"max_depth":        g.maxDepth,
		"min_samples_leaf": g.minSamplesLeaf,
		"subsample":        g.subsample,
		"lambda":           g.lambda,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
