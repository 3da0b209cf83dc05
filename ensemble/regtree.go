package ensemble

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// regressionTree is a depth-limited tree fit to per-sample gradient and
// hessian statistics. Leaf values are the Newton step -G/(H+lambda), so a
// tree fit on logistic-loss gradients directly updates the raw score.
type regressionTree struct {
	feature   int
	threshold float64
	left      *regressionTree
	right     *regressionTree
	isLeaf    bool
	value     float64
}

type regTreeParams struct {
	maxDepth       int
	minSamplesLeaf int
	lambda         float64
	minGain        float64
}

func fitRegressionTree(X mat.Matrix, grad, hess []float64, idx []int, p regTreeParams) *regressionTree {
	return growRegNode(X, grad, hess, idx, 0, p)
}

func growRegNode(X mat.Matrix, grad, hess []float64, idx []int, depth int, p regTreeParams) *regressionTree {
	var sumG, sumH float64
	for _, i := range idx {
		sumG += grad[i]
		sumH += hess[i]
	}

	leaf := func() *regressionTree {
		return &regressionTree{isLeaf: true, value: -sumG / (sumH + p.lambda)}
	}

	if depth >= p.maxDepth || len(idx) < 2*p.minSamplesLeaf {
		return leaf()
	}

	_, nFeatures := X.Dims()
	parentScore := sumG * sumG / (sumH + p.lambda)

	bestGain := p.minGain
	bestFeature := -1
	bestThreshold := 0.0
	for f := 0; f < nFeatures; f++ {
		feature, threshold, gain := bestRegSplit(X, grad, hess, idx, f, parentScore, p)
		if feature >= 0 && gain > bestGain {
			bestGain = gain
			bestFeature = feature
			bestThreshold = threshold
		}
	}
	if bestFeature < 0 {
		return leaf()
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X.At(i, bestFeature) <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &regressionTree{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      growRegNode(X, grad, hess, left, depth+1, p),
		right:     growRegNode(X, grad, hess, right, depth+1, p),
	}
}

// bestRegSplit scans one feature for the split maximizing the gain
// G_L^2/(H_L+lambda) + G_R^2/(H_R+lambda) - G^2/(H+lambda).
func bestRegSplit(X mat.Matrix, grad, hess []float64, idx []int, f int, parentScore float64, p regTreeParams) (feature int, threshold, gain float64) {
	type point struct {
		v, g, h float64
	}
	points := make([]point, len(idx))
	var totalG, totalH float64
	for k, i := range idx {
		points[k] = point{v: X.At(i, f), g: grad[i], h: hess[i]}
		totalG += grad[i]
		totalH += hess[i]
	}
	sort.Slice(points, func(a, b int) bool { return points[a].v < points[b].v })

	feature = -1
	n := len(points)
	var leftG, leftH float64
	for s := 1; s < n; s++ {
		leftG += points[s-1].g
		leftH += points[s-1].h
		if points[s].v == points[s-1].v {
			continue
		}
		if s < p.minSamplesLeaf || n-s < p.minSamplesLeaf {
			continue
		}

		rightG := totalG - leftG
		rightH := totalH - leftH
		g := leftG*leftG/(leftH+p.lambda) + rightG*rightG/(rightH+p.lambda) - parentScore
		if g > gain {
			feature = f
			threshold = (points[s-1].v + points[s].v) / 2.0
			gain = g
		}
	}
	return feature, threshold, gain
}

func (t *regressionTree) predictRow(x []float64) float64 {
	for !t.isLeaf {
		if x[t.feature] <= t.threshold {
			t = t.left
		} else {
			t = t.right
		}
	}
	return t.value
}
