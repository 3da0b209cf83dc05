package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// AUC computes the area under the ROC curve from binary labels and
// continuous scores, using the rank-statistic formulation with average
// ranks for tied scores. A single-class input is undefined; following the
// usual convention a warning is emitted and 0.5 is returned.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("AUC", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		got := 0
		if yPred != nil {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError("AUC", n, got, 0)
	}

	nPos := 0
	for i := 0; i < n; i++ {
		v := yTrue.AtVec(i)
		if !isBinaryLabel(v) {
			return 0, errors.NewValueError("AUC", "labels must be 0 or 1")
		}
		if v == 1 {
			nPos++
		}
	}
	nNeg := n - nPos

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present", 0.5))
		return 0.5, nil
	}

	// Rank all scores ascending, averaging ranks across ties.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yPred.AtVec(order[j+1]) == yPred.AtVec(order[i]) {
			j++
		}
		// 1-based ranks i+1..j+1 share the average rank.
		avg := float64(i+j+2) / 2.0
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var rankSumPos float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSumPos += ranks[i]
		}
	}

	// Mann-Whitney U statistic normalized by the number of pairs.
	u := rankSumPos - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix is the matrix-input variant of AUC; it reads the first column
// of each argument.
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	trueVec, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	predVec, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(trueVec, predVec)
}

// BinaryLogLoss computes the mean negative log-likelihood of binary labels
// under predicted probabilities. Probabilities are clipped away from 0 and
// 1 to keep the logarithm finite.
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		got := 0
		if yPred != nil {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError("BinaryLogLoss", n, got, 0)
	}

	const eps = 1e-15
	var loss float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if !isBinaryLabel(y) {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be 0 or 1")
		}
		p := math.Min(math.Max(yPred.AtVec(i), eps), 1-eps)
		if y == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}
