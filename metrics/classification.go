// Package metrics implements binary classification metrics for model
// evaluation: confusion matrices with derived rates, accuracy, ROC AUC, and
// log loss. Vector entry points take *mat.VecDense; each has a Matrix
// variant that reads the first column, for callers holding n x 1 matrices.
package metrics

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// ConfusionMatrix tabulates predicted versus actual outcomes of a binary
// classifier. The positive class is label 1.
type ConfusionMatrix struct {
	TP int // predicted positive, actual positive
	TN int // predicted negative, actual negative
	FP int // predicted positive, actual negative
	FN int // predicted negative, actual positive
}

// NewConfusionMatrix tallies predictions against actual binary labels.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		got := 0
		if yPred != nil {
			got = yPred.Len()
		}
		return nil, errors.NewDimensionError("NewConfusionMatrix", n, got, 0)
	}

	cm := &ConfusionMatrix{}
	for i := 0; i < n; i++ {
		actual := yTrue.AtVec(i)
		pred := yPred.AtVec(i)
		if !isBinaryLabel(actual) || !isBinaryLabel(pred) {
			return nil, errors.NewValueError("NewConfusionMatrix", "labels must be 0 or 1")
		}
		switch {
		case pred == 1 && actual == 1:
			cm.TP++
		case pred == 0 && actual == 0:
			cm.TN++
		case pred == 1 && actual == 0:
			cm.FP++
		default:
			cm.FN++
		}
	}
	return cm, nil
}

// NewConfusionMatrixMatrix is the matrix-input variant of NewConfusionMatrix;
// it reads the first column of each argument.
func NewConfusionMatrixMatrix(yTrue, yPred mat.Matrix) (*ConfusionMatrix, error) {
	trueVec, err := firstColumn("NewConfusionMatrix", yTrue)
	if err != nil {
		return nil, err
	}
	predVec, err := firstColumn("NewConfusionMatrix", yPred)
	if err != nil {
		return nil, err
	}
	return NewConfusionMatrix(trueVec, predVec)
}

// Total returns the number of scored samples.
func (cm *ConfusionMatrix) Total() int {
	return cm.TP + cm.TN + cm.FP + cm.FN
}

// Accuracy returns the fraction of correct predictions.
func (cm *ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return math.NaN()
	}
	return float64(cm.TP+cm.TN) / float64(total)
}

// Sensitivity returns the true-positive rate TP/(TP+FN). When there are no
// actual positives the rate is undefined: a warning is emitted and NaN is
// returned rather than failing.
func (cm *ConfusionMatrix) Sensitivity() float64 {
	if cm.TP+cm.FN == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("sensitivity", "no positive samples", math.NaN()))
		return math.NaN()
	}
	return float64(cm.TP) / float64(cm.TP+cm.FN)
}

// Specificity returns the true-negative rate TN/(TN+FP), NaN with a warning
// when there are no actual negatives.
func (cm *ConfusionMatrix) Specificity() float64 {
	if cm.TN+cm.FP == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("specificity", "no negative samples", math.NaN()))
		return math.NaN()
	}
	return float64(cm.TN) / float64(cm.TN+cm.FP)
}

// String renders the 2x2 table with actual classes as rows.
func (cm *ConfusionMatrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "            pred=0  pred=1\n")
	fmt.Fprintf(&b, "actual=0  %8d %7d\n", cm.TN, cm.FP)
	fmt.Fprintf(&b, "actual=1  %8d %7d", cm.FN, cm.TP)
	return b.String()
}

// Accuracy returns the fraction of exact label matches. Labels are not
// restricted to binary values.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		got := 0
		if yPred != nil {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError("Accuracy", n, got, 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError returns 1 - accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

func isBinaryLabel(v float64) bool {
	return v == 0 || v == 1
}

// firstColumn extracts column 0 of an n x m matrix as a vector.
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	vec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		vec.SetVec(i, m.At(i, 0))
	}
	return vec, nil
}
