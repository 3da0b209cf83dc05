// Package svm implements a support vector classifier trained with a
// simplified sequential minimal optimization solver.
package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// SVC is a soft-margin support vector classifier with linear or RBF
// kernels. Probability estimates pass the decision value through a logistic
// squashing; they are monotone in the margin but not Platt-calibrated.
type SVC struct {
	model.BaseEstimator

	c       float64 // soft-margin penalty
	kernel  string  // "linear" or "rbf"
	gamma   float64 // RBF width, 0 selects 1/p
	tol     float64
	maxIter int // full passes over the training set

	alpha     []float64
	bias      float64
	supportX  *mat.Dense
	supportY  []float64 // labels in {-1, +1}
	gammaFit  float64
	nFeatures int
}

// Option configures an SVC.
type Option func(*SVC)

// WithC sets the soft-margin penalty.
func WithC(c float64) Option {
	return func(s *SVC) { s.c = c }
}

// WithKernel selects the kernel, "linear" or "rbf".
func WithKernel(kernel string) Option {
	return func(s *SVC) { s.kernel = kernel }
}

// WithGamma sets the RBF kernel width; 0 selects 1/p at fit time.
func WithGamma(gamma float64) Option {
	return func(s *SVC) { s.gamma = gamma }
}

// WithTolerance sets the KKT violation tolerance.
func WithTolerance(tol float64) Option {
	return func(s *SVC) { s.tol = tol }
}

// WithMaxIter bounds the number of optimization passes.
func WithMaxIter(n int) Option {
	return func(s *SVC) { s.maxIter = n }
}

// NewSVC returns a classifier with C = 1 and an RBF kernel.
func NewSVC(opts ...Option) *SVC {
	s := &SVC{
		c:       1.0,
		kernel:  "rbf",
		tol:     1e-3,
		maxIter: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit solves the dual problem on X and binary labels y. The solver visits
// samples in index order, so training is deterministic.
func (s *SVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.Wrap(errors.ErrEmptyData, "SVC.Fit")
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("SVC.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("SVC.Fit", "y must be a column vector")
	}
	if s.c <= 0 {
		return errors.NewValueError("SVC.Fit", "C must be positive")
	}
	if s.kernel != "linear" && s.kernel != "rbf" {
		return errors.NewValueError("SVC.Fit", "kernel must be linear or rbf")
	}

	labels := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		switch y.At(i, 0) {
		case 0:
			labels[i] = -1
		case 1:
			labels[i] = 1
		default:
			return errors.NewValueError("SVC.Fit", "labels must be 0 or 1")
		}
	}

	s.gammaFit = s.gamma
	if s.gammaFit <= 0 {
		s.gammaFit = 1.0 / float64(nFeatures)
	}

	// Precompute the kernel matrix; training sets here are small enough to
	// hold it dense.
	K := mat.NewDense(nSamples, nSamples, nil)
	xi := make([]float64, nFeatures)
	xj := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		mat.Row(xi, i, X)
		for j := i; j < nSamples; j++ {
			mat.Row(xj, j, X)
			v := s.kernelValue(xi, xj)
			K.Set(i, j, v)
			K.Set(j, i, v)
		}
	}

	alpha := make([]float64, nSamples)
	b := 0.0
	errCache := func(i int) float64 {
		f := b
		for k := 0; k < nSamples; k++ {
			if alpha[k] > 0 {
				f += alpha[k] * labels[k] * K.At(i, k)
			}
		}
		return f - labels[i]
	}

	converged := false
	for pass := 0; pass < s.maxIter; pass++ {
		changed := 0
		for i := 0; i < nSamples; i++ {
			Ei := errCache(i)
			if !((labels[i]*Ei < -s.tol && alpha[i] < s.c) || (labels[i]*Ei > s.tol && alpha[i] > 0)) {
				continue
			}

			// Second index: the largest error gap, ties resolved by index.
			j, Ej := -1, 0.0
			best := -1.0
			for k := 0; k < nSamples; k++ {
				if k == i {
					continue
				}
				Ek := errCache(k)
				if gap := math.Abs(Ei - Ek); gap > best {
					best = gap
					j, Ej = k, Ek
				}
			}
			if j < 0 {
				continue
			}

			var L, H float64
			if labels[i] != labels[j] {
				L = math.Max(0, alpha[j]-alpha[i])
				H = math.Min(s.c, s.c+alpha[j]-alpha[i])
			} else {
				L = math.Max(0, alpha[i]+alpha[j]-s.c)
				H = math.Min(s.c, alpha[i]+alpha[j])
			}
			if L == H {
				continue
			}

			eta := 2*K.At(i, j) - K.At(i, i) - K.At(j, j)
			if eta >= 0 {
				continue
			}

			oldI, oldJ := alpha[i], alpha[j]
			alpha[j] = oldJ - labels[j]*(Ei-Ej)/eta
			alpha[j] = math.Min(math.Max(alpha[j], L), H)
			if math.Abs(alpha[j]-oldJ) < 1e-5 {
				alpha[j] = oldJ
				continue
			}
			alpha[i] = oldI + labels[i]*labels[j]*(oldJ-alpha[j])

			b1 := b - Ei - labels[i]*(alpha[i]-oldI)*K.At(i, i) - labels[j]*(alpha[j]-oldJ)*K.At(i, j)
			b2 := b - Ej - labels[i]*(alpha[i]-oldI)*K.At(i, j) - labels[j]*(alpha[j]-oldJ)*K.At(j, j)
			switch {
			case alpha[i] > 0 && alpha[i] < s.c:
				b = b1
			case alpha[j] > 0 && alpha[j] < s.c:
				b = b2
			default:
				b = (b1 + b2) / 2
			}
			changed++
		}
		if changed == 0 {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.Wrap(errors.ErrNotConverged, "SVC.Fit: iteration cap reached"))
	}

	// Retain only support vectors.
	var keep []int
	for i, a := range alpha {
		if a > 0 {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return errors.NewDataError("SVC.Fit", "", "no support vectors found, data may contain a single class")
	}

	s.alpha = make([]float64, len(keep))
	s.supportY = make([]float64, len(keep))
	s.supportX = mat.NewDense(len(keep), nFeatures, nil)
	for k, i := range keep {
		s.alpha[k] = alpha[i]
		s.supportY[k] = labels[i]
		for jcol := 0; jcol < nFeatures; jcol++ {
			s.supportX.Set(k, jcol, X.At(i, jcol))
		}
	}
	s.bias = b
	s.nFeatures = nFeatures
	s.SetFitted()
	return nil
}

// DecisionFunction returns the signed margin for each row of X.
func (s *SVC) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVC", "DecisionFunction")
	}
	n, p := X.Dims()
	if p != s.nFeatures {
		return nil, errors.NewDimensionError("SVC.DecisionFunction", s.nFeatures, p, 1)
	}

	out := mat.NewVecDense(n, nil)
	query := make([]float64, p)
	sv := make([]float64, p)
	nSV, _ := s.supportX.Dims()
	for i := 0; i < n; i++ {
		mat.Row(query, i, X)
		f := s.bias
		for k := 0; k < nSV; k++ {
			mat.Row(sv, k, s.supportX)
			f += s.alpha[k] * s.supportY[k] * s.kernelValue(query, sv)
		}
		out.SetVec(i, f)
	}
	return out, nil
}

// Predict returns an n x 1 matrix of 0/1 labels from the sign of the margin.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := dec.Len()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if dec.AtVec(i) > 0 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// PredictProba returns an n x 2 matrix of logistic-squashed margins.
func (s *SVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := dec.Len()
	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p1 := 1.0 / (1.0 + math.Exp(-dec.AtVec(i)))
		out.Set(i, 0, 1-p1)
		out.Set(i, 1, p1)
	}
	return out, nil
}

// GetParams returns the classifier hyperparameters.
func (s *SVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":        s.c,
		"kernel":   s.kernel,
		"gamma":    s.gamma,
		"tol":      s.tol,
		"max_iter": s.maxIter,
	}
}

func (s *SVC) kernelValue(a, b []float64) float64 {
	if s.kernel == "linear" {
		var dot float64
		for i := range a {
			dot += a[i] * b[i]
		}
		return dot
	}
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Exp(-s.gammaFit * d)
}
