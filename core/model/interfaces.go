package model

import "gonum.org/v1/gonum/mat"

// Classifier is the contract every benchmarked model implements. X is an
// n_samples x n_features matrix; y is an n_samples x 1 matrix of binary
// labels (0 or 1).
type Classifier interface {
	// Fit trains the classifier on X and y.
	Fit(X, y mat.Matrix) error

	// Predict returns an n_samples x 1 matrix of predicted labels.
	Predict(X mat.Matrix) (mat.Matrix, error)

	// PredictProba returns an n_samples x 2 matrix of class probabilities,
	// column 0 for the negative class and column 1 for the positive class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is a fitted data transformation, e.g. a feature scaler.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParamGetter exposes an estimator's hyperparameters for reporting.
type ParamGetter interface {
	GetParams() map[string]interface{}
}
