// Package diagbench benchmarks binary diagnosis classifiers on tabular
// clinical datasets.
//
// The library is organized around a small estimator contract: every
// classifier exposes Fit(X, y mat.Matrix) error, Predict, and PredictProba
// over gonum matrices, carries its hyperparameters as functional options,
// and guards prediction behind a fitted-state check. Five families are
// provided: a CART decision tree (tree), a bagging random forest and a
// gradient boosting machine (ensemble), k-nearest-neighbors (neighbors),
// and a support vector classifier (svm).
//
// The experiment package ties them together: it splits the data with a
// seeded stratified split, selects hyperparameters by grid search under
// repeated stratified k-fold cross-validation on the training subset only,
// refits the winner, and scores it on the held-out subset. Scaling is fit
// per resample, so no test information leaks into training. A fixed seed
// reproduces the splits, the fold assignments, and the selected
// hyperparameters exactly; a failing model is reported without aborting the
// rest of the run.
//
// cmd/diagbench wraps the library in a CLI with run and explore commands.
package diagbench
