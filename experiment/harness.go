// Package experiment implements the benchmark harness: a stratified
// train/test split, per-model grid search with repeated stratified k-fold
// cross-validation, refit on the full training subset, and held-out
// evaluation. A fixed seed fully determines the splits, the fold
// assignments, and the selected hyperparameters. One model's failure is
// recorded and does not abort the others.
package experiment

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/core/parallel"
	"github.com/hmizuno-lab/diagbench/dataset"
	"github.com/hmizuno-lab/diagbench/metrics"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
	"github.com/hmizuno-lab/diagbench/pkg/log"
	"github.com/hmizuno-lab/diagbench/preprocessing"
)

// GridScore is the mean cross-validation score of one grid combination.
type GridScore struct {
	Params map[string]any
	Score  float64
}

// EvaluationReport is the held-out outcome of one benchmarked model.
type EvaluationReport struct {
	Model       string
	BestParams  map[string]any
	CVScore     float64     // mean cross-validation score of the winning combination
	GridScores  []GridScore // every combination in deterministic grid order
	Confusion   *metrics.ConfusionMatrix
	Accuracy    float64
	Sensitivity float64
	Specificity float64
	AUC         float64
	Predictions *mat.VecDense
	TestSize    int
}

// Result collects the outcome of a harness invocation. Reports and Failures
// are disjoint: a model appears in exactly one of them.
type Result struct {
	RunID     uuid.UUID
	Seed      int64
	TrainSize int
	TestSize  int
	Reports   map[string]*EvaluationReport
	Failures  map[string]error
}

// Harness runs benchmark experiments.
type Harness struct {
	log log.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Option {
	return func(h *Harness) { h.log = l }
}

// New returns a ready harness.
func New(opts ...Option) *Harness {
	h := &Harness{log: log.GetLoggerWithName("experiment")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RunConfig runs the harness as described by a validated configuration.
func (h *Harness) RunConfig(ds *dataset.Dataset, cfg *Config) (*Result, error) {
	return h.Run(ds, cfg.Target, cfg.Models, cfg.Resampling, cfg.TrainFraction, cfg.Seed)
}

// Run benchmarks every spec on the dataset and returns per-model reports.
// Configuration problems and dataset-level problems fail the whole run; a
// fit or prediction failure of one model lands in Result.Failures and the
// remaining models still complete.
func (h *Harness) Run(ds *dataset.Dataset, target string, specs []ModelSpec, resampling ResamplingConfig, trainFraction float64, seed int64) (*Result, error) {
	if err := resampling.validate(); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, errors.NewConfigurationError("", "models", "at least one model is required")
	}
	for i := range specs {
		if err := specs[i].validate(); err != nil {
			return nil, err
		}
	}

	X, y, err := ds.Features(target)
	if err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()

	split, err := dataset.StratifiedSplit(y, trainFraction, seed)
	if err != nil {
		return nil, err
	}
	XTrain := dataset.SelectRows(X, split.TrainIndices)
	yTrain := dataset.SelectVec(y, split.TrainIndices)
	XTest := dataset.SelectRows(X, split.TestIndices)
	yTest := dataset.SelectVec(y, split.TestIndices)

	// Fold assignments are shared by all models so that every candidate is
	// scored on identical resamples.
	foldSets := make([][]dataset.CVFold, resampling.Repeats)
	for r := 0; r < resampling.Repeats; r++ {
		folds, err := dataset.StratifiedKFold(yTrain, resampling.Folds, seed+int64(r)+1)
		if err != nil {
			return nil, err
		}
		foldSets[r] = folds
	}

	result := &Result{
		RunID:     uuid.New(),
		Seed:      seed,
		TrainSize: len(split.TrainIndices),
		TestSize:  len(split.TestIndices),
		Reports:   make(map[string]*EvaluationReport, len(specs)),
		Failures:  make(map[string]error),
	}

	h.log.Info("starting benchmark run",
		log.RunIDKey, result.RunID.String(),
		log.RandomSeedKey, seed,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.TrainKey, result.TrainSize,
		log.TestKey, result.TestSize,
		log.FoldsKey, resampling.Folds,
		log.RepeatsKey, resampling.Repeats,
		log.ScoringKey, resampling.Scoring,
	)

	for i := range specs {
		spec := specs[i]
		report, err := h.runModel(spec, resampling, foldSets, XTrain, yTrain, XTest, yTest, seed)
		if err != nil {
			result.Failures[spec.Name] = err
			h.log.Warn("model failed",
				log.RunIDKey, result.RunID.String(),
				log.ModelNameKey, spec.Name,
				log.ErrorTypeKey, fmt.Sprintf("%T", err),
				"error", err,
			)
			continue
		}
		result.Reports[spec.Name] = report
		h.log.Info("model evaluated",
			log.RunIDKey, result.RunID.String(),
			log.ModelNameKey, spec.Name,
			log.CVScoreKey, report.CVScore,
			log.AccuracyKey, report.Accuracy,
			log.SensitivityKey, report.Sensitivity,
			log.SpecificityKey, report.Specificity,
			log.AUCKey, report.AUC,
		)
	}
	return result, nil
}

// foldData is one resample with model-specific scaling already applied.
type foldData struct {
	XTr, XVal mat.Matrix
	yTr, yVal *mat.VecDense
}

// runModel performs grid search, refit, and held-out evaluation for one
// spec. A panic inside an estimator is converted to an error, keeping the
// failure contained to this model.
func (h *Harness) runModel(spec ModelSpec, resampling ResamplingConfig, foldSets [][]dataset.CVFold, XTrain, yTrain, XTest, yTest mat.Matrix, seed int64) (report *EvaluationReport, err error) {
	defer errors.Recover(&err, "benchmark "+spec.Name)

	yTrainVec, err := asVec(yTrain)
	if err != nil {
		return nil, err
	}
	yTestVec, err := asVec(yTest)
	if err != nil {
		return nil, err
	}

	// Scale each resample on its own training part only.
	var folds []foldData
	for _, set := range foldSets {
		for _, fold := range set {
			XTr := dataset.SelectRows(XTrain, fold.TrainIndices)
			XVal := dataset.SelectRows(XTrain, fold.TestIndices)
			yTr := dataset.SelectVec(yTrainVec, fold.TrainIndices)
			yVal := dataset.SelectVec(yTrainVec, fold.TestIndices)

			XTrS, XValS, err := scalePair(spec.Scaler, XTr, XVal)
			if err != nil {
				return nil, errors.NewFitError(spec.Name, "cross_validation", err)
			}
			folds = append(folds, foldData{XTr: XTrS, XVal: XValS, yTr: yTr, yVal: yVal})
		}
	}

	combos := ExpandGrid(spec.Grid)
	scores := make([]float64, len(combos))
	cvErrs := make([]error, len(combos))
	parallel.Parallelize(len(combos), func(start, end int) {
		for ci := start; ci < end; ci++ {
			var sum float64
			for _, fd := range folds {
				clf, err := newClassifier(spec.Name, spec.Algorithm, combos[ci], seed)
				if err != nil {
					cvErrs[ci] = err
					return
				}
				if err := clf.Fit(fd.XTr, fd.yTr); err != nil {
					cvErrs[ci] = errors.NewFitError(spec.Name, "cross_validation", err)
					return
				}
				s, err := scoreEstimator(clf, resampling.Scoring, fd.XVal, fd.yVal)
				if err != nil {
					cvErrs[ci] = errors.NewFitError(spec.Name, "cross_validation", err)
					return
				}
				sum += s
			}
			scores[ci] = sum / float64(len(folds))
		}
	})
	for _, e := range cvErrs {
		if e != nil {
			return nil, e
		}
	}

	// Best mean score wins; a tie keeps the earliest combination.
	bestIdx := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[bestIdx] {
			bestIdx = i
		}
	}
	h.log.Debug("grid search complete",
		log.ModelNameKey, spec.Name,
		log.CandidatesKey, len(combos),
		log.CVScoreKey, scores[bestIdx],
	)

	// Refit the winner on the whole training subset.
	XTrainS, XTestS, err := scalePair(spec.Scaler, XTrain, XTest)
	if err != nil {
		return nil, errors.NewFitError(spec.Name, "refit", err)
	}
	clf, err := newClassifier(spec.Name, spec.Algorithm, combos[bestIdx], seed)
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(XTrainS, yTrainVec); err != nil {
		return nil, errors.NewFitError(spec.Name, "refit", err)
	}

	pred, err := clf.Predict(XTestS)
	if err != nil {
		return nil, errors.NewFitError(spec.Name, "predict", err)
	}
	predVec, err := asVec(pred)
	if err != nil {
		return nil, errors.NewFitError(spec.Name, "predict", err)
	}
	proba, err := clf.PredictProba(XTestS)
	if err != nil {
		return nil, errors.NewFitError(spec.Name, "predict", err)
	}

	cm, err := metrics.NewConfusionMatrix(yTestVec, predVec)
	if err != nil {
		return nil, errors.NewFitError(spec.Name, "predict", err)
	}
	auc, err := metrics.AUC(yTestVec, positiveColumn(proba))
	if err != nil {
		return nil, errors.NewFitError(spec.Name, "predict", err)
	}

	gridScores := make([]GridScore, len(combos))
	for i := range combos {
		gridScores[i] = GridScore{Params: combos[i], Score: scores[i]}
	}

	return &EvaluationReport{
		Model:       spec.Name,
		BestParams:  combos[bestIdx],
		CVScore:     scores[bestIdx],
		GridScores:  gridScores,
		Confusion:   cm,
		Accuracy:    cm.Accuracy(),
		Sensitivity: cm.Sensitivity(),
		Specificity: cm.Specificity(),
		AUC:         auc,
		Predictions: predVec,
		TestSize:    cm.Total(),
	}, nil
}

// scalePair fits the requested scaler on the training block only and
// transforms both blocks with it.
func scalePair(kind string, XTrain, XOther mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	scaler := newScaler(kind)
	if scaler == nil {
		return XTrain, XOther, nil
	}
	trainS, err := scaler.FitTransform(XTrain)
	if err != nil {
		return nil, nil, err
	}
	otherS, err := scaler.Transform(XOther)
	if err != nil {
		return nil, nil, err
	}
	return trainS, otherS, nil
}

func newScaler(kind string) model.Transformer {
	switch kind {
	case "minmax":
		return preprocessing.NewMinMaxScalerDefault()
	case "none":
		return nil
	default:
		return preprocessing.NewStandardScalerDefault()
	}
}

// scoreEstimator scores a fitted classifier on a validation block.
func scoreEstimator(clf model.Classifier, scoring string, X mat.Matrix, y *mat.VecDense) (float64, error) {
	if scoring == "roc_auc" {
		proba, err := clf.PredictProba(X)
		if err != nil {
			return 0, err
		}
		return metrics.AUC(y, positiveColumn(proba))
	}
	pred, err := clf.Predict(X)
	if err != nil {
		return 0, err
	}
	predVec, err := asVec(pred)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, predVec)
}

// positiveColumn extracts the positive-class probabilities from an n x 2
// probability matrix.
func positiveColumn(proba mat.Matrix) *mat.VecDense {
	n, _ := proba.Dims()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, proba.At(i, 1))
	}
	return out
}

// asVec reads the first column of a matrix as a vector.
func asVec(m mat.Matrix) (*mat.VecDense, error) {
	if v, ok := m.(*mat.VecDense); ok {
		return v, nil
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError("experiment", "empty matrix")
	}
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, m.At(i, 0))
	}
	return out, nil
}
