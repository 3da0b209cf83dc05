// Standard attribute keys for structured logging. Using these keys keeps the
// benchmark logs filterable: every fit, scoring pass, and failure carries the
// same field names.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the classifier family, e.g. "random_forest".
	ModelNameKey = "model.name"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// OperationKey names the operation: "fit", "predict", "transform",
	// "score", "split".
	OperationKey = "ml.operation"

	// RunIDKey carries the UUID of the harness invocation.
	RunIDKey = "run.id"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	TrainKey    = "data.train_samples"
	TestKey     = "data.test_samples"
)

// Resampling and selection.
const (
	FoldsKey      = "cv.folds"
	RepeatsKey    = "cv.repeats"
	ScoringKey    = "cv.scoring"
	CandidatesKey = "cv.candidates"
	CVScoreKey    = "cv.best_score"
)

// Evaluation metrics.
const (
	AccuracyKey    = "metrics.accuracy"
	SensitivityKey = "metrics.sensitivity"
	SpecificityKey = "metrics.specificity"
	AUCKey         = "metrics.auc"
)

// Configuration.
const (
	RandomSeedKey = "config.random_seed"
	HyperParams   = "model.hyperparams"
)

// Error context.
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "stacktrace"
)
