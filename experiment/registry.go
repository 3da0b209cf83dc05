package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/hmizuno-lab/diagbench/core/model"
	"github.com/hmizuno-lab/diagbench/ensemble"
	"github.com/hmizuno-lab/diagbench/neighbors"
	"github.com/hmizuno-lab/diagbench/pkg/errors"
	"github.com/hmizuno-lab/diagbench/svm"
	"github.com/hmizuno-lab/diagbench/tree"
)

// builder constructs a classifier from one grid combination. The seed feeds
// any stochastic component of the algorithm.
type builder func(name string, params map[string]any, seed int64) (model.Classifier, error)

var algorithms = map[string]builder{
	"decision_tree":     buildDecisionTree,
	"random_forest":     buildRandomForest,
	"gradient_boosting": buildGradientBoosting,
	"knn":               buildKNN,
	"svm":               buildSVC,
}

// Algorithms lists the registered algorithm identifiers in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newClassifier looks up the algorithm and builds it from the combination.
func newClassifier(name, algorithm string, params map[string]any, seed int64) (model.Classifier, error) {
	build, ok := algorithms[algorithm]
	if !ok {
		return nil, errors.NewConfigurationError(name, "algorithm",
			fmt.Sprintf("unknown algorithm %q", algorithm))
	}
	return build(name, params, seed)
}

func buildDecisionTree(name string, params map[string]any, seed int64) (model.Classifier, error) {
	opts := []tree.Option{tree.WithRandomState(seed)}
	for _, key := range sortedKeys(params) {
		switch key {
		case "criterion":
			v, err := stringParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, tree.WithCriterion(v))
		case "max_depth":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, tree.WithMaxDepth(v))
		case "min_samples_split":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, tree.WithMinSamplesSplit(v))
		case "min_samples_leaf":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, tree.WithMinSamplesLeaf(v))
		case "max_features":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, tree.WithMaxFeatures(v))
		default:
			return nil, unknownParam(name, key)
		}
	}
	return tree.NewDecisionTreeClassifier(opts...), nil
}

func buildRandomForest(name string, params map[string]any, seed int64) (model.Classifier, error) {
	opts := []ensemble.ForestOption{ensemble.WithForestRandomState(seed)}
	for _, key := range sortedKeys(params) {
		switch key {
		case "n_estimators":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithNEstimators(v))
		case "max_depth":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithForestMaxDepth(v))
		case "min_samples_split":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithForestMinSamplesSplit(v))
		case "min_samples_leaf":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithForestMinSamplesLeaf(v))
		case "max_features":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithForestMaxFeatures(v))
		case "criterion":
			v, err := stringParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithForestCriterion(v))
		default:
			return nil, unknownParam(name, key)
		}
	}
	return ensemble.NewRandomForestClassifier(opts...), nil
}

func buildGradientBoosting(name string, params map[string]any, seed int64) (model.Classifier, error) {
	opts := []ensemble.BoostingOption{ensemble.WithBoostingRandomState(seed)}
	for _, key := range sortedKeys(params) {
		switch key {
		case "n_estimators":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithBoostingNEstimators(v))
		case "learning_rate":
			v, err := floatParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithLearningRate(v))
		case "max_depth":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithBoostingMaxDepth(v))
		case "min_samples_leaf":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithBoostingMinSamplesLeaf(v))
		case "subsample":
			v, err := floatParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithSubsample(v))
		case "lambda":
			v, err := floatParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, ensemble.WithLambda(v))
		default:
			return nil, unknownParam(name, key)
		}
	}
	return ensemble.NewGradientBoostingClassifier(opts...), nil
}

func buildKNN(name string, params map[string]any, _ int64) (model.Classifier, error) {
	var opts []neighbors.Option
	for _, key := range sortedKeys(params) {
		switch key {
		case "n_neighbors":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, neighbors.WithNNeighbors(v))
		default:
			return nil, unknownParam(name, key)
		}
	}
	return neighbors.NewKNNClassifier(opts...), nil
}

func buildSVC(name string, params map[string]any, _ int64) (model.Classifier, error) {
	var opts []svm.Option
	for _, key := range sortedKeys(params) {
		switch key {
		case "C":
			v, err := floatParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, svm.WithC(v))
		case "kernel":
			v, err := stringParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, svm.WithKernel(v))
		case "gamma":
			v, err := floatParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, svm.WithGamma(v))
		case "max_iter":
			v, err := intParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, svm.WithMaxIter(v))
		case "tol":
			v, err := floatParam(name, key, params[key])
			if err != nil {
				return nil, err
			}
			opts = append(opts, svm.WithTolerance(v))
		default:
			return nil, unknownParam(name, key)
		}
	}
	return svm.NewSVC(opts...), nil
}

func sortedKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unknownParam(model, param string) error {
	return errors.NewConfigurationError(model, param, "unknown hyperparameter")
}

// intParam coerces a grid value to int. YAML decodes integers as int and
// floats as float64; an integral float is accepted.
func intParam(model, param string, v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) {
			return int(x), nil
		}
	}
	return 0, errors.NewConfigurationError(model, param, fmt.Sprintf("expected integer, got %v", v))
}

func floatParam(model, param string, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, errors.NewConfigurationError(model, param, fmt.Sprintf("expected number, got %v", v))
}

func stringParam(model, param string, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.NewConfigurationError(model, param, fmt.Sprintf("expected string, got %v", v))
}
