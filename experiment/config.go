package experiment

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hmizuno-lab/diagbench/pkg/errors"
)

// ModelSpec declares one benchmark entry: a registered algorithm, its
// hyperparameter grid, and the feature scaling applied before it.
type ModelSpec struct {
	Name      string           `yaml:"name"`
	Algorithm string           `yaml:"algorithm"`
	Scaler    string           `yaml:"scaler"` // "standard" (default), "minmax", "none"
	Grid      map[string][]any `yaml:"grid"`
}

// ResamplingConfig controls model selection: repeated stratified k-fold
// cross-validation scored by "accuracy" or "roc_auc".
type ResamplingConfig struct {
	Folds   int    `yaml:"folds"`
	Repeats int    `yaml:"repeats"`
	Scoring string `yaml:"scoring"`
}

// Config is the YAML experiment description consumed by the CLI.
type Config struct {
	Target        string           `yaml:"target"`
	DropColumns   []string         `yaml:"drop_columns"`
	TrainFraction float64          `yaml:"train_fraction"`
	Seed          int64            `yaml:"seed"`
	Resampling    ResamplingConfig `yaml:"resampling"`
	Models        []ModelSpec      `yaml:"models"`
}

// LoadConfig reads and validates a YAML experiment configuration.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes and validates a YAML experiment configuration.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := &Config{
		TrainFraction: 0.8,
		Resampling:    ResamplingConfig{Folds: 5, Repeats: 1, Scoring: "accuracy"},
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration before any data is touched.
func (c *Config) Validate() error {
	if c.Target == "" {
		return errors.NewConfigurationError("", "target", "target column is required")
	}
	if c.TrainFraction <= 0 || c.TrainFraction >= 1 {
		return errors.NewConfigurationError("", "train_fraction", "must be in (0, 1)")
	}
	if err := c.Resampling.validate(); err != nil {
		return err
	}
	if len(c.Models) == 0 {
		return errors.NewConfigurationError("", "models", "at least one model is required")
	}

	seen := make(map[string]bool, len(c.Models))
	for i := range c.Models {
		spec := &c.Models[i]
		if spec.Name == "" {
			return errors.NewConfigurationError("", "name",
				fmt.Sprintf("model %d has no name", i))
		}
		if seen[spec.Name] {
			return errors.NewConfigurationError(spec.Name, "name", "duplicate model name")
		}
		seen[spec.Name] = true
		if err := spec.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *ResamplingConfig) validate() error {
	if r.Folds < 2 {
		return errors.NewConfigurationError("", "resampling.folds", "must be at least 2")
	}
	if r.Repeats < 1 {
		return errors.NewConfigurationError("", "resampling.repeats", "must be at least 1")
	}
	if r.Scoring != "accuracy" && r.Scoring != "roc_auc" {
		return errors.NewConfigurationError("", "resampling.scoring",
			fmt.Sprintf("unknown scoring %q", r.Scoring))
	}
	return nil
}

// validate checks the spec and dry-builds every grid combination, so that
// unknown algorithms, empty grids, and malformed hyperparameters surface
// before any data is split or fit.
func (s *ModelSpec) validate() error {
	if _, ok := algorithms[s.Algorithm]; !ok {
		return errors.NewConfigurationError(s.Name, "algorithm",
			fmt.Sprintf("unknown algorithm %q", s.Algorithm))
	}
	switch s.Scaler {
	case "", "standard", "minmax", "none":
	default:
		return errors.NewConfigurationError(s.Name, "scaler",
			fmt.Sprintf("unknown scaler %q", s.Scaler))
	}

	combos := ExpandGrid(s.Grid)
	if len(combos) == 0 {
		return errors.NewConfigurationError(s.Name, "grid", "hyperparameter grid is empty")
	}
	for _, combo := range combos {
		if _, err := newClassifier(s.Name, s.Algorithm, combo, 0); err != nil {
			return err
		}
	}
	return nil
}
