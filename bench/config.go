// Package bench ties the pipeline together: configuration, the model
// registry, the split/tune/train/evaluate runner and the text report.
package bench

import (
	"os"

	"gopkg.in/yaml.v3"

	modelselection "github.com/clinbench/clinbench/model_selection"
	"github.com/clinbench/clinbench/pkg/errors"
)

// Config drives one benchmark run. All fields have YAML tags so a run is
// reproducible from a single checked-in file.
type Config struct {
	// Input is the path of the CSV file to load.
	Input string `yaml:"input"`
	// Outcome names the binary outcome column.
	Outcome string `yaml:"outcome"`
	// IndexColumn names a row-identifier column to drop on load. Optional.
	IndexColumn string `yaml:"index_column"`

	// MissingThreshold drops columns whose missing fraction exceeds it.
	MissingThreshold float64 `yaml:"missing_threshold"`
	// DropColumns are removed regardless of missingness.
	DropColumns []string `yaml:"drop_columns"`

	// TestFraction is the held-out share of rows, strictly in (0, 1).
	TestFraction float64 `yaml:"test_fraction"`
	// Seed drives the split, fold shuffling and model initialization.
	Seed int64 `yaml:"seed"`

	// Tune enables grid search; CVFolds is the fold count it uses.
	Tune    bool `yaml:"tune"`
	CVFolds int  `yaml:"cv_folds"`

	// Grids overrides the per-model default grids, keyed by model name.
	Grids map[string]modelselection.ParamGrid `yaml:"grids"`
}

// DefaultConfig returns the defaults a YAML file partially overrides.
func DefaultConfig() Config {
	return Config{
		MissingThreshold: 0.3,
		TestFraction:     0.25,
		Seed:             42,
		Tune:             true,
		CVFolds:          5,
	}
}

// LoadConfig reads a YAML config file over the defaults and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration and returns a ConfigurationError naming
// the first offending field.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.NewConfigurationError("input", "path is required", c.Input)
	}
	if c.Outcome == "" {
		return errors.NewConfigurationError("outcome", "column name is required", c.Outcome)
	}
	if c.MissingThreshold < 0 || c.MissingThreshold > 1 {
		return errors.NewConfigurationError("missing_threshold",
			"must be between 0 and 1", c.MissingThreshold)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return errors.NewConfigurationError("test_fraction",
			"must be strictly between 0 and 1", c.TestFraction)
	}
	if c.Tune && c.CVFolds < 2 {
		return errors.NewConfigurationError("cv_folds",
			"tuning requires at least 2 folds", c.CVFolds)
	}
	return nil
}
