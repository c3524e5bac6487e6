package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Input = "cohort.csv"
	cfg.Outcome = "status"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing input", func(c *Config) { c.Input = "" }, "input"},
		{"missing outcome", func(c *Config) { c.Outcome = "" }, "outcome"},
		{"threshold too high", func(c *Config) { c.MissingThreshold = 1.2 }, "missing_threshold"},
		{"threshold negative", func(c *Config) { c.MissingThreshold = -0.1 }, "missing_threshold"},
		{"fraction zero", func(c *Config) { c.TestFraction = 0 }, "test_fraction"},
		{"fraction one", func(c *Config) { c.TestFraction = 1 }, "test_fraction"},
		{"tuning with one fold", func(c *Config) { c.CVFolds = 1 }, "cv_folds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce *cerrors.ConfigurationError
			require.True(t, cerrors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestConfig_TuningDisabledSkipsFoldCheck(t *testing.T) {
	cfg := validConfig()
	cfg.Tune = false
	cfg.CVFolds = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	raw := `
input: data/heart.csv
outcome: target
index_column: patient_id
missing_threshold: 0.4
drop_columns: [notes]
test_fraction: 0.2
seed: 7
cv_folds: 4
grids:
  logistic_regression:
    C: [0.1, 1.0]
`
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "data/heart.csv", cfg.Input)
	assert.Equal(t, "target", cfg.Outcome)
	assert.Equal(t, "patient_id", cfg.IndexColumn)
	assert.Equal(t, 0.4, cfg.MissingThreshold)
	assert.Equal(t, []string{"notes"}, cfg.DropColumns)
	assert.Equal(t, 0.2, cfg.TestFraction)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 4, cfg.CVFolds)
	assert.True(t, cfg.Tune, "defaults survive a partial file")

	grid, ok := cfg.Grids[ModelLogisticRegression]
	require.True(t, ok)
	assert.Len(t, grid["C"], 2)
}

func TestLoadConfig_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: x\noutcome: y\ntest_fraction: 2.0\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
