package bench

import (
	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/ensemble"
	"github.com/clinbench/clinbench/linear"
	modelselection "github.com/clinbench/clinbench/model_selection"
	"github.com/clinbench/clinbench/neural"
)

// Model names used in configs, logs and the report.
const (
	ModelLogisticRegression = "logistic_regression"
	ModelRandomForest       = "random_forest"
	ModelGradientBoosting   = "gradient_boosting"
	ModelNeuralNetwork      = "neural_network"
)

// ModelSpec registers one model family with the runner.
type ModelSpec struct {
	// Name identifies the family in configs, logs and the report.
	Name string
	// New builds a fresh estimator seeded for reproducibility.
	New func(seed int64) model.TunableClassifier
	// Grid is the default hyperparameter search space.
	Grid modelselection.ParamGrid
	// Scale standardizes features before fitting. The network needs it;
	// the tree models are scale-invariant and skip the pass.
	Scale bool
}

// DefaultSpecs returns the four benchmark model families with their default
// grids. Grids are intentionally small; a config file can override them.
func DefaultSpecs() []ModelSpec {
	return []ModelSpec{
		{
			Name: ModelLogisticRegression,
			New: func(seed int64) model.TunableClassifier {
				return linear.NewLogisticRegression(
					linear.WithLRMaxIter(300),
					linear.WithLRRandomState(seed),
				)
			},
			Grid: modelselection.ParamGrid{
				"C": []interface{}{0.1, 1.0, 10.0},
			},
			Scale: true,
		},
		{
			Name: ModelRandomForest,
			New: func(seed int64) model.TunableClassifier {
				return ensemble.NewRandomForestClassifier(
					ensemble.WithForestNEstimators(100),
					ensemble.WithForestRandomState(seed),
				)
			},
			Grid: modelselection.ParamGrid{
				"n_estimators": []interface{}{50, 100},
				"max_depth":    []interface{}{4, 8},
			},
		},
		{
			Name: ModelGradientBoosting,
			New: func(seed int64) model.TunableClassifier {
				return ensemble.NewGradientBoostingClassifier(
					ensemble.WithGBRandomState(seed),
				)
			},
			Grid: modelselection.ParamGrid{
				"n_estimators":  []interface{}{50, 100},
				"learning_rate": []interface{}{0.05, 0.1},
			},
		},
		{
			Name: ModelNeuralNetwork,
			New: func(seed int64) model.TunableClassifier {
				return neural.NewMLPClassifier(
					neural.WithMLPMaxIter(300),
					neural.WithMLPRandomState(seed),
				)
			},
			Grid: modelselection.ParamGrid{
				"hidden_units":  []interface{}{8, 16},
				"learning_rate": []interface{}{0.05, 0.1},
			},
			Scale: true,
		},
	}
}
