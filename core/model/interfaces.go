package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for trainable estimators.
type Fitter interface {
	// Fit trains the estimator on X (n_samples x n_features) and y
	// (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for estimators that predict labels.
type Predictor interface {
	// Predict returns an (n_samples x 1) matrix of predicted class labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is the capability every model family in the harness satisfies.
// Logistic regression, random forest, gradient boosting and the neural
// network all present this single interface so the split/tune/train/evaluate
// loop stays model-agnostic.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns an (n_samples x n_classes) matrix of class
	// probability estimates, columns ordered by the sorted class labels.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting, sorted.
	Classes() []int
}

// ParameterGetter is the interface for estimators exposing hyperparameters.
type ParameterGetter interface {
	// GetParams returns the estimator's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for estimators accepting hyperparameters,
// used by grid search to configure candidates.
type ParameterSetter interface {
	// SetParams sets the estimator's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// TunableClassifier is a classifier whose hyperparameters a grid search can
// read and write.
type TunableClassifier interface {
	Classifier
	ParameterGetter
	ParameterSetter
}

// Transformer is the interface for feature transformations such as the
// one-hot encoder and the standard scaler.
type Transformer interface {
	// Transform applies the fitted transformation.
	Transform(X mat.Matrix) (mat.Matrix, error)
}
