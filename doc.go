// Package clinbench benchmarks binary classifiers on tabular clinical data.
//
// The pipeline loads a CSV cohort, drops columns whose missing fraction
// exceeds a threshold, drops the remaining incomplete rows, one-hot encodes
// the categorical predictors and splits the rows once with a fixed seed.
// Four model families — logistic regression, random forest, gradient
// boosting and a small feed-forward network — are then tuned by k-fold grid
// search on the training partition, trained, and evaluated on the same
// held-out rows. The report states ROC-AUC, accuracy, the confusion matrix
// and a per-class classification table for every model; it never picks a
// winner.
//
// # Quick start
//
//	cfg := bench.DefaultConfig()
//	cfg.Input = "cohort.csv"
//	cfg.Outcome = "status"
//
//	runner := bench.NewRunner(cfg, bench.DefaultSpecs())
//	results, err := runner.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results.Report(os.Stdout)
//
// The same run is available from the command line:
//
//	clinbench run --config bench.yaml
//
// Every estimator follows the same contract: Fit(X, y mat.Matrix) error,
// Predict and PredictProba returning gonum matrices, functional options for
// construction and GetParams/SetParams for grid search.
package clinbench
