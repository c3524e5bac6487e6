package modelselection

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/metrics"
	"github.com/clinbench/clinbench/pkg/errors"
	"github.com/clinbench/clinbench/pkg/log"
)

// ParamGrid maps a hyperparameter name to its candidate values.
type ParamGrid map[string][]interface{}

// Candidates expands the grid into its Cartesian product. The order is
// deterministic: parameter names are sorted, values stay in declared order,
// and the last-sorted parameter varies fastest.
func (g ParamGrid) Candidates() []map[string]interface{} {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	candidates := []map[string]interface{}{{}}
	for _, name := range names {
		values := g[name]
		next := make([]map[string]interface{}, 0, len(candidates)*len(values))
		for _, base := range candidates {
			for _, v := range values {
				c := make(map[string]interface{}, len(base)+1)
				for k, bv := range base {
					c[k] = bv
				}
				c[name] = v
				next = append(next, c)
			}
		}
		candidates = next
	}
	return candidates
}

// Trial records the outcome of one grid-search candidate.
type Trial struct {
	Params     map[string]interface{}
	FoldScores []float64
	MeanScore  float64
	Err        error
}

// Failed reports whether the candidate was excluded from selection.
func (t *Trial) Failed() bool { return t.Err != nil }

// GridSearchCV selects hyperparameters by k-fold cross-validated ROC-AUC.
// It only ever sees the training partition; the held-out test rows stay
// untouched until final evaluation.
type GridSearchCV struct {
	// New constructs a fresh estimator for each candidate and fold.
	New func() model.TunableClassifier
	// Grid is the candidate space. It must not be empty.
	Grid ParamGrid
	// CV is the fold splitter applied to the training partition.
	CV *KFold
	// ModelName labels log entries and fit errors.
	ModelName string

	// Results populated by Fit.
	BestParams map[string]interface{}
	BestScore  float64
	Trials     []Trial
}

// Fit evaluates every candidate and records the best. A candidate whose fit
// fails on any fold is logged and excluded; Fit returns an error only when
// the grid is invalid or every candidate failed.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if len(gs.Grid) == 0 {
		return errors.NewConfigurationError("grid", "parameter grid is empty", nil)
	}
	for name, values := range gs.Grid {
		if len(values) == 0 {
			return errors.NewConfigurationError("grid", "no values for parameter "+name, nil)
		}
	}
	if gs.CV == nil {
		return errors.NewConfigurationError("cv", "fold splitter is required", nil)
	}

	folds, err := gs.CV.Split(X)
	if err != nil {
		return err
	}

	candidates := gs.Grid.Candidates()
	gs.Trials = make([]Trial, 0, len(candidates))
	gs.BestParams = nil
	gs.BestScore = 0

	for ci, params := range candidates {
		trial := gs.runTrial(X, y, folds, params)
		gs.Trials = append(gs.Trials, trial)

		if trial.Failed() {
			slog.Warn("grid search candidate failed",
				slog.String(log.ModelNameKey, gs.ModelName),
				slog.Int(log.CandidateKey, ci),
				log.ErrAttr(trial.Err))
			continue
		}

		slog.Debug("grid search candidate scored",
			slog.String(log.ModelNameKey, gs.ModelName),
			slog.Int(log.CandidateKey, ci),
			slog.Float64(log.CVScoreKey, trial.MeanScore))

		// Strictly greater, so ties go to the earliest candidate.
		if gs.BestParams == nil || trial.MeanScore > gs.BestScore {
			gs.BestParams = trial.Params
			gs.BestScore = trial.MeanScore
		}
	}

	if gs.BestParams == nil {
		return errors.Wrap(errors.ErrAllTrialsFailed, gs.ModelName)
	}
	return nil
}

// runTrial scores one candidate across all folds.
func (gs *GridSearchCV) runTrial(X, y mat.Matrix, folds []Fold, params map[string]interface{}) Trial {
	trial := Trial{Params: params, FoldScores: make([]float64, 0, len(folds))}

	for _, fold := range folds {
		score, err := gs.scoreFold(X, y, fold, params)
		if err != nil {
			trial.Err = errors.NewFitError(gs.ModelName, params, err)
			trial.FoldScores = nil
			trial.MeanScore = 0
			return trial
		}
		trial.FoldScores = append(trial.FoldScores, score)
	}

	sum := 0.0
	for _, s := range trial.FoldScores {
		sum += s
	}
	trial.MeanScore = sum / float64(len(trial.FoldScores))
	return trial
}

// scoreFold fits a fresh estimator on the fold's train rows and computes
// ROC-AUC on its validation rows.
func (gs *GridSearchCV) scoreFold(X, y mat.Matrix, fold Fold, params map[string]interface{}) (float64, error) {
	est := gs.New()
	if err := est.SetParams(params); err != nil {
		return 0, err
	}

	if err := est.Fit(takeRows(X, fold.TrainIndices), takeRows(y, fold.TrainIndices)); err != nil {
		return 0, err
	}

	probas, err := est.PredictProba(takeRows(X, fold.TestIndices))
	if err != nil {
		return 0, err
	}

	n := len(fold.TestIndices)
	yTrue := mat.NewVecDense(n, nil)
	yScore := mat.NewVecDense(n, nil)
	for i, src := range fold.TestIndices {
		yTrue.SetVec(i, y.At(src, 0))
		yScore.SetVec(i, probas.At(i, 1))
	}
	return metrics.ROCAUC(yTrue, yScore)
}
