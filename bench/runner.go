package bench

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	"github.com/clinbench/clinbench/dataset"
	"github.com/clinbench/clinbench/metrics"
	modelselection "github.com/clinbench/clinbench/model_selection"
	"github.com/clinbench/clinbench/pkg/errors"
	"github.com/clinbench/clinbench/pkg/log"
	"github.com/clinbench/clinbench/preprocessing"
)

// Runner executes the benchmark pipeline: load, filter, encode, split once,
// then tune/train/evaluate every registered model on that same split.
type Runner struct {
	cfg   Config
	specs []ModelSpec
}

// NewRunner creates a Runner. Pass DefaultSpecs() unless a test substitutes
// its own registry.
func NewRunner(cfg Config, specs []ModelSpec) *Runner {
	return &Runner{cfg: cfg, specs: specs}
}

// Run executes the pipeline. Pipeline-stage errors (loading, filtering,
// encoding, splitting) are fatal; a model failure is recorded on its result
// and the remaining models still run.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := slog.With(slog.String(log.RunIDKey, runID))

	var loadOpts []dataset.LoadOption
	if r.cfg.IndexColumn != "" {
		loadOpts = append(loadOpts, dataset.WithIndexColumn(r.cfg.IndexColumn))
	}
	ds, err := dataset.Load(r.cfg.Input, r.cfg.Outcome, loadOpts...)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		slog.String(log.StageKey, "load"),
		slog.Int(log.SamplesKey, ds.NumRows()),
		slog.Int(log.FeaturesKey, ds.NumColumns()-1))

	filtered, filterReport, err := dataset.FilterMissing(ds, r.cfg.MissingThreshold, r.cfg.DropColumns)
	if err != nil {
		return nil, err
	}
	logger.Info("missing data filtered",
		slog.String(log.StageKey, "filter"),
		slog.Int(log.ColumnsDroppedKey, len(filterReport.ColumnsDropped)),
		slog.Int(log.RowsDroppedKey, filterReport.RowsDropped),
		slog.Int(log.SamplesKey, filterReport.RowsKept))

	encoder := preprocessing.NewOneHotEncoder()
	X, err := encoder.FitTransform(filtered)
	if err != nil {
		return nil, err
	}

	outcomeValues, err := filtered.Column(r.cfg.Outcome)
	if err != nil {
		return nil, err
	}
	binarizer := preprocessing.NewLabelBinarizer()
	y, err := binarizer.FitTransform(outcomeValues)
	if err != nil {
		return nil, err
	}
	_, nFeatures := X.Dims()
	logger.Info("features encoded",
		slog.String(log.StageKey, "encode"),
		slog.Int(log.FeaturesKey, nFeatures))

	split, err := modelselection.TrainTestSplit(X, y, r.cfg.TestFraction, r.cfg.Seed)
	if err != nil {
		return nil, err
	}
	logger.Info("data split",
		slog.String(log.StageKey, "split"),
		slog.Int("train_size", len(split.TrainIndices)),
		slog.Int("test_size", len(split.TestIndices)))

	results := &Results{
		RunID:        runID,
		Filter:       filterReport,
		FeatureNames: encoder.FeatureNames(),
		ClassNames:   binarizer.Classes(),
		TrainSize:    len(split.TrainIndices),
		TestSize:     len(split.TestIndices),
	}

	for _, spec := range r.specs {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "run cancelled")
		}
		results.Models = append(results.Models, r.runModel(logger, spec, split))
	}

	return results, nil
}

// runModel takes one model family through tune, train and evaluate. Any
// failure is terminal for this model only.
func (r *Runner) runModel(logger *slog.Logger, spec ModelSpec, split *modelselection.Split) *ModelResult {
	start := time.Now()
	mlog := logger.With(slog.String(log.ModelNameKey, spec.Name))
	result := &ModelResult{Name: spec.Name, State: StateUntrained}

	fail := func(err error) *ModelResult {
		result.State = StateFailed
		result.Err = err
		result.Duration = time.Since(start)
		mlog.Error("model failed", log.ErrAttr(err))
		return result
	}

	XTrain, XTest := mat.Matrix(split.XTrain), mat.Matrix(split.XTest)
	if spec.Scale {
		scaler := preprocessing.NewStandardScaler()
		scaled, err := scaler.FitTransform(XTrain)
		if err != nil {
			return fail(err)
		}
		XTrain = scaled
		if XTest, err = scaler.Transform(XTest); err != nil {
			return fail(err)
		}
	}

	grid := spec.Grid
	if override, ok := r.cfg.Grids[spec.Name]; ok {
		grid = override
	}

	if r.cfg.Tune && len(grid) > 0 {
		result.State = StateTuning
		mlog.Info("tuning", slog.String(log.StageKey, "tune"))

		gs := &modelselection.GridSearchCV{
			New:       func() model.TunableClassifier { return spec.New(r.cfg.Seed) },
			Grid:      grid,
			CV:        modelselection.NewKFold(r.cfg.CVFolds, true, r.cfg.Seed),
			ModelName: spec.Name,
		}
		if err := gs.Fit(XTrain, split.YTrain); err != nil {
			return fail(err)
		}
		result.BestParams = gs.BestParams
		result.CVScore = gs.BestScore
		mlog.Info("tuning finished",
			slog.String(log.StageKey, "tune"),
			slog.Float64(log.CVScoreKey, gs.BestScore))
	}

	estimator := spec.New(r.cfg.Seed)
	if result.BestParams != nil {
		if err := estimator.SetParams(result.BestParams); err != nil {
			return fail(err)
		}
	}

	mlog.Info("training", slog.String(log.StageKey, "train"))
	if err := estimator.Fit(XTrain, split.YTrain); err != nil {
		return fail(errors.NewFitError(spec.Name, result.BestParams, err))
	}
	result.State = StateTrained

	probas, err := estimator.PredictProba(XTest)
	if err != nil {
		return fail(err)
	}
	predicted, err := estimator.Predict(XTest)
	if err != nil {
		return fail(err)
	}

	nTest := len(split.TestIndices)
	yTest := mat.NewVecDense(nTest, nil)
	scores := mat.NewVecDense(nTest, nil)
	labels := mat.NewVecDense(nTest, nil)
	for i := 0; i < nTest; i++ {
		yTest.SetVec(i, split.YTest.At(i, 0))
		scores.SetVec(i, probas.At(i, 1))
		labels.SetVec(i, predicted.At(i, 0))
	}
	result.Probas = scores
	result.Labels = labels

	if result.AUC, err = metrics.ROCAUC(yTest, scores); err != nil {
		return fail(err)
	}
	if result.Accuracy, err = metrics.Accuracy(yTest, labels); err != nil {
		return fail(err)
	}
	if result.Confusion, err = metrics.NewConfusionMatrix(yTest, labels); err != nil {
		return fail(err)
	}
	if result.Report, err = metrics.ClassificationReport(yTest, labels); err != nil {
		return fail(err)
	}

	result.State = StateEvaluated
	result.Duration = time.Since(start)
	mlog.Info("model evaluated",
		slog.String(log.StageKey, "evaluate"),
		slog.Float64(log.AUCKey, result.AUC),
		slog.Float64(log.AccuracyKey, result.Accuracy),
		slog.Int64(log.DurationMsKey, result.Duration.Milliseconds()))
	return result
}
