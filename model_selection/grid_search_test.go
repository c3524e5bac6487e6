package modelselection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/clinbench/clinbench/core/model"
	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

// stubClassifier scores samples as weight * x0, so a positive weight ranks the
// high-x0 (positive) rows of sequentialData on top and a negative weight
// inverts the ranking.
type stubClassifier struct {
	weight float64
	fail   bool
	fitted bool
}

func (s *stubClassifier) Fit(X, y mat.Matrix) error {
	if s.fail {
		return cerrors.New("stub fit failure")
	}
	s.fitted = true
	return nil
}

func (s *stubClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := s.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if probas.At(i, 1) >= 0 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

func (s *stubClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !s.fitted {
		return nil, cerrors.NewNotFittedError("stubClassifier", "PredictProba")
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		score := s.weight * X.At(i, 0)
		out.Set(i, 0, -score)
		out.Set(i, 1, score)
	}
	return out, nil
}

func (s *stubClassifier) Classes() []int { return []int{0, 1} }

func (s *stubClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"weight": s.weight, "fail": s.fail}
}

func (s *stubClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "weight":
			v, err := model.ParamFloat("weight", value)
			if err != nil {
				return err
			}
			s.weight = v
		case "fail":
			v, err := model.ParamBool("fail", value)
			if err != nil {
				return err
			}
			s.fail = v
		default:
			return cerrors.NewValueError("stubClassifier.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}

func newStubFactory() func() model.TunableClassifier {
	return func() model.TunableClassifier { return &stubClassifier{weight: 1} }
}

func TestParamGrid_Candidates(t *testing.T) {
	grid := ParamGrid{
		"b": []interface{}{1, 2},
		"a": []interface{}{"x", "y", "z"},
	}
	candidates := grid.Candidates()
	require.Len(t, candidates, 6)

	// Sorted names: "a" varies slowest, "b" fastest.
	assert.Equal(t, map[string]interface{}{"a": "x", "b": 1}, candidates[0])
	assert.Equal(t, map[string]interface{}{"a": "x", "b": 2}, candidates[1])
	assert.Equal(t, map[string]interface{}{"a": "z", "b": 2}, candidates[5])
}

func TestParamGrid_SingleCandidate(t *testing.T) {
	grid := ParamGrid{"weight": []interface{}{0.5}}
	candidates := grid.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, 0.5, candidates[0]["weight"])
}

func TestGridSearchCV_SelectsBestCandidate(t *testing.T) {
	X, y := sequentialData(40)
	gs := &GridSearchCV{
		New:       newStubFactory(),
		Grid:      ParamGrid{"weight": []interface{}{-1.0, 1.0}},
		CV:        NewKFold(4, true, 42),
		ModelName: "stub",
	}
	require.NoError(t, gs.Fit(X, y))

	assert.Equal(t, 1.0, gs.BestParams["weight"])
	assert.InDelta(t, 1.0, gs.BestScore, 1e-9, "positive weight ranks perfectly")
	require.Len(t, gs.Trials, 2)
	assert.InDelta(t, 0.0, gs.Trials[0].MeanScore, 1e-9)
}

func TestGridSearchCV_TieGoesToFirstCandidate(t *testing.T) {
	X, y := sequentialData(40)
	// Both weights induce the same ranking, so both score identically.
	gs := &GridSearchCV{
		New:       newStubFactory(),
		Grid:      ParamGrid{"weight": []interface{}{1.0, 2.0}},
		CV:        NewKFold(4, true, 1),
		ModelName: "stub",
	}
	require.NoError(t, gs.Fit(X, y))
	assert.Equal(t, 1.0, gs.BestParams["weight"])
}

func TestGridSearchCV_FailedCandidateIsolated(t *testing.T) {
	X, y := sequentialData(40)
	gs := &GridSearchCV{
		New: newStubFactory(),
		Grid: ParamGrid{
			"weight": []interface{}{1.0},
			"fail":   []interface{}{true, false},
		},
		CV:        NewKFold(4, true, 42),
		ModelName: "stub",
	}
	require.NoError(t, gs.Fit(X, y))

	require.Len(t, gs.Trials, 2)
	assert.True(t, gs.Trials[0].Failed())
	var fe *cerrors.FitError
	assert.True(t, cerrors.As(gs.Trials[0].Err, &fe))
	assert.False(t, gs.Trials[1].Failed())
	assert.Equal(t, false, gs.BestParams["fail"])
}

func TestGridSearchCV_AllTrialsFailed(t *testing.T) {
	X, y := sequentialData(20)
	gs := &GridSearchCV{
		New:       newStubFactory(),
		Grid:      ParamGrid{"fail": []interface{}{true}},
		CV:        NewKFold(2, false, 0),
		ModelName: "stub",
	}
	err := gs.Fit(X, y)
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, cerrors.ErrAllTrialsFailed))
}

func TestGridSearchCV_EmptyGrid(t *testing.T) {
	X, y := sequentialData(20)
	gs := &GridSearchCV{
		New:       newStubFactory(),
		Grid:      ParamGrid{},
		CV:        NewKFold(2, false, 0),
		ModelName: "stub",
	}
	err := gs.Fit(X, y)
	require.Error(t, err)
	var ce *cerrors.ConfigurationError
	assert.True(t, cerrors.As(err, &ce))
}
