package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/clinbench/clinbench/pkg/errors"
)

const sampleCSV = `id,age,smoking,status
1,63,never,case
2,58,current,control
3,NA,former,case
4,71,never,control
5,49,,case
`

func loadSample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := LoadReader(strings.NewReader(sampleCSV), "status", WithIndexColumn("id"))
	require.NoError(t, err)
	return ds
}

func TestLoadReader_DropsIndexColumn(t *testing.T) {
	ds := loadSample(t)

	assert.Equal(t, []string{"age", "smoking", "status"}, ds.Columns)
	assert.Equal(t, 5, ds.NumRows())

	_, ok := ds.ColumnIndex("id")
	assert.False(t, ok, "index column should be discarded on load")
}

func TestLoadReader_InfersColumnKinds(t *testing.T) {
	ds := loadSample(t)

	ageKind, err := ds.Kind("age")
	require.NoError(t, err)
	assert.Equal(t, KindContinuous, ageKind, "age parses as float in every observed cell")

	smokingKind, err := ds.Kind("smoking")
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, smokingKind)

	statusKind, err := ds.Kind("status")
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, statusKind)
}

func TestLoadReader_MissingOutcomeColumn(t *testing.T) {
	_, err := LoadReader(strings.NewReader(sampleCSV), "outcome")
	require.Error(t, err)

	var cfgErr *cerrors.ConfigurationError
	assert.True(t, cerrors.As(err, &cfgErr))
}

func TestLoadReader_RaggedRow(t *testing.T) {
	csv := "a,b,y\n1,2,case\n1,control\n"
	_, err := LoadReader(strings.NewReader(csv), "y")
	require.Error(t, err)

	var intErr *cerrors.DataIntegrityError
	require.True(t, cerrors.As(err, &intErr))
	assert.Equal(t, "load", intErr.Stage)
}

func TestMissingReport(t *testing.T) {
	ds := loadSample(t)

	report := ds.MissingReport()
	byName := make(map[string]ColumnMissingness, len(report))
	for _, cm := range report {
		byName[cm.Name] = cm
	}

	assert.Equal(t, 1, byName["age"].Count)
	assert.InDelta(t, 0.2, byName["age"].Fraction, 1e-12)
	assert.Equal(t, 1, byName["smoking"].Count)
	assert.Equal(t, 0, byName["status"].Count)
}

func TestLevels_SortedAndExcludesMissing(t *testing.T) {
	ds := loadSample(t)

	levels, err := ds.Levels("smoking")
	require.NoError(t, err)
	assert.Equal(t, []string{"current", "former", "never"}, levels)
}

func TestNew_DuplicateColumn(t *testing.T) {
	_, err := New([]string{"a", "a", "y"}, nil, "y", nil)
	require.Error(t, err)

	var cfgErr *cerrors.ConfigurationError
	assert.True(t, cerrors.As(err, &cfgErr))
}
