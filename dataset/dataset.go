// Package dataset loads delimited clinical tables and filters missing data.
//
// A Dataset keeps raw string cells together with an inferred per-column
// schema (continuous vs categorical). Encoding to a numeric feature matrix is
// the preprocessing package's job; nothing here mutates a Dataset after
// construction.
package dataset

import (
	"sort"
	"strconv"

	"github.com/clinbench/clinbench/pkg/errors"
)

// ColumnKind classifies a column as continuous or categorical.
type ColumnKind int

const (
	// KindContinuous marks a column whose non-missing cells all parse as
	// float64.
	KindContinuous ColumnKind = iota
	// KindCategorical marks a column with a finite unordered set of string
	// levels.
	KindCategorical
)

func (k ColumnKind) String() string {
	if k == KindContinuous {
		return "continuous"
	}
	return "categorical"
}

// DefaultNAMarkers are the cell values treated as missing.
var DefaultNAMarkers = []string{"", "NA", "NaN", "N/A"}

// Dataset is an ordered collection of records sharing a schema. Rows hold raw
// string cells; missing values are recognized by the marker set the Dataset
// was loaded with.
type Dataset struct {
	Columns []string
	Kinds   []ColumnKind
	Rows    [][]string
	Outcome string

	naMarkers map[string]struct{}
}

// New constructs a Dataset from pre-parsed cells, inferring column kinds.
// The outcome column must be present. Used by the loader and by tests that
// build tables in memory.
func New(columns []string, rows [][]string, outcome string, naMarkers []string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.NewConfigurationError("columns", "dataset has no columns", nil)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, errors.NewConfigurationError("columns", "duplicate column name", c)
		}
		seen[c] = struct{}{}
	}
	if _, ok := seen[outcome]; !ok {
		return nil, errors.NewConfigurationError("outcome", "outcome column not present in header", outcome)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDataIntegrityError("load", "", i, "row width does not match header")
		}
	}
	if naMarkers == nil {
		naMarkers = DefaultNAMarkers
	}
	markers := make(map[string]struct{}, len(naMarkers))
	for _, m := range naMarkers {
		markers[m] = struct{}{}
	}

	ds := &Dataset{
		Columns:   columns,
		Rows:      rows,
		Outcome:   outcome,
		naMarkers: markers,
	}
	ds.Kinds = ds.inferKinds()
	return ds, nil
}

// inferKinds classifies each column: continuous iff at least one non-missing
// cell exists and all non-missing cells parse as float64.
func (ds *Dataset) inferKinds() []ColumnKind {
	kinds := make([]ColumnKind, len(ds.Columns))
	for j := range ds.Columns {
		kind := KindCategorical
		numeric := true
		observed := 0
		for i := range ds.Rows {
			cell := ds.Rows[i][j]
			if ds.IsMissing(cell) {
				continue
			}
			observed++
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric && observed > 0 {
			kind = KindContinuous
		}
		kinds[j] = kind
	}
	return kinds
}

// NumRows returns the number of records.
func (ds *Dataset) NumRows() int { return len(ds.Rows) }

// NumColumns returns the number of columns, outcome included.
func (ds *Dataset) NumColumns() int { return len(ds.Columns) }

// IsMissing reports whether a cell value is a missing-value marker.
func (ds *Dataset) IsMissing(cell string) bool {
	_, ok := ds.naMarkers[cell]
	return ok
}

// ColumnIndex returns the position of a named column.
func (ds *Dataset) ColumnIndex(name string) (int, bool) {
	for j, c := range ds.Columns {
		if c == name {
			return j, true
		}
	}
	return 0, false
}

// Column returns the cells of a named column in row order.
func (ds *Dataset) Column(name string) ([]string, error) {
	j, ok := ds.ColumnIndex(name)
	if !ok {
		return nil, errors.NewValueError("Dataset.Column", "unknown column: "+name)
	}
	out := make([]string, len(ds.Rows))
	for i := range ds.Rows {
		out[i] = ds.Rows[i][j]
	}
	return out, nil
}

// Kind returns the inferred kind of a named column.
func (ds *Dataset) Kind(name string) (ColumnKind, error) {
	j, ok := ds.ColumnIndex(name)
	if !ok {
		return 0, errors.NewValueError("Dataset.Kind", "unknown column: "+name)
	}
	return ds.Kinds[j], nil
}

// Levels returns the sorted distinct non-missing values of a categorical
// column. Lexicographic order keeps downstream encodings reproducible.
func (ds *Dataset) Levels(name string) ([]string, error) {
	col, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, v := range col {
		if ds.IsMissing(v) {
			continue
		}
		set[v] = struct{}{}
	}
	levels := make([]string, 0, len(set))
	for v := range set {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	return levels, nil
}

// ColumnMissingness reports the missing-value share of one column.
type ColumnMissingness struct {
	Name     string
	Count    int
	Fraction float64
}

// MissingReport returns per-column missingness in column order.
func (ds *Dataset) MissingReport() []ColumnMissingness {
	report := make([]ColumnMissingness, len(ds.Columns))
	n := len(ds.Rows)
	for j, name := range ds.Columns {
		count := 0
		for i := range ds.Rows {
			if ds.IsMissing(ds.Rows[i][j]) {
				count++
			}
		}
		frac := 0.0
		if n > 0 {
			frac = float64(count) / float64(n)
		}
		report[j] = ColumnMissingness{Name: name, Count: count, Fraction: frac}
	}
	return report
}
