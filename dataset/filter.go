package dataset

import (
	"log/slog"

	"github.com/clinbench/clinbench/pkg/errors"
	"github.com/clinbench/clinbench/pkg/log"
)

// FilterReport records what the missing-data filter removed.
type FilterReport struct {
	ColumnsDropped []string
	RowsDropped    int
	RowsKept       int
}

// FilterMissing applies the missing-data policy: columns listed in forceDrop
// and columns whose missing fraction exceeds threshold are removed, then any
// remaining row containing a missing value is removed. The input Dataset is
// not modified.
//
// It is a configuration error if the outcome column or every predictor column
// would be dropped, and a data-integrity error if no rows survive.
func FilterMissing(ds *Dataset, threshold float64, forceDrop []string) (*Dataset, *FilterReport, error) {
	if threshold < 0 || threshold > 1 {
		return nil, nil, errors.NewConfigurationError("missing_threshold", "must be in [0, 1]", threshold)
	}

	force := make(map[string]struct{}, len(forceDrop))
	for _, name := range forceDrop {
		if name == ds.Outcome {
			return nil, nil, errors.NewConfigurationError("drop_columns", "cannot force-drop the outcome column", name)
		}
		if _, ok := ds.ColumnIndex(name); !ok {
			return nil, nil, errors.NewConfigurationError("drop_columns", "unknown column", name)
		}
		force[name] = struct{}{}
	}

	report := &FilterReport{}
	missing := ds.MissingReport()

	keep := make([]bool, len(ds.Columns))
	kept := 0
	for j, name := range ds.Columns {
		if _, forced := force[name]; forced {
			report.ColumnsDropped = append(report.ColumnsDropped, name)
			continue
		}
		if missing[j].Fraction > threshold {
			if name == ds.Outcome {
				return nil, nil, errors.NewConfigurationError(
					"missing_threshold", "threshold would drop the outcome column", name)
			}
			report.ColumnsDropped = append(report.ColumnsDropped, name)
			continue
		}
		keep[j] = true
		kept++
	}
	// The outcome survives by construction here; require a predictor too.
	if kept < 2 {
		return nil, nil, errors.NewConfigurationError(
			"missing_threshold", "filtering removed every predictor column", threshold)
	}

	columns := make([]string, 0, kept)
	for j, name := range ds.Columns {
		if keep[j] {
			columns = append(columns, name)
		}
	}

	rows := make([][]string, 0, len(ds.Rows))
	for i := range ds.Rows {
		complete := true
		row := make([]string, 0, kept)
		for j := range ds.Columns {
			if !keep[j] {
				continue
			}
			cell := ds.Rows[i][j]
			if ds.IsMissing(cell) {
				complete = false
				break
			}
			row = append(row, cell)
		}
		if complete {
			rows = append(rows, row)
		} else {
			report.RowsDropped++
		}
	}
	report.RowsKept = len(rows)

	if len(rows) == 0 {
		return nil, nil, errors.NewDataIntegrityError("filter", "", -1, "no rows remain after dropping incomplete records")
	}

	markers := make([]string, 0, len(ds.naMarkers))
	for m := range ds.naMarkers {
		markers = append(markers, m)
	}
	filtered, err := New(columns, rows, ds.Outcome, markers)
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("missing-data filter applied",
		log.StageKey, "filter",
		log.ColumnsDroppedKey, len(report.ColumnsDropped),
		log.RowsDroppedKey, report.RowsDropped,
		log.SamplesKey, report.RowsKept,
	)
	return filtered, report, nil
}
