package dataset

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/clinbench/clinbench/pkg/errors"
)

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	indexColumn string
	naMarkers   []string
	comma       rune
}

// WithIndexColumn names a reserved row-index column to discard on load.
func WithIndexColumn(name string) LoadOption {
	return func(c *loadConfig) { c.indexColumn = name }
}

// WithNAMarkers overrides the default missing-value markers.
func WithNAMarkers(markers []string) LoadOption {
	return func(c *loadConfig) { c.naMarkers = markers }
}

// WithComma sets the field delimiter. Default is ','.
func WithComma(r rune) LoadOption {
	return func(c *loadConfig) { c.comma = r }
}

// Load reads a delimited file with a header row into a Dataset. The outcome
// column must exist; the configured index column, if present, is dropped.
// Loading errors are fatal, there are no silent defaults.
func Load(path, outcome string, opts ...LoadOption) (*Dataset, error) {
	cfg := loadConfig{comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %s", path)
	}
	defer f.Close()

	return load(f, outcome, cfg)
}

// LoadReader is Load over an arbitrary reader, used by tests.
func LoadReader(r io.Reader, outcome string, opts ...LoadOption) (*Dataset, error) {
	cfg := loadConfig{comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}
	return load(r, outcome, cfg)
}

func load(r io.Reader, outcome string, cfg loadConfig) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	// Width is validated against the header below so the offending row
	// number can be reported.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading delimited input")
	}
	if len(records) == 0 {
		return nil, errors.NewDataIntegrityError("load", "", -1, "input has no header row")
	}

	header := records[0]
	body := records[1:]

	dropIdx := -1
	if cfg.indexColumn != "" {
		for j, name := range header {
			if name == cfg.indexColumn {
				dropIdx = j
				break
			}
		}
	}

	columns := make([]string, 0, len(header))
	for j, name := range header {
		if j == dropIdx {
			continue
		}
		columns = append(columns, name)
	}

	rows := make([][]string, 0, len(body))
	for i, rec := range body {
		if len(rec) != len(header) {
			return nil, errors.NewDataIntegrityError("load", "", i, "row width does not match header")
		}
		row := make([]string, 0, len(columns))
		for j, cell := range rec {
			if j == dropIdx {
				continue
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	return New(columns, rows, outcome, cfg.naMarkers)
}
