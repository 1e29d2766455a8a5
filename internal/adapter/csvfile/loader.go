// Package csvfile loads visit CSV files into a gota DataFrame and decodes
// typed visit records from it.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// ErrInputNotFound is returned by Load when the CSV path does not exist.
var ErrInputNotFound = errors.New("input file not found")

// Table is a loaded CSV with whitespace-trimmed column names. Every column is
// kept as strings; coercion happens in Decode.
type Table struct {
	df   dataframe.DataFrame
	path string
}

// Load opens and reads the CSV at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.path = path
	return t, nil
}

// Reader loads and decodes visit files for the pipeline.
type Reader struct{}

// ReadVisits loads path and decodes it against schema.
func (Reader) ReadVisits(_ context.Context, path string, schema domain.Schema) ([]domain.Visit, domain.DecodeStats, error) {
	t, err := Load(path)
	if err != nil {
		return nil, domain.DecodeStats{}, err
	}
	visits, stats, err := t.Decode(schema)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return visits, stats, nil
}

// Read parses CSV content from r. Column names are trimmed of surrounding
// whitespace and a leading byte order mark. A file holding only a header
// yields a table with zero rows.
func Read(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("read csv: no header row")
	}

	header := records[0]
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}

	if len(records) == 1 {
		return headerOnly(header)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	return &Table{df: df}, nil
}

// headerOnly builds a zero-row table, which gota's loaders reject.
func headerOnly(header []string) (*Table, error) {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	return &Table{df: df}, nil
}

// Path returns the file the table was loaded from, if any.
func (t *Table) Path() string { return t.path }

// Columns returns the trimmed column names in file order.
func (t *Table) Columns() []string { return t.df.Names() }

// Rows returns the number of data rows.
func (t *Table) Rows() int { return t.df.Nrow() }

// Decode checks that every column in schema is present and converts each row
// into a domain.Visit. Columns outside the schema are read when present and
// left blank otherwise. A missing required column fails the whole decode with
// a *domain.MissingColumnsError.
func (t *Table) Decode(schema domain.Schema) ([]domain.Visit, domain.DecodeStats, error) {
	if err := domain.CheckColumns(t.Columns(), schema); err != nil {
		return nil, domain.DecodeStats{}, err
	}

	n := t.Rows()
	months := t.column(domain.ColumnMonths, n)
	codes := t.column(domain.ColumnRegionCode, n)
	days := t.column(domain.ColumnDaysStayed, n)
	dates := t.column(domain.ColumnVisitDate, n)
	names := t.column(domain.ColumnRegionName, n)

	stats := domain.DecodeStats{Rows: n}
	visits := make([]domain.Visit, n)
	for i := range n {
		v := domain.DecodeVisit(domain.RawVisit{
			Months:     months[i],
			RegionCode: codes[i],
			DaysStayed: days[i],
			VisitDate:  dates[i],
			RegionName: names[i],
		})
		if v.Months == nil {
			stats.MissingMonths++
		}
		if v.DaysStayed == nil {
			stats.MissingDays++
		}
		if !v.HasDate() {
			stats.MissingDates++
		}
		visits[i] = v
	}
	return visits, stats, nil
}

// column returns the string cells of name, or n empty strings when the column
// is absent. gota renders missing string cells as "NaN", which the domain
// parsers already treat as missing.
func (t *Table) column(name string, n int) []string {
	for _, c := range t.df.Names() {
		if c == name {
			return t.df.Col(name).Records()
		}
	}
	return make([]string, n)
}
