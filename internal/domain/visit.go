package domain

import (
	"strconv"
	"time"
)

// Column names expected in the visit CSV after header trimming.
const (
	ColumnMonths     = "Months"
	ColumnRegionCode = "state_abbr"
	ColumnDaysStayed = "Days_stayed"
	ColumnVisitDate  = "visited_date"
	ColumnRegionName = "State_Name"
)

// Schema is the set of columns a consumer needs from the visit table.
type Schema []string

var (
	// MapSchema covers the columns read by the map renderer.
	MapSchema = Schema{ColumnMonths, ColumnRegionCode, ColumnDaysStayed}

	// ChartSchema covers the columns read by the chart aggregates.
	ChartSchema = Schema{ColumnVisitDate, ColumnRegionName, ColumnRegionCode, ColumnDaysStayed}

	// FullSchema is the union of MapSchema and ChartSchema.
	FullSchema = MapSchema.Union(ChartSchema)
)

// Union returns the columns of s followed by any columns of other not already in s.
func (s Schema) Union(other Schema) Schema {
	seen := make(map[string]bool, len(s)+len(other))
	out := make(Schema, 0, len(s)+len(other))
	for _, c := range append(append(Schema{}, s...), other...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Visit is one decoded CSV row.
type Visit struct {
	RegionCode string
	RegionName string
	VisitDate  time.Time // zero when missing or unparsable
	Months     *float64
	DaysStayed *float64
	Bucket     Bucket
}

// HasDate reports whether the visit carries a usable date.
func (v Visit) HasDate() bool { return !v.VisitDate.IsZero() }

// Year returns the visit year. Callers check HasDate first.
func (v Visit) Year() int { return v.VisitDate.Year() }

// StayedPositive reports whether days stayed is present and greater than zero.
func (v Visit) StayedPositive() bool {
	return v.DaysStayed != nil && *v.DaysStayed > 0
}

// FormatNumber prints a float in its shortest decimal form, so 10 renders as
// "10" and 2.5 as "2.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DecodeStats counts cells that were coerced to missing while decoding.
type DecodeStats struct {
	Rows          int
	MissingMonths int
	MissingDays   int
	MissingDates  int
}
