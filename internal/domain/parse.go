package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing visited_date.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// missingMarkers are cell values read as missing in text columns. The CSV
// loader renders absent cells as "NaN".
var missingMarkers = map[string]bool{
	"NaN": true, "nan": true, "NA": true, "N/A": true, "#N/A": true,
	"null": true, "NULL": true, "None": true,
}

// ParseText trims a text cell, returning "" for missing markers.
func ParseText(s string) string {
	s = strings.TrimSpace(s)
	if missingMarkers[s] {
		return ""
	}
	return s
}

// ParseNumber coerces a cell to a finite number. Empty, NaN, infinite and
// unparsable cells return nil rather than an error.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseDate coerces a cell to a date in UTC. Unparsable cells return the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// RawVisit holds the string cells of one CSV row, keyed by column.
type RawVisit struct {
	Months     string
	RegionCode string
	DaysStayed string
	VisitDate  string
	RegionName string
}

// DecodeVisit coerces a raw row into a Visit and assigns its bucket.
func DecodeVisit(raw RawVisit) Visit {
	months := ParseNumber(raw.Months)
	return Visit{
		RegionCode: ParseText(raw.RegionCode),
		RegionName: ParseText(raw.RegionName),
		VisitDate:  ParseDate(raw.VisitDate),
		Months:     months,
		DaysStayed: ParseNumber(raw.DaysStayed),
		Bucket:     BucketFor(months),
	}
}
