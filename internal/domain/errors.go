package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRegions is returned when a boundary source yields no usable regions.
var ErrNoRegions = errors.New("boundary file contains no regions")

// MissingColumnsError lists every required column absent from an input table.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// CheckColumns returns a *MissingColumnsError naming each column of schema
// not present in have, or nil when all are present.
func CheckColumns(have []string, schema Schema) error {
	present := make(map[string]bool, len(have))
	for _, h := range have {
		present[h] = true
	}
	var missing []string
	for _, c := range schema {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}
