// Command validate checks a visit CSV and a boundary file before rendering:
// required columns, cell coercion and how well the two join.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input MyUSAVisit.csv \
//	  -boundary ne_110m_admin_1_states_provinces.shp
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/state-visit-map/internal/adapter/boundary"
	"github.com/couchcryptid/state-visit-map/internal/adapter/csvfile"
	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	input := flag.String("input", "", "visit CSV file")
	boundaryPath := flag.String("boundary", "", "state boundary shapefile or GeoJSON")
	codeField := flag.String("code-field", "iso_3166_2", "boundary attribute holding the region code")
	nameField := flag.String("name-field", "name", "boundary attribute holding the region name")
	prefix := flag.String("code-prefix", "US-", "prefix removed from boundary codes")
	strict := flag.Bool("strict", false, "fail when any cell is coerced to missing")
	flag.Parse()

	if *input == "" || *boundaryPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	opts := boundary.Options{CodeField: *codeField, NameField: *nameField, CodePrefix: *prefix}
	if code := run(*input, *boundaryPath, opts, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(input, boundaryPath string, opts boundary.Options, strict bool) int {
	fmt.Println("=== State Visit Data Validation ===")
	fmt.Println()

	table, err := csvfile.Load(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load visits: %v\n", err)
		return 1
	}
	regions, err := boundary.ReadFile(boundaryPath, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load boundaries: %v\n", err)
		return 1
	}

	schema := validateSchema(table)
	phases := []*phase{schema}
	var visits []domain.Visit
	if schema.passed() {
		var coercion *phase
		visits, coercion = validateCoercion(table, strict)
		phases = append(phases, coercion, validateCoverage(regions, visits))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d visit rows, %d boundary regions\n", table.Rows(), len(regions))

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Printf("  note: %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Schema ──
// Every column either renderer reads must be present.

func validateSchema(table *csvfile.Table) *phase {
	p := &phase{name: "Phase 1: Schema (required columns)"}
	checks := []struct {
		consumer string
		schema   domain.Schema
	}{
		{"map", domain.MapSchema},
		{"charts", domain.ChartSchema},
	}
	for _, c := range checks {
		err := domain.CheckColumns(table.Columns(), c.schema)
		var missing *domain.MissingColumnsError
		if errors.As(err, &missing) {
			p.errorf("%s: missing %s", c.consumer, strings.Join(missing.Missing, ", "))
		}
	}
	return p
}

// ── Phase 2: Coercion ──
// Unparsable numbers and dates become missing. That is legal input, so it
// only fails in strict mode.

func validateCoercion(table *csvfile.Table, strict bool) ([]domain.Visit, *phase) {
	p := &phase{name: "Phase 2: Coercion (numbers and dates)"}
	visits, stats, err := table.Decode(domain.FullSchema)
	if err != nil {
		p.errorf("decode: %v", err)
		return nil, p
	}

	report := p.notef
	if strict {
		report = p.errorf
	}
	counts := []struct {
		column string
		n      int
	}{
		{domain.ColumnMonths, stats.MissingMonths},
		{domain.ColumnDaysStayed, stats.MissingDays},
		{domain.ColumnVisitDate, stats.MissingDates},
	}
	for _, c := range counts {
		if c.n > 0 {
			report("%s: %d of %d cells missing or unparsable", c.column, c.n, stats.Rows)
		}
	}

	for i := range visits {
		v := &visits[i]
		line := i + 2
		if strings.TrimSpace(v.RegionCode) == "" {
			p.errorf("line %d: empty %s", line, domain.ColumnRegionCode)
		}
		if v.DaysStayed != nil && *v.DaysStayed < 0 {
			p.errorf("line %d: negative %s %s", line, domain.ColumnDaysStayed, domain.FormatNumber(*v.DaysStayed))
		}
	}
	return visits, p
}

// ── Phase 3: Join coverage ──
// Every visit code should match a region with a usable centroid.

func validateCoverage(regions []domain.Region, visits []domain.Visit) *phase {
	p := &phase{name: "Phase 3: Join coverage (visits vs boundaries)"}
	cov := domain.Coverage(regions, visits)
	for _, code := range cov.OrphanVisits {
		p.errorf("visit code %q has no boundary region", code)
	}

	for _, r := range regions {
		if _, ok := r.Shape.Centroid(); !ok {
			p.errorf("region %s (%s) has no usable geometry", r.Code, r.Name)
		}
	}

	p.notef("%d of %d regions visited", len(cov.MatchedRegions), len(regions))
	if len(cov.UnmatchedRegions) > 0 {
		p.notef("never visited: %s", strings.Join(cov.UnmatchedRegions, ", "))
	}
	return p
}
