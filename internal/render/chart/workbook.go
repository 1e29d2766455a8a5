package chart

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// Workbook sheet names.
const (
	SheetVisitsByYear = "Visits_By_Year"
	SheetTotalDays    = "Total_Days"
	SheetAverageDays  = "Average_Days"
)

// workbook writes the three aggregates to one sheet each.
func workbook(pivot domain.VisitPivot, totals []domain.RegionTotal, averages []domain.YearAverage) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetVisitsByYear); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	for _, name := range []string{SheetTotalDays, SheetAverageDays} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("workbook: %w", err)
		}
	}

	header := append([]any{"Year"}, stringsToAny(pivot.Regions)...)
	rows := make([][]any, len(pivot.Years))
	for i, y := range pivot.Years {
		row := make([]any, 0, len(pivot.Regions)+1)
		row = append(row, y)
		for _, c := range pivot.Counts[i] {
			row = append(row, c)
		}
		rows[i] = row
	}
	if err := writeSheet(f, SheetVisitsByYear, header, rows); err != nil {
		return nil, err
	}

	rows = make([][]any, len(totals))
	for i, t := range totals {
		rows[i] = []any{t.Name, t.Days}
	}
	if err := writeSheet(f, SheetTotalDays, []any{"State", "Total Days"}, rows); err != nil {
		return nil, err
	}

	rows = make([][]any, len(averages))
	for i, a := range averages {
		rows[i] = []any{a.Year, a.Average, a.Visits}
	}
	if err := writeSheet(f, SheetAverageDays, []any{"Year", "Average Days", "Visits"}, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	for r, row := range append([][]any{header}, rows...) {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("workbook %s: %w", sheet, err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("workbook %s %s: %w", sheet, cell, err)
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 18)
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
