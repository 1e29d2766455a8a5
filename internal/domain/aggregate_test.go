package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visit(code, name, date, days string) Visit {
	return DecodeVisit(RawVisit{RegionCode: code, RegionName: name, VisitDate: date, DaysStayed: days})
}

func TestVisitsByRegionYear(t *testing.T) {
	visits := []Visit{
		visit("CA", "California", "2020-01-10", "3"),
		visit("CA", "California", "2020-07-04", "5"),
		visit("CA", "California", "2021-02-01", "2"),
		visit("TX", "Texas", "2021-05-05", "8"),
		visit("NY", "New York", "not a date", "1"),
	}

	p := VisitsByRegionYear(visits)

	assert.Equal(t, []int{2020, 2021}, p.Years)
	assert.Equal(t, []string{"CA", "TX"}, p.Regions)
	assert.Equal(t, [][]int{{2, 0}, {1, 1}}, p.Counts)

	assert.Equal(t, 2, p.Count(2020, "CA"))
	assert.Equal(t, 1, p.Count(2021, "CA"))
	assert.Equal(t, 0, p.Count(2020, "TX"))
	assert.Equal(t, 0, p.Count(1999, "CA"))
	assert.Equal(t, 0, p.Count(2020, "NY"))
}

func TestVisitsByRegionYear_Empty(t *testing.T) {
	p := VisitsByRegionYear(nil)
	assert.Empty(t, p.Years)
	assert.Empty(t, p.Regions)
	assert.Empty(t, p.Counts)
}

func TestAggregates_SkipMissingRegionKeys(t *testing.T) {
	visits := []Visit{
		visit("CA", "California", "2020-01-10", "10"),
		visit("", "", "2020-01-10", "5"),
		visit("NA", "NA", "2020-02-10", "7"),
		visit("NaN", "NaN", "2021-02-10", "1"),
	}

	p := VisitsByRegionYear(visits)
	assert.Equal(t, []int{2020}, p.Years)
	assert.Equal(t, []string{"CA"}, p.Regions)
	assert.Equal(t, [][]int{{1}}, p.Counts)

	assert.Equal(t, []RegionTotal{{Name: "California", Days: 10}}, TotalDaysByRegion(visits))

	// Rows without a region still carry a year and a stay.
	averages := AverageDaysByYear(visits)
	require.Len(t, averages, 2)
	assert.Equal(t, 3, averages[0].Visits)
}

func TestTotalDaysByRegion(t *testing.T) {
	visits := []Visit{
		visit("CA", "California", "2020-01-10", "10"),
		visit("CA", "California", "2021-01-10", "5"),
		visit("TX", "Texas", "2020-01-10", "3"),
		visit("NY", "New York", "2020-01-10", "abc"),
		visit("OR", "Oregon", "2020-01-10", "3"),
	}

	totals := TotalDaysByRegion(visits)

	require.Len(t, totals, 4)
	assert.Equal(t, []RegionTotal{
		{Name: "New York", Days: 0},
		{Name: "Oregon", Days: 3},
		{Name: "Texas", Days: 3},
		{Name: "California", Days: 15},
	}, totals)
}

func TestAverageDaysByYear(t *testing.T) {
	visits := []Visit{
		visit("CA", "California", "2020-01-10", "10"),
		visit("TX", "Texas", "2020-03-10", "4"),
		visit("NY", "New York", "2020-05-10", ""),
		visit("CA", "California", "2021-01-10", "6"),
		visit("WA", "Washington", "2022-01-10", "abc"),
		visit("OR", "Oregon", "", "100"),
	}

	avgs := AverageDaysByYear(visits)

	assert.Equal(t, []YearAverage{
		{Year: 2020, Average: 7, Visits: 2},
		{Year: 2021, Average: 6, Visits: 1},
	}, avgs)
}
