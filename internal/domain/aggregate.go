package domain

import "sort"

// VisitPivot counts visits per (year, region). Counts[i][j] is the number of
// visits in Years[i] to Regions[j]; absent combinations are zero.
type VisitPivot struct {
	Years   []int
	Regions []string
	Counts  [][]int
}

// Count returns the cell for a year and region, or 0 when either is absent.
func (p VisitPivot) Count(year int, region string) int {
	yi := sort.SearchInts(p.Years, year)
	if yi >= len(p.Years) || p.Years[yi] != year {
		return 0
	}
	ri := sort.SearchStrings(p.Regions, region)
	if ri >= len(p.Regions) || p.Regions[ri] != region {
		return 0
	}
	return p.Counts[yi][ri]
}

// VisitsByRegionYear pivots visit counts by year and region code. Visits
// without a date or region code are skipped. Years ascend and regions sort alphabetically.
func VisitsByRegionYear(visits []Visit) VisitPivot {
	type key struct {
		year   int
		region string
	}
	counts := map[key]int{}
	years := map[int]bool{}
	regions := map[string]bool{}
	for i := range visits {
		v := &visits[i]
		if !v.HasDate() || v.RegionCode == "" {
			continue
		}
		counts[key{v.Year(), v.RegionCode}]++
		years[v.Year()] = true
		regions[v.RegionCode] = true
	}

	p := VisitPivot{
		Years:   make([]int, 0, len(years)),
		Regions: make([]string, 0, len(regions)),
	}
	for y := range years {
		p.Years = append(p.Years, y)
	}
	for r := range regions {
		p.Regions = append(p.Regions, r)
	}
	sort.Ints(p.Years)
	sort.Strings(p.Regions)

	p.Counts = make([][]int, len(p.Years))
	for i, y := range p.Years {
		p.Counts[i] = make([]int, len(p.Regions))
		for j, r := range p.Regions {
			p.Counts[i][j] = counts[key{y, r}]
		}
	}
	return p
}

// RegionTotal is the summed days stayed for one region name.
type RegionTotal struct {
	Name string
	Days float64
}

// TotalDaysByRegion sums present days stayed by region name, ascending by
// total with ties broken by name. A region whose values are all missing
// totals zero. Visits without a region name are skipped.
func TotalDaysByRegion(visits []Visit) []RegionTotal {
	sums := map[string]float64{}
	for i := range visits {
		v := &visits[i]
		if v.RegionName == "" {
			continue
		}
		if _, ok := sums[v.RegionName]; !ok {
			sums[v.RegionName] = 0
		}
		if v.DaysStayed != nil {
			sums[v.RegionName] += *v.DaysStayed
		}
	}

	out := make([]RegionTotal, 0, len(sums))
	for name, days := range sums {
		out = append(out, RegionTotal{Name: name, Days: days})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Days != out[j].Days {
			return out[i].Days < out[j].Days
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// YearAverage is the mean days stayed for one year.
type YearAverage struct {
	Year    int
	Average float64
	Visits  int // visits contributing to the mean
}

// AverageDaysByYear averages present days stayed per visit year. Visits
// without a date or days value are skipped; years left with no values are
// omitted.
func AverageDaysByYear(visits []Visit) []YearAverage {
	type acc struct {
		sum float64
		n   int
	}
	byYear := map[int]*acc{}
	for i := range visits {
		v := &visits[i]
		if !v.HasDate() || v.DaysStayed == nil {
			continue
		}
		a, ok := byYear[v.Year()]
		if !ok {
			a = &acc{}
			byYear[v.Year()] = a
		}
		a.sum += *v.DaysStayed
		a.n++
	}

	out := make([]YearAverage, 0, len(byYear))
	for y, a := range byYear {
		out = append(out, YearAverage{Year: y, Average: a.sum / float64(a.n), Visits: a.n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
