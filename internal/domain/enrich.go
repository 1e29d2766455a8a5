package domain

// EnrichedVisit is one row of the region/visit left join. Visit is nil when
// the region has no matching visit.
type EnrichedVisit struct {
	Region Region
	Visit  *Visit
}

// HasMarker reports whether the row qualifies for a map marker: a matched
// visit with days stayed present and positive.
func (e EnrichedVisit) HasMarker() bool {
	return e.Visit != nil && e.Visit.StayedPositive()
}

// Join left-joins regions onto visits by region code. Output follows region
// order; within a region, matching visits keep their input order.
func Join(regions []Region, visits []Visit) []EnrichedVisit {
	byCode := make(map[string][]int, len(visits))
	for i := range visits {
		byCode[visits[i].RegionCode] = append(byCode[visits[i].RegionCode], i)
	}

	out := make([]EnrichedVisit, 0, len(regions))
	for _, region := range regions {
		idx := byCode[region.Code]
		if len(idx) == 0 {
			out = append(out, EnrichedVisit{Region: region})
			continue
		}
		for _, i := range idx {
			v := visits[i]
			out = append(out, EnrichedVisit{Region: region, Visit: &v})
		}
	}
	return out
}

// JoinCoverage summarizes which codes matched during a join.
type JoinCoverage struct {
	MatchedRegions   []string // region codes with at least one visit
	UnmatchedRegions []string // region codes with no visit
	OrphanVisits     []string // visit codes with no region, in first-seen order
}

// Coverage reports join coverage without building enriched rows.
func Coverage(regions []Region, visits []Visit) JoinCoverage {
	visitCodes := make(map[string]bool, len(visits))
	for i := range visits {
		visitCodes[visits[i].RegionCode] = true
	}
	regionCodes := make(map[string]bool, len(regions))

	var cov JoinCoverage
	for _, r := range regions {
		regionCodes[r.Code] = true
		if visitCodes[r.Code] {
			cov.MatchedRegions = append(cov.MatchedRegions, r.Code)
		} else {
			cov.UnmatchedRegions = append(cov.UnmatchedRegions, r.Code)
		}
	}
	seen := map[string]bool{}
	for i := range visits {
		code := visits[i].RegionCode
		if code == "" || regionCodes[code] || seen[code] {
			continue
		}
		seen[code] = true
		cov.OrphanVisits = append(cov.OrphanVisits, code)
	}
	return cov
}
