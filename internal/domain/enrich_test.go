package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegions() []Region {
	return []Region{
		NewRegion("US-CA", "California", "US-", Shape{{Exterior: square(-124, 32, -114, 42)}}),
		NewRegion("US-TX", "Texas", "US-", Shape{{Exterior: square(-106, 26, -94, 36)}}),
		NewRegion("US-NY", "New York", "US-", Shape{{Exterior: square(-79, 40, -72, 45)}}),
		NewRegion("US-WA", "Washington", "US-", Shape{{Exterior: square(-124, 46, -117, 49)}}),
	}
}

func TestJoin_PreservesEveryRegion(t *testing.T) {
	visits := []Visit{
		DecodeVisit(RawVisit{RegionCode: "CA", Months: "2", DaysStayed: "10"}),
		DecodeVisit(RawVisit{RegionCode: "TX", Months: "11", DaysStayed: "0"}),
		DecodeVisit(RawVisit{RegionCode: "NY", Months: "5", DaysStayed: ""}),
	}

	rows := Join(testRegions(), visits)

	require.Len(t, rows, 4)
	seen := map[string]int{}
	for _, r := range rows {
		seen[r.Region.Code]++
	}
	assert.Equal(t, map[string]int{"CA": 1, "TX": 1, "NY": 1, "WA": 1}, seen)

	assert.Equal(t, "CA", rows[0].Region.Code)
	require.NotNil(t, rows[0].Visit)
	assert.True(t, rows[0].HasMarker())

	assert.False(t, rows[1].HasMarker(), "zero days stayed")
	assert.False(t, rows[2].HasMarker(), "missing days stayed")

	assert.Equal(t, "WA", rows[3].Region.Code)
	assert.Nil(t, rows[3].Visit)
	assert.False(t, rows[3].HasMarker())
}

func TestJoin_MultipleVisitsPerRegion(t *testing.T) {
	visits := []Visit{
		DecodeVisit(RawVisit{RegionCode: "CA", DaysStayed: "3"}),
		DecodeVisit(RawVisit{RegionCode: "CA", DaysStayed: "4"}),
	}

	rows := Join(testRegions()[:1], visits)

	require.Len(t, rows, 2)
	assert.InDelta(t, 3.0, *rows[0].Visit.DaysStayed, 1e-9)
	assert.InDelta(t, 4.0, *rows[1].Visit.DaysStayed, 1e-9)
}

func TestJoin_DropsOrphanVisits(t *testing.T) {
	visits := []Visit{DecodeVisit(RawVisit{RegionCode: "PR", DaysStayed: "9"})}

	rows := Join(testRegions(), visits)

	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Nil(t, r.Visit)
	}
}

func TestJoin_VisitsAreCopied(t *testing.T) {
	visits := []Visit{DecodeVisit(RawVisit{RegionCode: "CA", DaysStayed: "3"})}
	rows := Join(testRegions(), visits)

	visits[0].RegionName = "changed"
	assert.Empty(t, rows[0].Visit.RegionName)
}

func TestCoverage(t *testing.T) {
	visits := []Visit{
		DecodeVisit(RawVisit{RegionCode: "CA"}),
		DecodeVisit(RawVisit{RegionCode: "PR"}),
		DecodeVisit(RawVisit{RegionCode: "PR"}),
	}

	cov := Coverage(testRegions(), visits)

	assert.Equal(t, []string{"CA"}, cov.MatchedRegions)
	assert.Equal(t, []string{"TX", "NY", "WA"}, cov.UnmatchedRegions)
	assert.Equal(t, []string{"PR"}, cov.OrphanVisits)
}

func TestCoverage_IgnoresMissingCodes(t *testing.T) {
	visits := []Visit{
		DecodeVisit(RawVisit{RegionCode: ""}),
		DecodeVisit(RawVisit{RegionCode: "NaN"}),
		DecodeVisit(RawVisit{RegionCode: "CA"}),
	}

	cov := Coverage(testRegions(), visits)

	assert.Equal(t, []string{"CA"}, cov.MatchedRegions)
	assert.Empty(t, cov.OrphanVisits)
}
