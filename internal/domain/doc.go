// Package domain models state visit records and the boundary geometry they
// are joined to.
//
// # Input Data
//
// Visits arrive as CSV rows with at least these columns (header whitespace is
// trimmed on load):
//
//	Months        stay length in months, drives the duration bucket
//	state_abbr    two-letter USPS code, the join key
//	Days_stayed   total days stayed, coerced to a number
//	visited_date  date of the visit, drives year-based aggregates
//	State_Name    display name used by the per-region totals
//
// Unparsable numbers and dates become missing values. They never abort a run.
//
// # Duration Buckets
//
// Each visit is assigned exactly one bucket from its Months value:
//
//	months <= 3        short        red
//	months >= 10       long         green
//	3 < months < 10    medium       orange
//	missing            unspecified  black
//
// # Boundary Geometry
//
// Region boundaries come from a shapefile or GeoJSON file whose code
// attribute carries a fixed prefix ("US-CA"). The prefix is removed before
// joining. Geometry is a multipolygon in lon/lat degrees and the marker
// position is its area-weighted centroid, see [Shape.Centroid].
//
// # Join Semantics
//
// [Join] is a left outer join from regions to visits. Every region appears in
// the output, once per matching visit or once with a nil visit when nothing
// matches. Visits for codes absent from the boundary file are dropped.
package domain
