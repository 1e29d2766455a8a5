package domain

import "math"

// Bucket is the duration category derived from a visit's Months value.
type Bucket string

const (
	BucketShort       Bucket = "short"
	BucketLong        Bucket = "long"
	BucketMedium      Bucket = "medium"
	BucketUnspecified Bucket = "unspecified"
)

// Thresholds in months.
const (
	shortMaxMonths = 3
	longMinMonths  = 10
)

// BucketFor classifies a months value. Conditions are checked in order and
// the ranges are disjoint, so every input lands in exactly one bucket. A nil
// or NaN value is unspecified.
func BucketFor(months *float64) Bucket {
	if months == nil || math.IsNaN(*months) {
		return BucketUnspecified
	}
	m := *months
	switch {
	case m <= shortMaxMonths:
		return BucketShort
	case m >= longMinMonths:
		return BucketLong
	case m > shortMaxMonths && m < longMinMonths:
		return BucketMedium
	default:
		return BucketUnspecified
	}
}

// Color returns the marker color for the bucket.
func (b Bucket) Color() string {
	switch b {
	case BucketShort:
		return "red"
	case BucketLong:
		return "green"
	case BucketMedium:
		return "orange"
	default:
		return "black"
	}
}
