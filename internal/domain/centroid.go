package domain

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Centroid returns the area-weighted centroid of the shape on the sphere.
// Holes subtract from their polygon. Shapes with no ring of at least three
// distinct vertices fall back to the mean of their vertices. ok is false for
// an empty shape.
func (s Shape) Centroid() (Point, bool) {
	var sum r3.Vector
	for _, poly := range s {
		if c, ok := ringCentroid(poly.Exterior); ok {
			sum = sum.Add(c)
		}
		for _, hole := range poly.Holes {
			if c, ok := ringCentroid(hole); ok {
				sum = sum.Sub(c)
			}
		}
	}
	if sum.Norm() > 0 {
		ll := s2.LatLngFromPoint(s2.Point{Vector: sum})
		return Point{Lon: ll.Lng.Degrees(), Lat: ll.Lat.Degrees()}, true
	}
	return s.vertexMean()
}

// ringCentroid returns the ring's s2 centroid scaled by its area. The loop is
// normalized so orientation in the source file does not matter.
func ringCentroid(r Ring) (r3.Vector, bool) {
	pts := make([]s2.Point, 0, len(r))
	for _, p := range r.open() {
		sp := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
		if n := len(pts); n > 0 && pts[n-1] == sp {
			continue
		}
		pts = append(pts, sp)
	}
	if len(pts) < 3 {
		return r3.Vector{}, false
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop.Centroid().Vector, true
}

func (s Shape) vertexMean() (Point, bool) {
	var sumLat, sumLon float64
	var n int
	for _, poly := range s {
		for _, p := range poly.Exterior.open() {
			sumLat += p.Lat
			sumLon += p.Lon
			n++
		}
	}
	if n == 0 {
		return Point{}, false
	}
	return Point{Lon: sumLon / float64(n), Lat: sumLat / float64(n)}, true
}
