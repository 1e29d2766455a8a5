package domain

import "strings"

// Point is a lon/lat coordinate in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// Ring is a closed or open sequence of points. A trailing point equal to the
// first is ignored.
type Ring []Point

// Polygon is an exterior ring with optional holes.
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

// Shape is a multipolygon.
type Shape []Polygon

// Region is one boundary feature.
type Region struct {
	Code    string // join key, prefix removed
	RawCode string // attribute value as read
	Name    string
	Shape   Shape
}

// NewRegion builds a Region, removing prefix from the code attribute.
func NewRegion(rawCode, name, prefix string, shape Shape) Region {
	return Region{
		Code:    StripCodePrefix(rawCode, prefix),
		RawCode: rawCode,
		Name:    strings.TrimSpace(name),
		Shape:   shape,
	}
}

// StripCodePrefix removes a literal prefix such as "US-" from a region code.
func StripCodePrefix(code, prefix string) string {
	code = strings.TrimSpace(code)
	if prefix == "" {
		return code
	}
	return strings.TrimPrefix(code, prefix)
}

// SignedArea returns the planar shoelace area of the ring in square degrees.
// Counter-clockwise rings are positive.
func (r Ring) SignedArea() float64 {
	pts := r.open()
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].Lon*pts[j].Lat - pts[j].Lon*pts[i].Lat
	}
	return sum / 2
}

// open returns the ring without a duplicated closing point.
func (r Ring) open() Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}
