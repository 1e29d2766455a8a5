// Package boundary reads region boundary geometry from shapefiles or GeoJSON
// and caches the parsed regions.
package boundary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// ErrUnsupportedFormat is returned for files that are neither shapefile nor GeoJSON.
var ErrUnsupportedFormat = errors.New("unsupported boundary format")

// Options controls how region attributes are read.
type Options struct {
	CodeField  string // attribute holding the region code, e.g. "iso_3166_2"
	NameField  string // optional display name attribute
	CodePrefix string // literal prefix stripped from codes, e.g. "US-"
}

// ReadFile parses the boundary file at path. The format is chosen by
// extension: .shp for ESRI shapefiles, .geojson or .json for GeoJSON.
func ReadFile(path string, opts Options) ([]domain.Region, error) {
	var (
		regions []domain.Region
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		regions, err = readShapefile(path, opts)
	case ".geojson", ".json":
		regions, err = readGeoJSON(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNoRegions)
	}
	return regions, nil
}

func readShapefile(path string, opts Options) ([]domain.Region, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	codeIdx, nameIdx := -1, -1
	for i, f := range r.Fields() {
		switch f.String() {
		case opts.CodeField:
			codeIdx = i
		case opts.NameField:
			nameIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("shapefile %s has no %q attribute", path, opts.CodeField)
	}

	var regions []domain.Region
	for r.Next() {
		n, s := r.Shape()
		poly, ok := s.(*shp.Polygon)
		if !ok {
			continue
		}
		name := ""
		if nameIdx >= 0 {
			name = attribute(r, n, nameIdx)
		}
		regions = append(regions, domain.NewRegion(
			attribute(r, n, codeIdx), name, opts.CodePrefix, shapeFromParts(poly.Parts, poly.Points),
		))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return regions, nil
}

// attribute reads a DBF value with its fixed-width padding removed.
func attribute(r *shp.Reader, row, field int) string {
	return strings.TrimRight(r.ReadAttribute(row, field), "\x00 ")
}

// shapeFromParts groups shapefile rings into polygons. Shapefile exterior
// rings wind clockwise and holes counter-clockwise; a hole attaches to the
// exterior before it.
func shapeFromParts(parts []int32, points []shp.Point) domain.Shape {
	var shape domain.Shape
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		ring := make(domain.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, domain.Point{Lon: p.X, Lat: p.Y})
		}

		if ring.SignedArea() > 0 && len(shape) > 0 {
			last := &shape[len(shape)-1]
			last.Holes = append(last.Holes, ring)
			continue
		}
		shape = append(shape, domain.Polygon{Exterior: ring})
	}
	return shape
}

func readGeoJSON(path string, opts Options) ([]domain.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open geojson: %w", err)
		}
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	regions := make([]domain.Region, 0, len(fc.Features))
	for _, f := range fc.Features {
		shape := shapeFromGeometry(f.Geometry)
		if shape == nil {
			continue
		}
		code := propString(f.Properties, opts.CodeField)
		if code == "" {
			continue
		}
		regions = append(regions, domain.NewRegion(code, propString(f.Properties, opts.NameField), opts.CodePrefix, shape))
	}
	return regions, nil
}

func shapeFromGeometry(g orb.Geometry) domain.Shape {
	switch geom := g.(type) {
	case orb.Polygon:
		return domain.Shape{polygonFromOrb(geom)}
	case orb.MultiPolygon:
		shape := make(domain.Shape, 0, len(geom))
		for _, p := range geom {
			shape = append(shape, polygonFromOrb(p))
		}
		return shape
	default:
		return nil
	}
}

func polygonFromOrb(p orb.Polygon) domain.Polygon {
	var poly domain.Polygon
	for i, r := range p {
		ring := make(domain.Ring, len(r))
		for j, pt := range r {
			ring[j] = domain.Point{Lon: pt.Lon(), Lat: pt.Lat()}
		}
		if i == 0 {
			poly.Exterior = ring
		} else {
			poly.Holes = append(poly.Holes, ring)
		}
	}
	return poly
}

func propString(props geojson.Properties, key string) string {
	if key == "" {
		return ""
	}
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
