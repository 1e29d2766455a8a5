package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

var testOptions = Options{CodeField: "iso_3166_2", NameField: "name", CodePrefix: "US-"}

const statesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"iso_3166_2": "US-CA", "name": "California"},
      "geometry": {"type": "Polygon", "coordinates": [[[-120,36],[-118,36],[-118,38],[-120,38],[-120,36]]]}
    },
    {
      "type": "Feature",
      "properties": {"iso_3166_2": "US-HI", "name": "Hawaii"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[-156,19],[-155,19],[-155,20],[-156,20],[-156,19]]],
        [[[-158,21],[-157,21],[-157,22],[-158,22],[-158,21]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"iso_3166_2": "US-XX"},
      "geometry": {"type": "Point", "coordinates": [0, 0]}
    },
    {
      "type": "Feature",
      "properties": {"name": "No Code"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}
    }
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile_GeoJSON(t *testing.T) {
	path := writeFile(t, "states.geojson", statesGeoJSON)

	regions, err := ReadFile(path, testOptions)
	require.NoError(t, err)
	require.Len(t, regions, 2, "non-polygon and code-less features are skipped")

	assert.Equal(t, "CA", regions[0].Code)
	assert.Equal(t, "US-CA", regions[0].RawCode)
	assert.Equal(t, "California", regions[0].Name)
	require.Len(t, regions[0].Shape, 1)
	assert.Len(t, regions[0].Shape[0].Exterior, 5)

	assert.Equal(t, "HI", regions[1].Code)
	assert.Len(t, regions[1].Shape, 2)
}

func TestReadFile_GeoJSONWithoutPrefix(t *testing.T) {
	path := writeFile(t, "states.json", statesGeoJSON)

	regions, err := ReadFile(path, Options{CodeField: "iso_3166_2"})
	require.NoError(t, err)
	assert.Equal(t, "US-CA", regions[0].Code)
	assert.Empty(t, regions[0].Name)
}

func TestReadFile_GeoJSONNoRegions(t *testing.T) {
	path := writeFile(t, "empty.geojson", `{"type":"FeatureCollection","features":[]}`)

	_, err := ReadFile(path, testOptions)
	require.ErrorIs(t, err, domain.ErrNoRegions)
}

func TestReadFile_GeoJSONMalformed(t *testing.T) {
	path := writeFile(t, "bad.geojson", `{"type":`)

	_, err := ReadFile(path, testOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode geojson")
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	_, err := ReadFile("states.kml", testOptions)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.shp"), testOptions)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.geojson"), testOptions)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// writeShapefile creates a two-feature polygon shapefile. The second feature
// carries a counter-clockwise hole.
func writeShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "states.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("iso_3166_2", 10),
		shp.StringField("name", 32),
	}))

	texas := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: -104, Y: 30}, {X: -104, Y: 34}, {X: -96, Y: 34}, {X: -96, Y: 30}, {X: -104, Y: 30}},
	}))
	withHole := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 0}},
		{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}, {X: 1, Y: 1}},
	}))

	for i, rec := range []struct {
		poly       *shp.Polygon
		code, name string
	}{
		{&texas, "US-TX", "Texas"},
		{&withHole, "US-ZZ", "Holey"},
	} {
		w.Write(rec.poly)
		require.NoError(t, w.WriteAttribute(i, 0, rec.code))
		require.NoError(t, w.WriteAttribute(i, 1, rec.name))
	}
	w.Close()
	return path
}

func TestReadFile_Shapefile(t *testing.T) {
	path := writeShapefile(t)

	regions, err := ReadFile(path, testOptions)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, "TX", regions[0].Code)
	assert.Equal(t, "Texas", regions[0].Name)
	require.Len(t, regions[0].Shape, 1)
	assert.Empty(t, regions[0].Shape[0].Holes)

	assert.Equal(t, "ZZ", regions[1].Code)
	require.Len(t, regions[1].Shape, 1, "the counter-clockwise ring attaches as a hole")
	assert.Len(t, regions[1].Shape[0].Holes, 1)

	c, ok := regions[0].Shape.Centroid()
	require.True(t, ok)
	assert.InDelta(t, -100, c.Lon, 0.1)
	assert.InDelta(t, 32, c.Lat, 0.1)
}

func TestReadFile_ShapefileMissingCodeField(t *testing.T) {
	path := writeShapefile(t)

	_, err := ReadFile(path, Options{CodeField: "postal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"postal"`)
}

func TestShapeFromParts_LeadingCounterClockwiseRing(t *testing.T) {
	pts := []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}

	shape := shapeFromParts([]int32{0}, pts)
	require.Len(t, shape, 1, "a first ring is always an exterior")
	assert.Empty(t, shape[0].Holes)
}
