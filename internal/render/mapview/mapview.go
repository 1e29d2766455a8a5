// Package mapview renders enriched visits as an interactive Leaflet map with
// clustered, bucket-colored markers.
package mapview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Options controls map framing and tiles.
type Options struct {
	CenterLat       float64
	CenterLon       float64
	Zoom            int
	TileURL         string
	TileAttribution string
	Title           string

	// ElementID is the id of the map container. Build generates one when empty
	// so several fragments can share a page.
	ElementID string
}

// DefaultOptions frames the contiguous United States on OpenStreetMap tiles.
func DefaultOptions() Options {
	return Options{
		CenterLat:       37,
		CenterLon:       -95,
		Zoom:            4,
		TileURL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		TileAttribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		Title:           "State Visit Map",
	}
}

// Marker is a single point on the map.
type Marker struct {
	RegionCode string
	Lat        float64
	Lon        float64
	Popup      string
	Bucket     domain.Bucket
}

// Color is the icon color for the marker's bucket.
func (m Marker) Color() string { return m.Bucket.Color() }

// Map is a built map ready to render. Rendering never touches the filesystem.
type Map struct {
	Options Options
	Markers []Marker
}

// Build places one marker per joined row that has a positive days-stayed
// value, at the centroid of the row's region. Regions whose geometry yields
// no centroid are skipped.
func Build(records []domain.EnrichedVisit, opts Options) *Map {
	if opts.ElementID == "" {
		opts.ElementID = "map_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	m := &Map{Options: opts}
	for _, rec := range records {
		if !rec.HasMarker() {
			continue
		}
		c, ok := rec.Region.Shape.Centroid()
		if !ok {
			continue
		}
		m.Markers = append(m.Markers, Marker{
			RegionCode: rec.Visit.RegionCode,
			Lat:        c.Lat,
			Lon:        c.Lon,
			Popup:      Popup(rec.Visit.RegionCode, *rec.Visit.DaysStayed),
			Bucket:     rec.Visit.Bucket,
		})
	}
	return m
}

// Popup formats the marker popup text.
func Popup(code string, days float64) string {
	return fmt.Sprintf("State: %s Total Days Stayed: %s", code, domain.FormatNumber(days))
}

// BucketCounts tallies markers per duration bucket.
func (m *Map) BucketCounts() map[domain.Bucket]int {
	counts := make(map[domain.Bucket]int, 4)
	for _, mk := range m.Markers {
		counts[mk.Bucket]++
	}
	return counts
}

// Document renders a standalone HTML page.
func (m *Map) Document() ([]byte, error) {
	return m.render("document")
}

// Fragment renders the map container and scripts for embedding in another page.
func (m *Map) Fragment() ([]byte, error) {
	return m.render("fragment")
}

type markerView struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Color string  `json:"color"`
	Popup string  `json:"popup"`
}

type pageView struct {
	Options
	Markers []markerView
}

func (m *Map) render(name string) ([]byte, error) {
	view := pageView{Options: m.Options, Markers: make([]markerView, 0, len(m.Markers))}
	for _, mk := range m.Markers {
		view.Markers = append(view.Markers, markerView{Lat: mk.Lat, Lon: mk.Lon, Color: mk.Color(), Popup: mk.Popup})
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, view); err != nil {
		return nil, fmt.Errorf("render map %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
