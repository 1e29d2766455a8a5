package domain

import "time"

// ArtifactKind classifies rendered output.
type ArtifactKind string

const (
	ArtifactMap        ArtifactKind = "map"
	ArtifactChartImage ArtifactKind = "chart_image"
	ArtifactChartPage  ArtifactKind = "chart_page"
	ArtifactWorkbook   ArtifactKind = "workbook"
	ArtifactChartIndex ArtifactKind = "chart_index"
)

// Artifact is a rendered output held in memory until it is persisted. Path is
// empty until the artifact has been written.
type Artifact struct {
	Kind  ArtifactKind
	Name  string // file name, no directory
	Title string
	Data  []byte
	Path  string
}

// ArtifactEvent announces one persisted artifact.
type ArtifactEvent struct {
	RunID     string       `json:"run_id"`
	Kind      ArtifactKind `json:"kind"`
	Name      string       `json:"name"`
	Path      string       `json:"path"`
	Title     string       `json:"title,omitempty"`
	Bytes     int          `json:"bytes"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewArtifactEvent describes a written artifact.
func NewArtifactEvent(runID string, a Artifact, at time.Time) ArtifactEvent {
	return ArtifactEvent{
		RunID:     runID,
		Kind:      a.Kind,
		Name:      a.Name,
		Path:      a.Path,
		Title:     a.Title,
		Bytes:     len(a.Data),
		CreatedAt: at.UTC(),
	}
}
