// Package chart renders the visit aggregates as bar chart images, HTML
// wrapper fragments, and a summary workbook. Everything is rendered to memory;
// nothing is written here.
package chart

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// TimestampLayout is the sortable render time embedded in file names.
const TimestampLayout = "20060102_150405"

// Chart titles. File names are derived from them.
const (
	TitleVisitsByYear = "Visits per State by Year"
	TitleTotalDays    = "Total Days Stayed by State"
	TitleAverageDays  = "Average Days Stayed by Year"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Options controls chart output.
type Options struct {
	// ImageBaseURL prefixes image names in wrapper fragments, e.g. "/images/"
	// for the server or "../images/" for pages opened from disk.
	ImageBaseURL string
	Width        vg.Length
	Height       vg.Length
	Workbook     bool
}

// DefaultOptions returns the server defaults.
func DefaultOptions() Options {
	return Options{
		ImageBaseURL: "/images/",
		Width:        12 * vg.Inch,
		Height:       7 * vg.Inch,
		Workbook:     true,
	}
}

// Chart is one rendered chart with its image and wrapper fragment.
type Chart struct {
	Title       string
	Description string
	Image       domain.Artifact
	Page        domain.Artifact
}

// Result is the complete output of one chart render.
type Result struct {
	Timestamp string
	Charts    []Chart
	Workbook  *domain.Artifact
}

// Artifacts lists every file the result would write, images first so that
// pages never reference a missing image.
func (r *Result) Artifacts() []domain.Artifact {
	out := make([]domain.Artifact, 0, 2*len(r.Charts)+1)
	for _, c := range r.Charts {
		out = append(out, c.Image)
	}
	for _, c := range r.Charts {
		out = append(out, c.Page)
	}
	if r.Workbook != nil {
		out = append(out, *r.Workbook)
	}
	return out
}

// Renderer turns decoded visits into chart artifacts.
type Renderer struct {
	clock clockwork.Clock
	opts  Options
}

// NewRenderer creates a Renderer. The clock stamps file names.
func NewRenderer(clock clockwork.Clock, opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions().Height
	}
	return &Renderer{clock: clock, opts: opts}
}

type chartDef struct {
	title       string
	description string
	build       func(title string) (*plot.Plot, error)
}

// Render builds all three charts and, when enabled, the workbook. It fails
// as a whole: either every artifact is returned or none is.
func (r *Renderer) Render(visits []domain.Visit) (*Result, error) {
	pivot := domain.VisitsByRegionYear(visits)
	totals := domain.TotalDaysByRegion(visits)
	averages := domain.AverageDaysByYear(visits)

	defs := []chartDef{
		{
			title:       TitleVisitsByYear,
			description: "Number of recorded visits to each state, grouped by the year of the visit.",
			build:       func(t string) (*plot.Plot, error) { return visitsByYearPlot(t, pivot) },
		},
		{
			title:       TitleTotalDays,
			description: "Sum of days stayed in each state, sorted from fewest to most.",
			build:       func(t string) (*plot.Plot, error) { return totalDaysPlot(t, totals) },
		},
		{
			title:       TitleAverageDays,
			description: "Mean days stayed per visit for each year.",
			build:       func(t string) (*plot.Plot, error) { return averageDaysPlot(t, averages) },
		},
	}

	ts := r.clock.Now().Format(TimestampLayout)
	res := &Result{Timestamp: ts}
	for _, s := range defs {
		c, err := r.renderOne(s, ts)
		if err != nil {
			return nil, err
		}
		res.Charts = append(res.Charts, c)
	}

	if r.opts.Workbook {
		data, err := workbook(pivot, totals, averages)
		if err != nil {
			return nil, err
		}
		res.Workbook = &domain.Artifact{
			Kind:  domain.ArtifactWorkbook,
			Name:  "visit_summary_" + ts + ".xlsx",
			Title: "Visit Summary",
			Data:  data,
		}
	}
	return res, nil
}

func (r *Renderer) renderOne(s chartDef, ts string) (Chart, error) {
	p, err := s.build(s.title)
	if err != nil {
		return Chart{}, fmt.Errorf("build %q: %w", s.title, err)
	}
	png, err := renderPNG(p, r.opts.Width, r.opts.Height)
	if err != nil {
		return Chart{}, fmt.Errorf("render %q: %w", s.title, err)
	}

	imageName := ImageName(s.title, ts)
	page, err := r.fragment(s.title, s.description, imageName)
	if err != nil {
		return Chart{}, err
	}

	return Chart{
		Title:       s.title,
		Description: s.description,
		Image:       domain.Artifact{Kind: domain.ArtifactChartImage, Name: imageName, Title: s.title, Data: png},
		Page:        domain.Artifact{Kind: domain.ArtifactChartPage, Name: PageName(s.title), Title: s.title, Data: page},
	}, nil
}

type fragmentView struct {
	Title       string
	Description string
	ImageURL    string
}

func (r *Renderer) fragment(title, description, imageName string) ([]byte, error) {
	view := fragmentView{
		Title:       title,
		Description: description,
		ImageURL:    joinURL(r.opts.ImageBaseURL, imageName),
	}
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "chart", view); err != nil {
		return nil, fmt.Errorf("render %q page: %w", title, err)
	}
	return buf.Bytes(), nil
}

// Document renders a standalone page embedding every chart fragment.
func (r *Result) Document() ([]byte, error) {
	fragments := make([]template.HTML, len(r.Charts))
	for i, c := range r.Charts {
		fragments[i] = template.HTML(c.Page.Data) //nolint:gosec // rendered by our own template
	}
	var buf bytes.Buffer
	err := pageTemplates.ExecuteTemplate(&buf, "index", struct {
		Timestamp string
		Fragments []template.HTML
	}{r.Timestamp, fragments})
	if err != nil {
		return nil, fmt.Errorf("render chart index: %w", err)
	}
	return buf.Bytes(), nil
}

// ImageName is the timestamped PNG name for a chart title.
func ImageName(title, ts string) string {
	return slug(title) + "_" + ts + ".png"
}

// PageName is the wrapper fragment name for a chart title.
func PageName(title string) string {
	return slug(title) + ".html"
}

func slug(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

func joinURL(base, name string) string {
	if base == "" {
		return name
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name
}
