// Package pipeline runs the load, enrich, render, persist, and notify steps
// for map and chart requests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/state-visit-map/internal/domain"
	"github.com/couchcryptid/state-visit-map/internal/observability"
	"github.com/couchcryptid/state-visit-map/internal/render/chart"
	"github.com/couchcryptid/state-visit-map/internal/render/mapview"
)

// Run kinds used in logs and metric labels.
const (
	KindMap    = "map"
	KindCharts = "charts"
)

// ChartIndexName is the page that embeds every chart fragment.
const ChartIndexName = "index.html"

// VisitSource loads visit records from a CSV path, validating schema.
type VisitSource interface {
	ReadVisits(ctx context.Context, path string, schema domain.Schema) ([]domain.Visit, domain.DecodeStats, error)
}

// BoundarySource returns region geometry for a boundary file.
type BoundarySource interface {
	Regions(ctx context.Context, path string) ([]domain.Region, error)
}

// ArtifactStore persists rendered artifacts.
type ArtifactStore interface {
	Write(a domain.Artifact) (domain.Artifact, error)
	WriteAt(path string, a domain.Artifact) (domain.Artifact, error)
}

// Notifier publishes events for written artifacts.
type Notifier interface {
	Notify(ctx context.Context, events []domain.ArtifactEvent) error
}

// Displayer shows a written file to the user.
type Displayer interface {
	Display(path string) error
}

// Options wires the optional and tunable parts of a Pipeline.
type Options struct {
	BoundaryPath string
	Map          mapview.Options
	Charts       chart.Options
	Clock        clockwork.Clock // defaults to the real clock
	Notifier     Notifier        // nil disables notifications
	Displayer    Displayer       // nil disables display
}

// Pipeline renders maps and charts. It keeps no per-run state, so concurrent
// requests are safe.
type Pipeline struct {
	visits     VisitSource
	boundaries BoundarySource
	store      ArtifactStore
	charts     *chart.Renderer
	opts       Options
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Pipeline over the given sources and store.
func New(visits VisitSource, boundaries BoundarySource, store ArtifactStore, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		visits:     visits,
		boundaries: boundaries,
		store:      store,
		charts:     chart.NewRenderer(clock, opts.Charts),
		opts:       opts,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness loads the boundary file. The service is ready once it has
// loaded successfully at least once.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if p.ready.Load() {
		return nil
	}
	if _, err := p.boundaries.Regions(ctx, p.opts.BoundaryPath); err != nil {
		return fmt.Errorf("boundary file not loaded: %w", err)
	}
	p.ready.Store(true)
	return nil
}

// MapRequest controls a map render.
type MapRequest struct {
	Input      string
	Fragment   bool   // render an embeddable fragment instead of a document
	OutputPath string // persist the HTML here when set
	Display    bool
}

// MapResult is the outcome of a map render.
type MapResult struct {
	RunID    string
	Map      *mapview.Map
	HTML     []byte
	Coverage domain.JoinCoverage
	Artifact *domain.Artifact // set when persisted
}

// RenderMap loads visits, joins them to the boundaries, and renders the map.
func (p *Pipeline) RenderMap(ctx context.Context, req MapRequest) (res *MapResult, err error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "kind", KindMap, "input", req.Input)
	defer p.finish(KindMap, logger, p.clock.Now(), &err)

	visits, err := p.readVisits(ctx, req.Input, domain.MapSchema)
	if err != nil {
		return nil, err
	}
	regions, err := p.boundaries.Regions(ctx, p.opts.BoundaryPath)
	if err != nil {
		return nil, fmt.Errorf("load boundaries: %w", err)
	}

	rows := domain.Join(regions, visits)
	cov := domain.Coverage(regions, visits)
	if len(cov.OrphanVisits) > 0 {
		logger.Warn("visits without boundary", "codes", cov.OrphanVisits)
	}

	m := mapview.Build(rows, p.opts.Map)
	p.metrics.MarkersPerMap.Observe(float64(len(m.Markers)))

	html, err := p.renderMap(m, req.Fragment)
	if err != nil {
		return nil, err
	}
	res = &MapResult{RunID: runID, Map: m, HTML: html, Coverage: cov}
	logger.Info("map rendered", "regions", len(regions), "visits", len(visits), "markers", len(m.Markers), "buckets", m.BucketCounts())

	if req.OutputPath == "" {
		return res, nil
	}
	a, err := p.store.WriteAt(req.OutputPath, domain.Artifact{
		Kind:  domain.ArtifactMap,
		Name:  filepath.Base(req.OutputPath),
		Title: m.Options.Title,
		Data:  html,
	})
	if err != nil {
		return nil, fmt.Errorf("persist map: %w", err)
	}
	p.metrics.ArtifactsWritten.WithLabelValues(string(a.Kind)).Inc()
	res.Artifact = &a

	p.notify(ctx, logger, runID, []domain.Artifact{a})
	if req.Display {
		p.display(logger, a.Path)
	}
	return res, nil
}

func (p *Pipeline) renderMap(m *mapview.Map, fragment bool) ([]byte, error) {
	if fragment {
		return m.Fragment()
	}
	return m.Document()
}

// ChartRequest controls a chart render.
type ChartRequest struct {
	Input   string
	Display bool
}

// ChartResult is the outcome of a chart render.
type ChartResult struct {
	RunID    string
	Charts   *chart.Result
	Document []byte
	Written  []domain.Artifact
}

// RenderCharts renders every chart and persists images, pages, the index
// page and the workbook. Nothing is written unless every chart rendered.
func (p *Pipeline) RenderCharts(ctx context.Context, req ChartRequest) (res *ChartResult, err error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "kind", KindCharts, "input", req.Input)
	defer p.finish(KindCharts, logger, p.clock.Now(), &err)

	visits, err := p.readVisits(ctx, req.Input, domain.ChartSchema)
	if err != nil {
		return nil, err
	}

	rendered, err := p.charts.Render(visits)
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	doc, err := rendered.Document()
	if err != nil {
		return nil, err
	}

	arts := append(rendered.Artifacts(), domain.Artifact{
		Kind:  domain.ArtifactChartIndex,
		Name:  ChartIndexName,
		Title: "State Visit Charts",
		Data:  doc,
	})
	written := make([]domain.Artifact, 0, len(arts))
	for _, a := range arts {
		w, err := p.store.Write(a)
		if err != nil {
			return nil, fmt.Errorf("persist %s: %w", a.Name, err)
		}
		p.metrics.ArtifactsWritten.WithLabelValues(string(w.Kind)).Inc()
		written = append(written, w)
	}
	logger.Info("charts rendered", "visits", len(visits), "artifacts", len(written), "timestamp", rendered.Timestamp)

	p.notify(ctx, logger, runID, written)
	if req.Display {
		for _, a := range written {
			if a.Kind == domain.ArtifactChartPage {
				p.display(logger, a.Path)
			}
		}
	}
	return &ChartResult{RunID: runID, Charts: rendered, Document: doc, Written: written}, nil
}

func (p *Pipeline) readVisits(ctx context.Context, input string, schema domain.Schema) ([]domain.Visit, error) {
	visits, stats, err := p.visits.ReadVisits(ctx, input, schema)
	if err != nil {
		return nil, err
	}
	p.metrics.RowsLoaded.Add(float64(stats.Rows))
	p.metrics.CoercedCells.WithLabelValues(domain.ColumnMonths).Add(float64(stats.MissingMonths))
	p.metrics.CoercedCells.WithLabelValues(domain.ColumnDaysStayed).Add(float64(stats.MissingDays))
	p.metrics.CoercedCells.WithLabelValues(domain.ColumnVisitDate).Add(float64(stats.MissingDates))
	return visits, nil
}

// notify publishes events for written artifacts. Failures are logged only.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, runID string, written []domain.Artifact) {
	if p.opts.Notifier == nil || len(written) == 0 {
		return
	}
	now := p.clock.Now()
	events := make([]domain.ArtifactEvent, len(written))
	for i, a := range written {
		events[i] = domain.NewArtifactEvent(runID, a, now)
	}
	if err := p.opts.Notifier.Notify(ctx, events); err != nil {
		p.metrics.NotifyErrors.Inc()
		logger.Warn("artifact notification failed", "error", err)
	}
}

func (p *Pipeline) display(logger *slog.Logger, path string) {
	if p.opts.Displayer == nil {
		return
	}
	if err := p.opts.Displayer.Display(path); err != nil {
		logger.Warn("display failed", "path", path, "error", err)
	}
}

func (p *Pipeline) finish(kind string, logger *slog.Logger, start time.Time, err *error) {
	p.metrics.RenderDuration.WithLabelValues(kind).Observe(p.clock.Since(start).Seconds())
	if *err != nil {
		p.metrics.Runs.WithLabelValues(kind, "error").Inc()
		var missing *domain.MissingColumnsError
		if errors.As(*err, &missing) {
			logger.Warn("render aborted", "missing_columns", missing.Missing)
			return
		}
		logger.Error("render failed", "error", *err)
		return
	}
	p.metrics.Runs.WithLabelValues(kind, "success").Inc()
}
