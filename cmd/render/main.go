// Command render reads a visit CSV and writes the interactive map and the
// chart set to disk.
//
// Usage:
//
//	go run ./cmd/render \
//	  -input MyUSAVisit.csv \
//	  -boundary ne_110m_admin_1_states_provinces.shp \
//	  -map-out MyUSAVisit.html \
//	  -charts -display
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/pkg/browser"

	"github.com/couchcryptid/state-visit-map/internal/adapter/boundary"
	"github.com/couchcryptid/state-visit-map/internal/adapter/csvfile"
	"github.com/couchcryptid/state-visit-map/internal/adapter/filestore"
	kafkaadapter "github.com/couchcryptid/state-visit-map/internal/adapter/kafka"
	"github.com/couchcryptid/state-visit-map/internal/observability"
	"github.com/couchcryptid/state-visit-map/internal/pipeline"
	"github.com/couchcryptid/state-visit-map/internal/render/chart"
	"github.com/couchcryptid/state-visit-map/internal/render/mapview"
)

type flags struct {
	input, boundary, mapOut      string
	codeField, nameField, prefix string
	imageDir, htmlDir, reportDir string
	charts, display, workbook    bool
	kafkaBrokers, kafkaTopic     string
	logLevel, logFormat          string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var f flags
	flag.StringVar(&f.input, "input", "", "visit CSV file")
	flag.StringVar(&f.boundary, "boundary", "ne_110m_admin_1_states_provinces.shp", "state boundary shapefile or GeoJSON")
	flag.StringVar(&f.mapOut, "map-out", "", "write the map document here (skipped when empty)")
	flag.StringVar(&f.codeField, "code-field", "iso_3166_2", "boundary attribute holding the region code")
	flag.StringVar(&f.nameField, "name-field", "name", "boundary attribute holding the region name")
	flag.StringVar(&f.prefix, "code-prefix", "US-", "prefix removed from boundary codes")
	flag.StringVar(&f.imageDir, "image-dir", "output/images", "chart image directory")
	flag.StringVar(&f.htmlDir, "html-dir", "output/html", "chart page directory")
	flag.StringVar(&f.reportDir, "report-dir", "output/reports", "workbook directory")
	flag.BoolVar(&f.charts, "charts", false, "render the chart set")
	flag.BoolVar(&f.display, "display", false, "open written pages in the browser")
	flag.BoolVar(&f.workbook, "workbook", true, "export the aggregate workbook with the charts")
	flag.StringVar(&f.kafkaBrokers, "kafka-brokers", "", "comma-separated brokers for artifact events (disabled when empty)")
	flag.StringVar(&f.kafkaTopic, "kafka-topic", "visit-artifacts", "artifact event topic")
	flag.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.StringVar(&f.logFormat, "log-format", "text", "json or text")
	flag.Parse()

	if f.input == "" || (f.mapOut == "" && !f.charts) {
		flag.Usage()
		return fmt.Errorf("missing required flags: -input and one of -map-out, -charts")
	}

	logger := sharedobs.NewLogger(f.logLevel, f.logFormat)
	metrics := observability.NewMetrics()

	boundaries, err := boundary.NewSource(boundary.Options{
		CodeField:  f.codeField,
		NameField:  f.nameField,
		CodePrefix: f.prefix,
	}, 1, metrics)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		BoundaryPath: f.boundary,
		Map:          mapview.DefaultOptions(),
		Charts: chart.Options{
			ImageBaseURL: relativeImageBase(f.htmlDir, f.imageDir),
			Workbook:     f.workbook,
		},
		Displayer: browserDisplayer{},
	}
	if f.kafkaBrokers != "" {
		w := kafkaadapter.NewWriter(sharedcfg.ParseBrokers(f.kafkaBrokers), f.kafkaTopic, logger)
		defer w.Close()
		opts.Notifier = w
	}

	store := filestore.New(filestore.Dirs{Images: f.imageDir, Pages: f.htmlDir, Reports: f.reportDir})
	p := pipeline.New(csvfile.Reader{}, boundaries, store, opts, logger, metrics)
	ctx := context.Background()

	if f.mapOut != "" {
		res, err := p.RenderMap(ctx, pipeline.MapRequest{Input: f.input, OutputPath: f.mapOut, Display: f.display})
		if err != nil {
			return fmt.Errorf("render map: %w", err)
		}
		log.Printf("wrote map: %s (%d markers)", res.Artifact.Path, len(res.Map.Markers))
		if orphans := res.Coverage.OrphanVisits; len(orphans) > 0 {
			log.Printf("visits with no boundary: %s", strings.Join(orphans, ", "))
		}
	}

	if f.charts {
		res, err := p.RenderCharts(ctx, pipeline.ChartRequest{Input: f.input, Display: f.display})
		if err != nil {
			return fmt.Errorf("render charts: %w", err)
		}
		for _, a := range res.Written {
			log.Printf("wrote %s: %s", a.Kind, a.Path)
		}
	}
	return nil
}

// relativeImageBase returns the image directory as seen from the page
// directory, so pages opened from disk find their images.
func relativeImageBase(htmlDir, imageDir string) string {
	rel, err := filepath.Rel(htmlDir, imageDir)
	if err != nil {
		abs, absErr := filepath.Abs(imageDir)
		if absErr != nil {
			return imageDir
		}
		return "file://" + filepath.ToSlash(abs) + "/"
	}
	return filepath.ToSlash(rel) + "/"
}

type browserDisplayer struct{}

func (browserDisplayer) Display(path string) error {
	return browser.OpenFile(path)
}
