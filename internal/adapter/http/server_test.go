package http_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/state-visit-map/internal/adapter/csvfile"
	"github.com/couchcryptid/state-visit-map/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/state-visit-map/internal/adapter/http"
	"github.com/couchcryptid/state-visit-map/internal/domain"
	"github.com/couchcryptid/state-visit-map/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockRenderer struct {
	mapReq   pipeline.MapRequest
	chartReq pipeline.ChartRequest
	err      error
}

func (m *mockRenderer) RenderMap(_ context.Context, req pipeline.MapRequest) (*pipeline.MapResult, error) {
	m.mapReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.MapResult{HTML: []byte("<div id=\"map\"></div>")}, nil
}

func (m *mockRenderer) RenderCharts(_ context.Context, req pipeline.ChartRequest) (*pipeline.ChartResult, error) {
	m.chartReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.ChartResult{Document: []byte("<html>charts</html>")}, nil
}

type testEnv struct {
	srv      *httpadapter.Server
	renderer *mockRenderer
	dataDir  string
	pageDir  string
	imageDir string
}

func newTestEnv(t *testing.T, readyErr error) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		renderer: &mockRenderer{},
		dataDir:  filepath.Join(root, "data"),
		pageDir:  filepath.Join(root, "html"),
		imageDir: filepath.Join(root, "images"),
	}
	for _, d := range []string{env.dataDir, env.pageDir, env.imageDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(env.dataDir, "visits.csv"), []byte("Months\n"), 0o600))

	store := filestore.New(filestore.Dirs{Images: env.imageDir, Pages: env.pageDir})
	env.srv = httpadapter.NewServer(httpadapter.Options{
		Addr:           ":0",
		DataDir:        env.dataDir,
		ImageDir:       env.imageDir,
		AllowedOrigins: []string{"https://embed.example"},
	}, env.renderer, store, &mockReadiness{err: readyErr}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return env
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := newTestEnv(t, nil).get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	assert.Equal(t, http.StatusOK, newTestEnv(t, nil).get("/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, newTestEnv(t, fmt.Errorf("boundary file not loaded")).get("/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newTestEnv(t, nil).get("/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGeoSpatialGraph(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get("/GeoSpatialGraph?InputData=visits.csv")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<div id="map"></div>`, rec.Body.String())
	assert.Equal(t, filepath.Join(env.dataDir, "visits.csv"), env.renderer.mapReq.Input)
	assert.True(t, env.renderer.mapReq.Fragment, "the embeddable fragment is the default")
	assert.Empty(t, env.renderer.mapReq.OutputPath, "the server never persists maps")
}

func TestGeoSpatialGraph_Format(t *testing.T) {
	tests := []struct {
		query    string
		fragment bool
	}{
		{"", true},
		{"&format=fragment", true},
		{"&format=document", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.get("/GeoSpatialGraph?InputData=visits.csv" + tt.query)
			assert.Equal(t, tt.fragment, env.renderer.mapReq.Fragment)
		})
	}
}

func TestInputErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"map missing param", "/GeoSpatialGraph", "Error: InputData parameter is missing."},
		{"map empty param", "/GeoSpatialGraph?InputData=", "Error: InputData parameter is missing."},
		{"map missing file", "/GeoSpatialGraph?InputData=nope.csv", "Error: CSV file 'nope.csv' not found."},
		{"map escape", "/GeoSpatialGraph?InputData=../../etc/passwd", "Error: CSV file '../../etc/passwd' not found."},
		{"charts missing param", "/Charts", "Error: InputData parameter is missing."},
		{"charts missing file", "/Charts?InputData=nope.csv", "Error: CSV file 'nope.csv' not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.get(tt.path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, rec.Body.String())
			assert.Empty(t, env.renderer.mapReq.Input, "renderer must not run")
		})
	}
}

func TestRenderFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.renderer.err = fmt.Errorf("visits.csv: %w", &domain.MissingColumnsError{Missing: []string{"Months", "Days_stayed"}})

	rec := env.get("/GeoSpatialGraph?InputData=visits.csv")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error: visits.csv: missing required columns: Months, Days_stayed", rec.Body.String())
}

func TestRenderInputVanished(t *testing.T) {
	env := newTestEnv(t, nil)
	env.renderer.err = fmt.Errorf("%w: %w", csvfile.ErrInputNotFound, os.ErrNotExist)

	rec := env.get("/Charts?InputData=visits.csv")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Error: CSV file 'visits.csv' not found.", rec.Body.String())
}

func TestCharts(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get("/Charts?InputData=visits.csv")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>charts</html>", rec.Body.String())
	assert.Equal(t, filepath.Join(env.dataDir, "visits.csv"), env.renderer.chartReq.Input)
	assert.False(t, env.renderer.chartReq.Display)
}

func TestChartPage(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(env.pageDir, "Total_Days_Stayed_by_State.html"), []byte("<section>chart</section>"), 0o600))

	rec := env.get("/charts/Total_Days_Stayed_by_State.html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<section>chart</section>", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, env.get("/charts/missing.html").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/charts/..").Code)
}

func TestImages(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(env.imageDir, "chart.png"), []byte("png"), 0o600))

	rec := env.get("/images/chart.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/GeoSpatialGraph?InputData=visits.csv", nil)
	req.Header.Set("Origin", "https://embed.example")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, "https://embed.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/GeoSpatialGraph?InputData=visits.csv", nil)
	req.Header.Set("Origin", "https://other.example")
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRenderErrorIsNotMistakenForMissingInput(t *testing.T) {
	env := newTestEnv(t, nil)
	env.renderer.err = errors.New("load boundaries: stat boundary file: no such file or directory")

	rec := env.get("/GeoSpatialGraph?InputData=visits.csv")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChartIndexPage(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(env.pageDir, pipeline.ChartIndexName), []byte("<html>index</html>"), 0o600))

	rec := env.get("/charts/" + pipeline.ChartIndexName)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>index</html>", rec.Body.String())
}
