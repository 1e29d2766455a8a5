package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/state-visit-map/internal/adapter/csvfile"
	"github.com/couchcryptid/state-visit-map/internal/domain"
	"github.com/couchcryptid/state-visit-map/internal/pipeline"
)

const (
	inputParam  = "InputData"
	formatParam = "format"

	msgMissingInput = "Error: InputData parameter is missing."
)

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	input, path, ok := s.inputPath(w, r)
	if !ok {
		return
	}
	res, err := s.renderer.RenderMap(r.Context(), pipeline.MapRequest{
		Input:    path,
		Fragment: r.URL.Query().Get(formatParam) != "document",
	})
	if err != nil {
		s.renderError(w, input, err)
		return
	}
	writeHTML(w, res.HTML)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	input, path, ok := s.inputPath(w, r)
	if !ok {
		return
	}
	res, err := s.renderer.RenderCharts(r.Context(), pipeline.ChartRequest{Input: path})
	if err != nil {
		s.renderError(w, input, err)
		return
	}
	writeHTML(w, res.Document)
}

func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	path, err := s.artifacts.Path(domain.ArtifactChartPage, chi.URLParam(r, "name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// inputPath reads InputData and resolves it under the data directory. It
// writes the plain-text error response itself and returns false when the
// request cannot proceed.
func (s *Server) inputPath(w http.ResponseWriter, r *http.Request) (input, path string, ok bool) {
	input = r.URL.Query().Get(inputParam)
	if input == "" {
		writeText(w, http.StatusOK, msgMissingInput)
		return "", "", false
	}
	path = resolveInput(s.dataDir, input)
	if _, err := os.Stat(path); err != nil {
		writeText(w, http.StatusOK, notFoundMessage(input))
		return "", "", false
	}
	return input, path, true
}

// resolveInput joins input onto dir. Cleaning input as a rooted path drops
// any leading "..", so the result cannot escape dir.
func resolveInput(dir, input string) string {
	return filepath.Join(dir, filepath.Clean(string(filepath.Separator)+input))
}

func (s *Server) renderError(w http.ResponseWriter, input string, err error) {
	if errors.Is(err, csvfile.ErrInputNotFound) {
		writeText(w, http.StatusOK, notFoundMessage(input))
		return
	}
	s.logger.Error("render request failed", "input", input, "error", err)
	writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
}

func notFoundMessage(input string) string {
	return fmt.Sprintf("Error: CSV file '%s' not found.", input)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client went away
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg)) //nolint:errcheck // client went away
}
