// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greysonlalonde/js-utilities/internal/config"
	"github.com/greysonlalonde/js-utilities/internal/history"
	"github.com/greysonlalonde/js-utilities/internal/jobs"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DataDir:         dir,
		DefinitionsPath: filepath.Join(dir, "components.yaml"),
		ManifestPath:    filepath.Join(dir, "project.toml"),
		OutputDir:       filepath.Join(dir, "src"),
		Workers:         2,
		Server:          config.ServerSettings{Listen: ":0"},
		Version:         "test",
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(testConfig(t), nil, nil)
}

func okStatus() *jobs.Status {
	return &jobs.Status{
		Version:     "0.1.0",
		GeneratedAt: time.Now().UTC(),
		Components:  2,
		Files:       3,
		Skipped:     1,
		PipelineRan: false,
	}
}

func doRequest(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestReadyzBeforeAndAfterSuccess(t *testing.T) {
	s := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	s.SetStatus(*okStatus())

	rr = doRequest(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReadyzSeededFromStatusFile(t *testing.T) {
	cfg := testConfig(t)
	st := okStatus()
	data, err := json.Marshal(st)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "status.json"), data, 0o644))

	s := New(cfg, nil, nil)
	rr := doRequest(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got jobs.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, st.Components, got.Components)
}

func TestRenderComponent(t *testing.T) {
	s := newTestServer(t)

	body := `
name: Widget
functional: true
type: section
props:
  title: "Hello"
`
	rr := doRequest(s, http.MethodPost, "/api/render", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Widget.jsx", rr.Header().Get("X-Component-Name"))
	assert.Contains(t, rr.Body.String(), "Widget")
}

func TestRenderComponentBadYAML(t *testing.T) {
	s := newTestServer(t)

	rr := doRequest(s, http.MethodPost, "/api/render", "{{{not yaml")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRenderComponentInvalidDefinition(t *testing.T) {
	s := newTestServer(t)

	// Parses fine but has no name, which an exported component needs.
	rr := doRequest(s, http.MethodPost, "/api/render", "type: div")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "invalid_definition", body["error"])
	assert.Contains(t, body["detail"], "name is required")
}

func TestRefreshSuccess(t *testing.T) {
	s := newTestServer(t)
	s.generateFn = func(_ context.Context, cfg jobs.Config) (*jobs.Status, error) {
		assert.Equal(t, history.TriggerAPI, cfg.TriggeredBy)
		return okStatus(), nil
	}

	rr := doRequest(s, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var st jobs.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Components)

	// A successful refresh flips readiness and updates status.
	rr = doRequest(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, 3, st.Files)
}

func TestRefreshConflict(t *testing.T) {
	s := newTestServer(t)

	started := make(chan struct{})
	release := make(chan struct{})
	s.generateFn = func(_ context.Context, _ jobs.Config) (*jobs.Status, error) {
		close(started)
		<-release
		return okStatus(), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	firstCode := 0
	go func() {
		defer wg.Done()
		rr := doRequest(s, http.MethodPost, "/api/refresh", "")
		firstCode = rr.Code
	}()

	<-started

	rr := doRequest(s, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body["error"])

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, firstCode)

	// Flag released, a new refresh goes through.
	s.generateFn = func(_ context.Context, _ jobs.Config) (*jobs.Status, error) {
		return okStatus(), nil
	}
	rr = doRequest(s, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRefreshFailureHidesDetails(t *testing.T) {
	s := newTestServer(t)
	s.generateFn = func(_ context.Context, _ jobs.Config) (*jobs.Status, error) {
		return nil, assert.AnError
	}

	rr := doRequest(s, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())

	rr = doRequest(s, http.MethodGet, "/api/status", "")
	var st jobs.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, "generation failed", st.LastError)
}

func TestHistoryEndpoint(t *testing.T) {
	cfg := testConfig(t)
	h, err := history.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_, err := h.Record(context.Background(), history.Run{
			StartedAt:   now.Add(time.Duration(i) * time.Minute),
			FinishedAt:  now.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Result:      history.ResultOK,
			Components:  i,
			TriggeredBy: history.TriggerCLI,
		})
		require.NoError(t, err)
	}

	s := New(cfg, nil, h)

	rr := doRequest(s, http.MethodGet, "/api/history?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var runs []runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Components)
	assert.Equal(t, int64(30000), runs[0].DurationMS)

	rr = doRequest(s, http.MethodGet, "/api/history?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(s, http.MethodGet, "/api/history?limit=junk", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryEndpointWithoutStore(t *testing.T) {
	s := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestHistoryRunEndpoint(t *testing.T) {
	cfg := testConfig(t)
	h, err := history.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	now := time.Now().UTC()
	id, err := h.Record(context.Background(), history.Run{
		StartedAt:   now,
		FinishedAt:  now.Add(45 * time.Second),
		Result:      history.ResultError,
		Components:  7,
		TriggeredBy: history.TriggerWatch,
		Error:       "pipeline step failed",
	})
	require.NoError(t, err)

	s := New(cfg, nil, h)

	rr := doRequest(s, http.MethodGet, "/api/history/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var run runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, id, run.ID)
	assert.Equal(t, history.ResultError, run.Result)
	assert.Equal(t, int64(45000), run.DurationMS)
	assert.Equal(t, "pipeline step failed", run.Error)

	rr = doRequest(s, http.MethodGet, "/api/history/no-such-run", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
}

func TestHistoryRunEndpointWithoutStore(t *testing.T) {
	s := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/api/history/abc", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rr := doRequest(s, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rr.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "fixed-id", rr.Header().Get(HeaderRequestID))
}

func TestRecoverPanics(t *testing.T) {
	s := newTestServer(t)
	s.generateFn = func(_ context.Context, _ jobs.Config) (*jobs.Status, error) {
		panic("boom")
	}

	rr := doRequest(s, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}
