// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"

	"github.com/greysonlalonde/js-utilities/internal/history"
	"github.com/greysonlalonde/js-utilities/internal/jobs"
	"github.com/greysonlalonde/js-utilities/internal/testutil"
)

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		root, err := testutil.RepoRoot()
		if err != nil {
			openapiErr = err
			return
		}
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromFile(filepath.Join(root, "api", "openapi.yaml"))
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

// validateOpenAPIResponse checks a recorded response against the
// documented contract for its route.
func validateOpenAPIResponse(t *testing.T, req *http.Request, rr *httptest.ResponseRecorder) {
	t.Helper()
	doc := loadOpenAPIDoc(t)

	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup for %s %s", req.Method, req.URL.Path)

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rr.Code,
		Header: rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())

	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input),
		"%s %s -> %d violates the contract", req.Method, req.URL.Path, rr.Code)
}

func contractRequest(t *testing.T, s *Server, method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/yaml")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return req, rr
}

func TestContractHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	req, rr := contractRequest(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)

	req, rr = contractRequest(t, s, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	validateOpenAPIResponse(t, req, rr)

	s.SetStatus(*okStatus())
	req, rr = contractRequest(t, s, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)
}

func TestContractStatus(t *testing.T) {
	s := newTestServer(t)
	s.SetStatus(*okStatus())

	req, rr := contractRequest(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)
}

func TestContractRefresh(t *testing.T) {
	s := newTestServer(t)
	s.generateFn = func(_ context.Context, _ jobs.Config) (*jobs.Status, error) {
		return okStatus(), nil
	}

	req, rr := contractRequest(t, s, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)
}

func TestContractRefreshConflict(t *testing.T) {
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
	go func() {
		defer wg.Done()
		_, _ = contractRequest(t, s, http.MethodPost, "/api/refresh", "")
	}()
	<-started

	req, rr := contractRequest(t, s, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusConflict, rr.Code)
	validateOpenAPIResponse(t, req, rr)

	close(release)
	wg.Wait()
}

func TestContractHistory(t *testing.T) {
	s := newTestServer(t)

	req, rr := contractRequest(t, s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)

	req, rr = contractRequest(t, s, http.MethodGet, "/api/history?limit=999", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	validateOpenAPIResponse(t, req, rr)
}

func TestContractHistoryRun(t *testing.T) {
	h, err := history.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	now := time.Now().UTC()
	id, err := h.Record(context.Background(), history.Run{
		StartedAt:   now,
		FinishedAt:  now.Add(time.Second),
		Result:      history.ResultOK,
		TriggeredBy: history.TriggerAPI,
	})
	require.NoError(t, err)

	s := New(testConfig(t), nil, h)

	req, rr := contractRequest(t, s, http.MethodGet, "/api/history/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)

	req, rr = contractRequest(t, s, http.MethodGet, "/api/history/missing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	validateOpenAPIResponse(t, req, rr)
}

func TestContractRender(t *testing.T) {
	s := newTestServer(t)

	body := "name: Widget\nfunctional: true\ntype: section\n"
	req, rr := contractRequest(t, s, http.MethodPost, "/api/render", body)
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, req, rr)

	req, rr = contractRequest(t, s, http.MethodPost, "/api/render", "type: div")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	validateOpenAPIResponse(t, req, rr)
}
