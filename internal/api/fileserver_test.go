// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileServerFixture(t *testing.T) (*Server, string) {
	t.Helper()
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "App.jsx"), []byte("const App = 1;\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.OutputDir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "sub", "nested.js"), []byte("x"), 0o644))
	return New(cfg, nil, nil), cfg.OutputDir
}

func TestFileServerServesArtifacts(t *testing.T) {
	s, _ := newFileServerFixture(t)

	rr := doRequest(s, http.MethodGet, "/files/App.jsx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "const App = 1;\n", rr.Body.String())
	assert.Equal(t, "text/javascript; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("ETag"))

	rr = doRequest(s, http.MethodGet, "/files/sub/nested.js", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestFileServerETagRevalidation(t *testing.T) {
	s, _ := newFileServerFixture(t)

	rr := doRequest(s, http.MethodGet, "/files/App.jsx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/files/App.jsx", nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotModified, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestFileServerMissingFile(t *testing.T) {
	s, _ := newFileServerFixture(t)

	rr := doRequest(s, http.MethodGet, "/files/nope.jsx", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFileServerRejectsWrites(t *testing.T) {
	s, _ := newFileServerFixture(t)

	rr := doRequest(s, http.MethodPost, "/files/App.jsx", "data")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestFileServerDeniesTraversal(t *testing.T) {
	s, outDir := newFileServerFixture(t)

	// Plant a secret outside the served tree.
	secret := filepath.Join(filepath.Dir(outDir), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep out"), 0o600))

	handler := s.fileServer()
	for _, path := range []string{
		"/../secret.txt",
		"../secret.txt",
		"/..%2Fsecret.txt",
		"/a/../../secret.txt",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = path
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.NotEqual(t, http.StatusOK, rr.Code, path)
		assert.NotContains(t, rr.Body.String(), "keep out", path)
	}
}

func TestFileServerDeniesSymlinkEscape(t *testing.T) {
	s, outDir := newFileServerFixture(t)

	secret := filepath.Join(filepath.Dir(outDir), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep out"), 0o600))
	require.NoError(t, os.Symlink(secret, filepath.Join(outDir, "link.txt")))

	rr := doRequest(s, http.MethodGet, "/files/link.txt", "")
	assert.NotEqual(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "keep out")
}

func TestFileServerDeniesDirectoryListing(t *testing.T) {
	s, _ := newFileServerFixture(t)

	for _, target := range []string{"/files/", "/files/sub/"} {
		rr := doRequest(s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusForbidden, rr.Code, target)
	}

	// A directory addressed without a trailing slash is still denied.
	rr := doRequest(s, http.MethodGet, "/files/sub", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
