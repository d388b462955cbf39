// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/greysonlalonde/js-utilities/internal/fsutil"
	"github.com/greysonlalonde/js-utilities/internal/log"
)

// fileServer serves generated artifacts read-only. Every request path
// is confined to the output directory; traversal sequences, absolute
// paths and symlink escapes are rejected. Directory listings are
// forbidden.
func (s *Server) fileServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET and HEAD are served")
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" || strings.HasSuffix(path, "/") {
			logger.Warn().
				Str("event", "file_req.denied").
				Str("path", r.URL.Path).
				Str("reason", "directory_listing").
				Msg("directory listing forbidden")
			writeError(w, http.StatusForbidden, "forbidden", "directory listing forbidden")
			return
		}

		outputDir := s.currentConfig().OutputDir

		realPath, err := fsutil.ConfineRelPath(outputDir, path)
		if err != nil {
			if os.IsNotExist(err) {
				writeError(w, http.StatusNotFound, "not_found", "file not found")
				return
			}
			logger.Warn().
				Str("event", "file_req.denied").
				Str("path", path).
				Str("reason", "path_escape").
				Msg("path rejected")
			writeError(w, http.StatusForbidden, "forbidden", "path rejected")
			return
		}

		if err := fsutil.IsRegularFile(realPath); err != nil {
			if os.IsNotExist(err) {
				writeError(w, http.StatusNotFound, "not_found", "file not found")
				return
			}
			writeError(w, http.StatusForbidden, "forbidden", "not a regular file")
			return
		}

		// #nosec G304 -- realPath is confined to the output directory
		f, err := os.Open(realPath)
		if err != nil {
			logger.Error().
				Err(err).
				Str("event", "file_req.internal_error").
				Str("path", realPath).
				Msg("could not open file")
			writeError(w, http.StatusInternalServerError, "internal", "could not open file")
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "could not stat file")
			return
		}

		// Weak validator from modtime and size; enough for artifacts
		// that are rewritten atomically.
		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=60")

		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", contentTypeFor(realPath))
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".jsx"), strings.HasSuffix(path, ".js"):
		return "text/javascript; charset=utf-8"
	case strings.HasSuffix(path, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
