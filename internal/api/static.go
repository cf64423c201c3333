package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yegors/infotavla/pkg/logger"
)

// Weather icons never change once deployed; the page itself must not be cached
// so a kiosk picks up new markup on reload.
const (
	iconPrefix     = "icons/"
	iconCacheValue = "public, max-age=86400"
	pageCacheValue = "no-cache, no-store, must-revalidate"
)

// StaticFileHandler serves the dashboard page and its weather icons
type StaticFileHandler struct {
	staticDir string
	logger    *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(staticDir string, log *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		staticDir: staticDir,
		logger:    log.Named("static-handler"),
	}
}

// ServeHTTP serves files from the static directory
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolve(r.URL.Path)
	if !ok {
		h.logger.Warn("Rejected static path outside root", logger.String("requested_path", r.URL.Path))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, "index.html")
		info, err = os.Stat(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.Debug("File not found", logger.String("path", path))
			http.NotFound(w, r)
			return
		}
		h.logger.Error("Failed to stat file", logger.Error(err), logger.String("path", path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if strings.HasPrefix(strings.TrimPrefix(r.URL.Path, "/"), iconPrefix) {
		w.Header().Set("Cache-Control", iconCacheValue)
	} else {
		w.Header().Set("Cache-Control", pageCacheValue)
	}

	http.ServeFile(w, r, path)
}

// resolve maps a URL path into the static directory. ok is false when the
// cleaned path would escape it.
func (h *StaticFileHandler) resolve(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(filepath.Clean("/"+urlPath), "/")
	if rel == "" {
		rel = "index.html"
	}

	root, err := filepath.Abs(h.staticDir)
	if err != nil {
		return "", false
	}
	full := filepath.Join(root, rel)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}
