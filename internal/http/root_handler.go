package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/visitor"
)

// HeartbeatInterval is how often pages report presence
const HeartbeatInterval = 30 * time.Second

// HealthCheck probes the data backend
type HealthCheck func(ctx context.Context) error

// RootHandler serves the page configuration, the health probe, the static
// pages when a directory is configured, and JSON 404s for unknown API paths
type RootHandler struct {
	pagesDir string
	version  string
	locale   string
	health   HealthCheck
	logger   logger.Logger
}

// NewRootHandler creates a root handler. pagesDir may be empty.
func NewRootHandler(pagesDir, version, locale string, health HealthCheck, logger logger.Logger) *RootHandler {
	return &RootHandler{
		pagesDir: pagesDir,
		version:  version,
		locale:   locale,
		health:   health,
		logger:   logger,
	}
}

// RegisterRoutes registers the root routes, including the catch all
func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/config.js", h.serveConfigJS)
	mux.HandleFunc("/api/health", h.handleHealth)
	mux.HandleFunc("/api/", h.handleUnknownAPI)
	mux.HandleFunc("/", h.Handle)
}

// Handle serves the static pages, or a service banner without them
func (h *RootHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.pagesDir != "" {
		h.servePages(w, r)
		return
	}
	if r.URL.Path != "/" {
		WriteJSONError(w, "Not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "dalil",
		"version": h.version,
	})
}

func (h *RootHandler) servePages(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.pagesDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err != nil || info.IsDir() && !hasIndex(path) {
		http.ServeFile(w, r, filepath.Join(h.pagesDir, "index.html"))
		return
	}
	http.FileServer(http.Dir(h.pagesDir)).ServeHTTP(w, r)
}

func hasIndex(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil
}

// serveConfigJS tells the pages where the API lives and how to track
func (h *RootHandler) serveConfigJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	configJS := fmt.Sprintf(
		"window.API_ENDPOINT = %q;\nwindow.VERSION = %q;\nwindow.LOCALE = %q;\nwindow.VISITOR_COOKIE = %q;\nwindow.HEARTBEAT_INTERVAL_MS = %d;\nwindow.PRESENCE_TTL_MS = %d;",
		"/api",
		h.version,
		h.locale,
		visitor.CookieName,
		HeartbeatInterval.Milliseconds(),
		domain.PresenceTTL.Milliseconds(),
	)
	_, _ = w.Write([]byte(configJS))
}

func (h *RootHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.logger.WithField("error", err.Error()).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *RootHandler) handleUnknownAPI(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/api/")
	WriteJSONError(w, fmt.Sprintf("Unknown method: %s", method), http.StatusNotFound)
}
