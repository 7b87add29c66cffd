package http

import (
	"net/http"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/logger"
)

// DashboardHandler exposes the admin dashboard sections
type DashboardHandler struct {
	service domain.DashboardService
	logger  logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service domain.DashboardService, logger logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/dashboard.stats", h.handleStats)
	mux.HandleFunc("/api/dashboard.daily", h.handleDaily)
	mux.HandleFunc("/api/dashboard.hourly", h.handleHourly)
	mux.HandleFunc("/api/dashboard.top_contacts", h.handleTopContacts)
	mux.HandleFunc("/api/dashboard.recent_contacts", h.handleRecentContacts)
	mux.HandleFunc("/api/dashboard.refresh", h.handleRefresh)
	mux.HandleFunc("/api/dashboard.snapshot", h.handleSnapshot)
}

// section writes a single section or a 500 naming it
func (h *DashboardHandler) section(w http.ResponseWriter, name string, data interface{}, err error) {
	if err != nil {
		h.logger.WithField("section", name).WithField("error", err.Error()).Error("Failed to load dashboard section")
		WriteJSONError(w, "Failed to load "+name, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{name: data})
}

func (h *DashboardHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	stats, err := h.service.Stats(r.Context())
	h.section(w, domain.SectionStats, stats, err)
}

func (h *DashboardHandler) handleDaily(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	daily, err := h.service.DailyVisits(r.Context())
	h.section(w, domain.SectionDaily, daily, err)
}

func (h *DashboardHandler) handleHourly(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	hourly, err := h.service.HourlyVisits(r.Context())
	h.section(w, domain.SectionHourly, hourly, err)
}

func (h *DashboardHandler) handleTopContacts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	top, err := h.service.TopContacts(r.Context())
	h.section(w, domain.SectionTopContacts, top, err)
}

func (h *DashboardHandler) handleRecentContacts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	recent, err := h.service.RecentContacts(r.Context())
	h.section(w, domain.SectionRecentContacts, recent, err)
}

// handleRefresh recomputes every section. Failed sections are reported in
// the snapshot's errors, the request itself still succeeds.
func (h *DashboardHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Refresh(r.Context()))
}

func (h *DashboardHandler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Latest(r.Context()))
}
