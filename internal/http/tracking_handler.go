package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/botdetection"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/ratelimiter"
	"github.com/dalilfazara/dalil/pkg/visitor"
)

// TrackingHandler receives page visits, heartbeats, contact clicks and page
// leaves. Every endpoint answers 204 once the method is right so tracking
// never blocks a page.
type TrackingHandler struct {
	service domain.TrackingService
	limiter *ratelimiter.RateLimiter
	cookie  visitor.Options
	logger  logger.Logger
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(
	service domain.TrackingService,
	limiter *ratelimiter.RateLimiter,
	cookie visitor.Options,
	logger logger.Logger,
) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		limiter: limiter,
		cookie:  cookie,
		logger:  logger,
	}
}

// RegisterRoutes registers the tracking routes
func (h *TrackingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tracking.visit", h.handleVisit)
	mux.HandleFunc("/api/tracking.heartbeat", h.handleHeartbeat)
	mux.HandleFunc("/api/tracking.contact", h.handleContact)
	mux.HandleFunc("/api/tracking.leave", h.handleLeave)
}

// detached keeps the write alive when the page is already gone
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// pageURL falls back to the referring page path when the body has none
func pageURL(r *http.Request, req domain.PageVisitRequest) string {
	if req.PageURL != "" {
		return req.PageURL
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		return ref.Path
	}
	return "/"
}

func (h *TrackingHandler) readVisit(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if !allowMethod(w, r, http.MethodPost) {
		return "", "", false
	}
	if botdetection.ShouldSkip(r) {
		w.WriteHeader(http.StatusNoContent)
		return "", "", false
	}

	var req domain.PageVisitRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to decode page visit")
		w.WriteHeader(http.StatusNoContent)
		return "", "", false
	}
	if err := req.Validate(); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Ignoring invalid page visit")
		w.WriteHeader(http.StatusNoContent)
		return "", "", false
	}

	id := visitor.GetOrCreate(w, r, h.cookie)
	return id, pageURL(r, req), true
}

func (h *TrackingHandler) handleVisit(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.readVisit(w, r)
	if !ok {
		return
	}
	h.service.TrackPageVisit(detached(r), id, page)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrackingHandler) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.readVisit(w, r)
	if !ok {
		return
	}
	h.service.UpdateActiveVisitor(detached(r), id, page)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrackingHandler) handleContact(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if botdetection.ShouldSkip(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req domain.ContactClickRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to decode contact click")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	id := visitor.GetOrCreate(w, r, h.cookie)
	if h.limiter.Enforces(ratelimiter.NamespaceContact) {
		if d := h.limiter.Check(ratelimiter.NamespaceContact, id); !d.Allowed {
			h.logger.WithField("visitor_id", id).Warn("Contact click rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds(ratelimiter.NamespaceContact, id)))
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	h.service.TrackContactClick(detached(r), id, req)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrackingHandler) handleLeave(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if id, ok := visitor.FromRequest(r); ok {
		h.service.StopTracking(detached(r), id)
	}
	w.WriteHeader(http.StatusNoContent)
}
