package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/ratelimiter"
)

// multipartMemory is how much of a registration form is held in memory
// before parts spill to temporary files
const multipartMemory = 8 << 20

// WorkerHandler serves the public directory, registration and CSV export
type WorkerHandler struct {
	service       domain.DirectoryService
	limiter       *ratelimiter.RateLimiter
	maxImageBytes int64
	logger        logger.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(
	service domain.DirectoryService,
	limiter *ratelimiter.RateLimiter,
	maxImageBytes int64,
	logger logger.Logger,
) *WorkerHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = domain.DefaultMaxImageBytes
	}
	return &WorkerHandler{
		service:       service,
		limiter:       limiter,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// RegisterRoutes registers the worker routes
func (h *WorkerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/workers.list", h.handleList)
	mux.HandleFunc("/api/workers.jobs", h.handleJobs)
	mux.HandleFunc("/api/workers.register", h.handleRegister)
	mux.HandleFunc("/api/workers.export", h.handleExport)
}

func (h *WorkerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	resp, err := h.service.ListWorkers(r.Context(), domain.ListWorkersRequest{
		Name: query.Get("name"),
		Job:  query.Get("job"),
	})
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list workers")
		WriteJSONError(w, "Failed to load workers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *WorkerHandler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	jobs, err := h.service.JobCategories(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to load job categories")
		WriteJSONError(w, "Failed to load job categories", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

func (h *WorkerHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	// only registrations that get past validation use up the allowance
	ip := clientIP(r)
	limited := h.limiter.Enforces(ratelimiter.NamespaceRegister)
	if limited && h.limiter.Exhausted(ratelimiter.NamespaceRegister, ip) {
		h.logger.WithField("ip", ip).Warn("Registration rate limit exceeded")
		w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds(ratelimiter.NamespaceRegister, ip)))
		WriteJSONError(w, "Too many registrations, try again later", http.StatusTooManyRequests)
		return
	}

	// two images plus the text fields
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxImageBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.WithField("error", err.Error()).Warn("Failed to parse registration form")
		WriteJSONError(w, "Invalid registration form", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := &domain.RegisterWorkerRequest{
		Name:       r.FormValue("name"),
		Job:        r.FormValue("job"),
		CustomJob:  r.FormValue("job_custom"),
		Location:   r.FormValue("location"),
		Phone:      r.FormValue("phone"),
		PhoneOther: r.FormValue("phone_other"),
	}
	var err error
	if req.ProfileImage, err = h.readUpload(r, "profile_image"); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to read profile image")
		WriteJSONError(w, "Invalid profile image", http.StatusBadRequest)
		return
	}
	if req.WorkImage, err = h.readUpload(r, "work_image"); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to read work image")
		WriteJSONError(w, "Invalid work image", http.StatusBadRequest)
		return
	}

	worker, err := h.service.Register(r.Context(), req)
	if err != nil {
		var verr domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   true,
				"message": verr.Message,
				"fields":  verr.Fields,
			})
			return
		}
	}
	if limited {
		h.limiter.Record(ratelimiter.NamespaceRegister, ip)
	}
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to register worker")
		WriteJSONError(w, "Failed to register worker", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"worker": worker,
	})
}

// readUpload returns nil when the field is absent. It reads one byte past
// the limit so oversized files still reach validation.
func (h *WorkerHandler) readUpload(r *http.Request, field string) (*domain.ImageUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &domain.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (h *WorkerHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	body, filename, err := h.service.ExportCSV(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to export workers")
		WriteJSONError(w, "Failed to export workers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
