package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/osint"
)

// Handlers bundles the HTTP handlers for the analysis and OSINT endpoints.
type Handlers struct {
	service    *core.AnalysisService
	enricher   *osint.Enricher
	aggregator *osint.Aggregator
	logger     *zap.Logger
	owner      string
	startTime  time.Time
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(service *core.AnalysisService, enricher *osint.Enricher, aggregator *osint.Aggregator, logger *zap.Logger, owner string) *Handlers {
	return &Handlers{
		service:    service,
		enricher:   enricher,
		aggregator: aggregator,
		logger:     logger,
		owner:      owner,
		startTime:  time.Now(),
	}
}

type statusResponse struct {
	Status    string `json:"status"`
	ModelMode string `json:"model_mode"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

type analyzeRequest struct {
	Sender  string            `json:"sender"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

type osintScanRequest struct {
	URLs       []string `json:"urls"`
	AnalysisID string   `json:"analysis_id"`
}

type osintScanResponse struct {
	Artifacts []core.Artifact `json:"artifacts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Status handles GET /status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	info := h.service.ModelInfo()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "ok",
		ModelMode: string(info.Mode),
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Analyze handles POST /analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	email := &core.EmailInput{
		Sender:  req.Sender,
		Subject: req.Subject,
		Body:    req.Body,
		Headers: req.Headers,
	}

	record, err := h.service.Analyze(r.Context(), email, h.owner)
	if err != nil {
		if errors.Is(err, core.ErrEmptySubject) || errors.Is(err, core.ErrEmptyBody) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// ListEmails handles GET /emails
func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	records, err := h.service.List(r.Context(), h.owner, limit)
	if err != nil {
		h.logger.Error("Failed to list analyses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if records == nil {
		records = []*core.AnalysisRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// ClearEmails handles DELETE /emails
func (h *Handlers) ClearEmails(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearHistory(r.Context(), h.owner)
	if err != nil {
		h.logger.Error("Failed to clear analysis history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear analysis history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// GetEmail handles GET /emails/{id}
func (h *Handlers) GetEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.service.Get(r.Context(), id, h.owner)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		h.logger.Error("Failed to load analysis", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// OsintScan handles POST /osint/scan
func (h *Handlers) OsintScan(w http.ResponseWriter, r *http.Request) {
	var req osintScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls must not be empty")
		return
	}

	artifacts, err := h.enricher.Enrich(r.Context(), req.URLs, req.AnalysisID, h.owner)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		h.logger.Error("Enrichment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "enrichment failed")
		return
	}
	if artifacts == nil {
		artifacts = []core.Artifact{}
	}

	writeJSON(w, http.StatusOK, osintScanResponse{Artifacts: artifacts})
}

// OsintSummary handles GET /osint/summary
func (h *Handlers) OsintSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.aggregator.Summary(r.Context(), h.owner)
	if err != nil {
		h.logger.Error("Failed to build OSINT summary", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ModelInfo handles GET /model/info
func (h *Handlers) ModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ModelInfo())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
