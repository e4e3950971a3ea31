package handler

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lumenrehab/casedata/internal/api/respond"
	"github.com/lumenrehab/casedata/internal/cache"
	"github.com/lumenrehab/casedata/internal/report"
)

// GenerateReport forwards an aggregated-statistics payload to the report
// generator and returns the narrative report.
//
// Identical payloads within the cache TTL are served from cache to avoid
// repeated upstream calls for the same dashboard view.
//
// @Summary Generate narrative system report
// @Description Forwards aggregated system statistics to the LLM and returns the parsed narrative report.
// @Tags admin
// @Accept json
// @Produce json
// @Param stats body map[string]interface{} true "Aggregated system statistics"
// @Success 200 {object} report.Report
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /admin/reports/system [post]
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var stats map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PAYLOAD",
			"Request body must be a JSON object of aggregated statistics")
		return
	}
	if len(stats) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "EMPTY_PAYLOAD",
			"Statistics payload is empty")
		return
	}

	key := reportCacheKey(stats)
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLReport, true)
		return
	}

	rep, err := h.reports.Generate(r.Context(), stats)
	if err != nil {
		h.writeReportError(w, err)
		return
	}

	data, err := json.Marshal(rep)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED",
			"Failed to encode report")
		return
	}

	etag := h.cache.Set(key, data, cache.TTLReport)
	respond.WriteJSON(w, data, etag, cache.TTLReport, false)
}

// writeReportError maps upstream failure classes to distinct user-facing
// messages. Non-production responses carry the underlying error detail.
func (h *Handler) writeReportError(w http.ResponseWriter, err error) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, report.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "REPORTS_DISABLED"
		message = "Report generation is not configured on this deployment"
	case errors.Is(err, report.ErrUnauthorized):
		status, code = http.StatusBadGateway, "UPSTREAM_UNAUTHORIZED"
		message = "The report service rejected our credentials. Contact your administrator."
	case errors.Is(err, report.ErrRateLimited):
		status, code = http.StatusBadGateway, "UPSTREAM_RATE_LIMITED"
		message = "The report service is rate limiting requests. Try again in a few minutes."
	case errors.Is(err, report.ErrUnreachable):
		status, code = http.StatusBadGateway, "UPSTREAM_UNREACHABLE"
		message = "The report service could not be reached. Try again shortly."
	default:
		status, code = http.StatusBadGateway, "REPORT_FAILED"
		message = "Report generation failed"
	}

	if h.cfg.IsProduction() {
		respond.WriteError(w, status, code, message)
		return
	}
	respond.WriteErrorDetail(w, status, code, message, err.Error())
}

// reportCacheKey hashes the statistics payload so identical dashboards
// share a cached report.
func reportCacheKey(stats map[string]interface{}) string {
	encoded, _ := json.Marshal(stats)
	return fmt.Sprintf("report:%x", sha256.Sum256(encoded))
}
