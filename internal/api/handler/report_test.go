package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenrehab/casedata/internal/cache"
	"github.com/lumenrehab/casedata/internal/config"
	"github.com/lumenrehab/casedata/internal/report"
)

type stubReports struct {
	report *report.Report
	err    error
	calls  int
}

func (s *stubReports) Generate(ctx context.Context, stats map[string]interface{}) (*report.Report, error) {
	s.calls++
	return s.report, s.err
}

func testHandler(reports ReportGenerator) *Handler {
	cfg := &config.Config{Environment: "development"}
	return New(nil, cache.New(true), cfg, reports, nil)
}

func postReport(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reports/system", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.GenerateReport(rec, req)
	return rec
}

func TestGenerateReportSuccess(t *testing.T) {
	stub := &stubReports{report: &report.Report{
		ID:      "rep-1",
		Model:   "gpt-4o-mini",
		Summary: "Steady caseload with two flagged concerns.",
	}}
	h := testHandler(stub)

	rec := postReport(h, `{"open_cases": 42, "appointments_this_week": 17}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "rep-1", got.ID)
	assert.Equal(t, "Steady caseload with two flagged concerns.", got.Summary)
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestGenerateReportCachesIdenticalPayloads(t *testing.T) {
	stub := &stubReports{report: &report.Report{ID: "rep-1", Summary: "ok"}}
	h := testHandler(stub)

	first := postReport(h, `{"open_cases": 42}`)
	second := postReport(h, `{"open_cases": 42}`)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, stub.calls, "second identical payload should hit the cache")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
}

func TestGenerateReportETagRevalidation(t *testing.T) {
	stub := &stubReports{report: &report.Report{ID: "rep-1", Summary: "ok"}}
	h := testHandler(stub)

	first := postReport(h, `{"open_cases": 42}`)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reports/system",
		bytes.NewBufferString(`{"open_cases": 42}`))
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	h.GenerateReport(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestGenerateReportRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{not json`, "INVALID_PAYLOAD"},
		{"empty object", `{}`, "EMPTY_PAYLOAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(&stubReports{})
			rec := postReport(h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestGenerateReportUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not configured", report.ErrNotConfigured, http.StatusServiceUnavailable, "REPORTS_DISABLED"},
		{"unauthorized", report.ErrUnauthorized, http.StatusBadGateway, "UPSTREAM_UNAUTHORIZED"},
		{"rate limited", report.ErrRateLimited, http.StatusBadGateway, "UPSTREAM_RATE_LIMITED"},
		{"unreachable", report.ErrUnreachable, http.StatusBadGateway, "UPSTREAM_UNREACHABLE"},
		{"other", errors.New("parse report reply: boom"), http.StatusBadGateway, "REPORT_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(&stubReports{err: tt.err})
			rec := postReport(h, `{"open_cases": 1}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestGenerateReportHidesDetailInProduction(t *testing.T) {
	stub := &stubReports{err: errors.New("secret internal detail")}

	dev := New(nil, cache.New(true), &config.Config{Environment: "development"}, stub, nil)
	rec := postReport(dev, `{"open_cases": 1}`)
	assert.Contains(t, rec.Body.String(), "secret internal detail")

	prod := New(nil, cache.New(true), &config.Config{Environment: "production"}, stub, nil)
	rec = postReport(prod, `{"open_cases": 1}`)
	assert.NotContains(t, rec.Body.String(), "secret internal detail")
}

type fakeTriggers struct {
	todayCalls    int
	upcomingCalls int
}

func (f *fakeTriggers) TriggerTodaysNotifications(ctx context.Context) int {
	f.todayCalls++
	return 3
}

func (f *fakeTriggers) TriggerUpcomingReminders(ctx context.Context) int {
	f.upcomingCalls++
	return 1
}

func TestTriggerReminderEndpoints(t *testing.T) {
	triggers := &fakeTriggers{}
	h := New(nil, cache.New(true), &config.Config{}, nil, triggers)

	rec := httptest.NewRecorder()
	h.TriggerTodayReminders(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reminders/today", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "today", body["pipeline"])
	assert.Equal(t, float64(3), body["created"])
	assert.Equal(t, 1, triggers.todayCalls)

	rec = httptest.NewRecorder()
	h.TriggerUpcomingReminders(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reminders/upcoming", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upcoming", body["pipeline"])
	assert.Equal(t, float64(1), body["created"])
	assert.Equal(t, 1, triggers.upcomingCalls)
}
