package get

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collect-reports/internal/middleware/auth"
	"collect-reports/internal/service/report"
	"collect-reports/internal/storage"
)

const reportID = "0b6f4a3e-8e0c-4c52-9a57-2f7f0d5b9a11"

type MockReportProvider struct {
	mock.Mock
}

func (m *MockReportProvider) List(ctx context.Context, user string) ([]storage.Report, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Report), args.Error(1)
}

func (m *MockReportProvider) Download(ctx context.Context, user, id string) (*report.Document, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Document), args.Error(1)
}

func newRouter(provider ReportProvider) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Use(auth.BasicAuth("Reports", map[string]string{"operator": "secret"}))
	r.Get("/api/reports", ListReports(log, provider))
	r.Get("/api/reports/{id}/download", DownloadReport(log, provider))
	return r
}

func do(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.SetBasicAuth("operator", "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListReports(t *testing.T) {
	provider := new(MockReportProvider)
	provider.On("List", mock.Anything, "operator").Return([]storage.Report{
		{ID: reportID, Title: "Сводка", CreatedBy: "operator"},
	}, nil)

	rr := do(newRouter(provider), "/api/reports")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []storage.Report
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Сводка", got[0].Title)
}

func TestListReports_Empty(t *testing.T) {
	provider := new(MockReportProvider)
	provider.On("List", mock.Anything, "operator").Return(nil, nil)

	rr := do(newRouter(provider), "/api/reports")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestListReports_Error(t *testing.T) {
	provider := new(MockReportProvider)
	provider.On("List", mock.Anything, "operator").Return(nil, errors.New("timeout"))

	rr := do(newRouter(provider), "/api/reports")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal error"}`, rr.Body.String())
}

func TestDownloadReport(t *testing.T) {
	provider := new(MockReportProvider)
	provider.On("Download", mock.Anything, "operator", reportID).Return(&report.Document{
		FileName:    "Отчет.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("PK"),
	}, nil)

	rr := do(newRouter(provider), "/api/reports/"+reportID+"/download")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "PK", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment;")
}

func TestDownloadReport_Errors(t *testing.T) {
	provider := new(MockReportProvider)
	provider.On("Download", mock.Anything, "operator", reportID).Return(nil, storage.ErrReportNotFound)

	h := newRouter(provider)

	assert.Equal(t, http.StatusNotFound, do(h, "/api/reports/"+reportID+"/download").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "/api/reports/not-a-uuid/download").Code)

	provider.AssertNumberOfCalls(t, "Download", 1)
}
