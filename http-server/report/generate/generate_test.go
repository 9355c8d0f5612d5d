package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collect-reports/internal/formula"
	"collect-reports/internal/service/report"
	"collect-reports/internal/storage"
)

type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context, cfg report.Config) (*report.Result, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Result), args.Error(1)
}

func (m *MockReportGenerator) Export(ctx context.Context, cfg report.Config, title string) (*report.Document, error) {
	args := m.Called(ctx, cfg, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Document), args.Error(1)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPreview_Success(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.MatchedBy(func(cfg report.Config) bool {
		return len(cfg.Tables) == 1 && cfg.Tables[0] == "dos_rabota" &&
			len(cfg.CustomColumns) == 1 && cfg.CustomColumns[0].Formula == "[A] * 2"
	})).Return(&report.Result{Tables: []report.TableResult{{
		Name:    "dos_rabota",
		Title:   "Досудебная",
		Columns: []string{"A", "B"},
		Rows:    []formula.Row{{"A": 2.0, "B": 4.0}},
	}}}, nil)

	body := `{"tables":["dos_rabota"],"columns":{"dos_rabota":["A"]},"customColumns":[{"name":"B","formula":"[A] * 2"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports/preview", strings.NewReader(body))
	rr := httptest.NewRecorder()

	Preview(discard(), gen, time.Second).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var res report.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.Len(t, res.Tables, 1)
	assert.Equal(t, "Досудебная", res.Tables[0].Title)
	assert.Equal(t, 4.0, res.Tables[0].Rows[0]["B"])

	gen.AssertExpectations(t)
}

func TestPreview_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid formula", &report.FormulaError{Name: "B", Reason: "Лишняя закрывающая скобка"}, http.StatusBadRequest},
		{"no tables", report.ErrNoTables, http.StatusBadRequest},
		{"unknown table", storage.ErrUnknownTable, http.StatusBadRequest},
		{"db down", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockReportGenerator)
			gen.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tables":[]}`))
			rr := httptest.NewRecorder()

			Preview(discard(), gen, time.Second).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestPreview_BadJSON(t *testing.T) {
	gen := new(MockReportGenerator)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	rr := httptest.NewRecorder()

	Preview(discard(), gen, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestExport(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Export", mock.Anything, mock.Anything, "Долги").Return(&report.Document{
		FileName:    "Отчет_Долги_2024-03-05_140709.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("PK"),
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/export",
		strings.NewReader(`{"title":"Долги","config":{"tables":["sudeb_vzisk"]}}`))
	rr := httptest.NewRecorder()

	Export(discard(), gen, time.Second).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment;")
	assert.Equal(t, "PK", rr.Body.String())
}
