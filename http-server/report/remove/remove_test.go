package remove

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"collect-reports/internal/middleware/auth"
	"collect-reports/internal/storage"
)

const reportID = "0b6f4a3e-8e0c-4c52-9a57-2f7f0d5b9a11"

type MockReportDeleter struct {
	mock.Mock
}

func (m *MockReportDeleter) Delete(ctx context.Context, user, id string) error {
	return m.Called(ctx, user, id).Error(0)
}

func TestDeleteReport(t *testing.T) {
	deleter := new(MockReportDeleter)
	deleter.On("Delete", mock.Anything, "operator", reportID).Return(nil).Once()
	deleter.On("Delete", mock.Anything, "operator", reportID).Return(storage.ErrReportNotFound).Once()

	r := chi.NewRouter()
	r.Use(auth.BasicAuth("Reports", map[string]string{"operator": "secret"}))
	r.Delete("/api/reports/{id}", DeleteReport(slog.New(slog.NewTextHandler(io.Discard, nil)), deleter))

	send := func(id string) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil)
		req.SetBasicAuth("operator", "secret")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send(reportID))
	assert.Equal(t, http.StatusNotFound, send(reportID))
	assert.Equal(t, http.StatusBadRequest, send("abc"))

	deleter.AssertExpectations(t)
}
