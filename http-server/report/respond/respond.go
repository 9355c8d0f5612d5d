package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"collect-reports/internal/middleware/auth"
	"collect-reports/internal/service/report"
	"collect-reports/internal/storage"
)

var ErrInvalidID = errors.New("некорректный идентификатор отчета")

type ErrorResponse struct {
	Error string `json:"error"`
}

// badRequest — ошибки, текст которых можно показать пользователю.
var badRequest = []error{
	report.ErrNoTables,
	report.ErrTooManyFormulas,
	report.ErrInvalidDate,
	report.ErrTitleRequired,
	report.ErrUnsupportedFormat,
	storage.ErrUnknownTable,
	ErrInvalidID,
}

// Status переводит ошибку сервиса в HTTP статус и текст ответа.
func Status(err error) (int, string) {
	var fe *report.FormulaError
	if errors.As(err, &fe) {
		return http.StatusBadRequest, fe.Error()
	}

	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}

	switch {
	case errors.Is(err, storage.ErrReportNotFound):
		return http.StatusNotFound, storage.ErrReportNotFound.Error()
	case errors.Is(err, storage.ErrReportExists):
		return http.StatusConflict, storage.ErrReportExists.Error()
	}

	return http.StatusInternalServerError, "Internal error"
}

// Error пишет ошибку в JSON; серверные ошибки логируются как Error,
// ошибки запроса как Warn.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	status, msg := Status(err)

	l := log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	if status >= http.StatusInternalServerError {
		l.Error("request failed")
	} else {
		l.Warn("request rejected", slog.Int("status", status))
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
}

// User достает логин из контекста; без него запрос не обрабатывается.
func User(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := auth.User(r.Context())
	if !ok {
		Unauthorized(w, r)
	}
	return user, ok
}

// ReportID читает {id} из пути и проверяет, что это uuid.
func ReportID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return id.String(), nil
}

// Document отдает файл как вложение; кириллическое имя передается через filename*.
func Document(w http.ResponseWriter, doc *report.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="report%s"; filename*=UTF-8''%s`, path.Ext(doc.FileName), url.PathEscape(doc.FileName)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}
