package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"collect-reports/http-server/report/respond"
	"collect-reports/internal/service/report"
	"collect-reports/internal/storage"
)

type ReportProvider interface {
	List(ctx context.Context, user string) ([]storage.Report, error)
	Download(ctx context.Context, user, id string) (*report.Document, error)
}

// ListReports — сохраненные отчеты текущего пользователя, новые первыми.
func ListReports(log *slog.Logger, provider ReportProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.ListReports"

		user, ok := respond.User(w, r)
		if !ok {
			return
		}

		reports, err := provider.List(r.Context(), user)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		if reports == nil {
			reports = []storage.Report{}
		}

		render.JSON(w, r, reports)
	}
}

func DownloadReport(log *slog.Logger, provider ReportProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.DownloadReport"

		user, ok := respond.User(w, r)
		if !ok {
			return
		}

		id, err := respond.ReportID(r)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		doc, err := provider.Download(r.Context(), user, id)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		respond.Document(w, doc)
	}
}
