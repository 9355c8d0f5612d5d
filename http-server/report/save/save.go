package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"collect-reports/http-server/report/respond"
	"collect-reports/internal/service/report"
	"collect-reports/internal/storage"
)

type ReportSaver interface {
	Save(ctx context.Context, user string, req report.SaveRequest) (*storage.Report, error)
	Update(ctx context.Context, user, id string, req report.SaveRequest) error
}

func SaveReport(log *slog.Logger, saver ReportSaver, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.SaveReport"

		user, ok := respond.User(w, r)
		if !ok {
			return
		}

		var req report.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		saved, err := saver.Save(ctx, user, req)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		).Info("report saved", slog.String("id", saved.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, saved)
	}
}

func UpdateReport(log *slog.Logger, saver ReportSaver, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.UpdateReport"

		user, ok := respond.User(w, r)
		if !ok {
			return
		}

		id, err := respond.ReportID(r)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		var req report.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := saver.Update(ctx, user, id, req); err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, map[string]string{"status": "updated"})
	}
}
