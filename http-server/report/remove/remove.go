package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"collect-reports/http-server/report/respond"
)

type ReportDeleter interface {
	Delete(ctx context.Context, user, id string) error
}

func DeleteReport(log *slog.Logger, deleter ReportDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.DeleteReport"

		user, ok := respond.User(w, r)
		if !ok {
			return
		}

		id, err := respond.ReportID(r)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		if err := deleter.Delete(r.Context(), user, id); err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		).Info("report deleted", slog.String("id", id), slog.String("user", user))

		render.JSON(w, r, map[string]string{"status": "deleted"})
	}
}
