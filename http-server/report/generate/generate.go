package generate

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
)

type ReportGenerator interface {
	Generate(ctx context.Context, cfg report.Config) (*report.Result, error)
	Export(ctx context.Context, cfg report.Config, title string) (*report.Document, error)
}

type ExportRequest struct {
	Title  string        `json:"title"`
	Config report.Config `json:"config"`
}

// Preview возвращает сгенерированный отчет в JSON для просмотра.
func Preview(log *slog.Logger, gen ReportGenerator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.Preview"

		var cfg report.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			respond.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		res, err := gen.Generate(ctx, cfg)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		).Debug("report generated", slog.Int("tables", len(res.Tables)))

		render.JSON(w, r, res)
	}
}

// Export генерирует отчет и отдает Excel файл.
func Export(log *slog.Logger, gen ReportGenerator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.Export"

		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		doc, err := gen.Export(ctx, req.Config, req.Title)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		respond.Document(w, doc)
	}
}
