package check

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"collect-reports/http-server/report/respond"
	"collect-reports/internal/formula"
)

type FormulaChecker interface {
	Check(formula string) formula.ValidationResult
}

type Request struct {
	Formula string `json:"formula"`
}

// CheckFormula — проверка формулы из конструктора до генерации отчета.
func CheckFormula(log *slog.Logger, checker FormulaChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.CheckFormula"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		res := checker.Check(req.Formula)
		if !res.Valid {
			log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			).Debug("formula rejected", slog.String("formula", req.Formula), slog.String("error", res.Error))
		}

		render.JSON(w, r, res)
	}
}
