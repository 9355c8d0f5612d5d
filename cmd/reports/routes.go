package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"collect-reports/http-server/report/check"
	"collect-reports/http-server/report/generate"
	"collect-reports/http-server/report/get"
	"collect-reports/http-server/report/remove"
	"collect-reports/http-server/report/save"
	"collect-reports/internal/config"
	"collect-reports/internal/middleware/auth"
)

type ReportService interface {
	generate.ReportGenerator
	save.ReportSaver
	get.ReportProvider
	remove.ReportDeleter
}

func routes(cfg config.Config, log *slog.Logger, checker check.FormulaChecker, reports ReportService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	timeout := cfg.Report.GenerateTimeout

	router.Route("/api/reports", func(r chi.Router) {
		r.Use(auth.BasicAuth("Reports", cfg.Users))

		r.Post("/formula/check", check.CheckFormula(log, checker))

		r.Post("/preview", generate.Preview(log, reports, timeout))
		r.Post("/export", generate.Export(log, reports, timeout))

		r.Get("/", get.ListReports(log, reports))
		r.Post("/", save.SaveReport(log, reports, timeout))
		r.Put("/{id}", save.UpdateReport(log, reports, timeout))
		r.Get("/{id}/download", get.DownloadReport(log, reports))
		r.Delete("/{id}", remove.DeleteReport(log, reports))
	})

	return router
}
