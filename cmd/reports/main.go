package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collect-reports/internal/config"
	"collect-reports/internal/formula"
	generate_excel "collect-reports/internal/service/generate-excel"
	"collect-reports/internal/service/report"
	"collect-reports/internal/storage/mysql"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env, cfg.ErrorLog)

	storage, err := mysql.New(*cfg)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	engine := formula.NewEngine(
		formula.WithLogger(log.With(slog.String("component", "formula"))),
		formula.WithWorkers(cfg.Report.Workers),
	)

	exporter := generate_excel.NewExporter("collect-reports")
	reportService := report.NewService(log, storage, storage, engine, exporter, cfg.Report.MaxFormulas)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, engine, reportService),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.Report.GenerateTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped")
}
