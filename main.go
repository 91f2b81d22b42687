package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/TbrosN/clarity/adapters/excel"
	"github.com/TbrosN/clarity/adapters/llm"
	"github.com/TbrosN/clarity/adapters/postgres"
	"github.com/TbrosN/clarity/api"
	"github.com/TbrosN/clarity/app"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/config"
	"github.com/TbrosN/clarity/internal/evidence"
	"github.com/TbrosN/clarity/internal/migration"
	"github.com/TbrosN/clarity/ports"
)

func main() {
	_ = godotenv.Load()
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migration.NewRunner(db, logger).Run(ctx); err != nil {
		cancel()
		logger.Error("failed to run migrations: %v", err)
		os.Exit(1)
	}
	cancel()

	catalog := survey.DefaultCatalog()
	questions := postgres.NewQuestionRepository(db, catalog)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	for _, key := range catalog.Keys() {
		if _, err := questions.LookupOrCreate(seedCtx, key); err != nil {
			seedCancel()
			logger.Error("failed to seed question %q: %v", key, err)
			os.Exit(1)
		}
	}
	seedCancel()

	store := postgres.NewResponseRepository(db, questions, catalog)
	builder := evidence.NewBuilder(catalog)

	var generator ports.InsightGenerator
	if cfg.Insights.Enabled && cfg.Insights.APIKey != "" {
		generator = llm.NewClient(cfg.Insights)
	}

	insights := app.NewInsightService(store, generator, builder, cfg.Insights, logger)
	exporter := excel.NewExporter(catalog)
	handlers := api.NewHandlers(store, insights, builder, exporter, catalog, cfg.Insights, logger)
	server := api.NewServer(cfg.Server, handlers, logger)

	go func() {
		logger.Info("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error: %v", err)
	}
}
