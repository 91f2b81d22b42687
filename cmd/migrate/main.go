package main

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/migration"
)

func main() {
	_ = godotenv.Load()
	logger := internal.NewDefaultLogger()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		logger.Error("failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migration.NewRunner(db, logger).Run(ctx); err != nil {
		logger.Error("migration failed: %v", err)
		os.Exit(1)
	}
	logger.Info("schema is up to date")
}
