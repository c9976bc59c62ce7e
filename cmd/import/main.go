// Command import loads a question catalog CSV into the database.
//
// Usage:
//
//	import -file questions.csv
//
// The database URL comes from the same configuration as the bot
// (QUIZBOT_DATABASE_URL or config.yaml).
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/devprep/interview-bot/internal/config"
	"github.com/devprep/interview-bot/internal/importer"
	"github.com/devprep/interview-bot/internal/platform/logger"
	"github.com/devprep/interview-bot/internal/platform/postgres"
	"github.com/devprep/interview-bot/migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var filePath string
	flag.StringVar(&filePath, "file", "", "path to the questions CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	imp, err := importer.New(postgres.NewPostgresQuestionStore(db, log), log)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	result, err := imp.ImportCSV(ctx, file)
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", filePath, err)
	}

	log.Info("import complete",
		slog.String("file", filePath),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))

	return nil
}
