// Command bot runs the daily interview quiz Telegram bot: the long-polling
// transport, the cron scheduler, the background task workers, and the
// admin HTTP surface, all against a PostgreSQL database whose schema is
// migrated on startup.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/devprep/interview-bot/internal/api"
	"github.com/devprep/interview-bot/internal/bot"
	"github.com/devprep/interview-bot/internal/config"
	"github.com/devprep/interview-bot/internal/generation"
	"github.com/devprep/interview-bot/internal/platform/gemini"
	"github.com/devprep/interview-bot/internal/platform/logger"
	"github.com/devprep/interview-bot/internal/platform/postgres"
	"github.com/devprep/interview-bot/internal/scheduler"
	"github.com/devprep/interview-bot/internal/service/delivery"
	"github.com/devprep/interview-bot/internal/service/export"
	"github.com/devprep/interview-bot/internal/service/history"
	"github.com/devprep/interview-bot/internal/service/intake"
	"github.com/devprep/interview-bot/internal/service/selection"
	"github.com/devprep/interview-bot/internal/task"
	"github.com/devprep/interview-bot/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := migrate(db); err != nil {
		return err
	}

	// Stores
	questionStore := postgres.NewPostgresQuestionStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)
	progressStore := postgres.NewPostgresProgressStore(db, log)
	taskStore := postgres.NewPostgresTaskStore(db, log)

	// Generator: degrade to disabled when no API key is configured.
	var generator generation.Generator
	if cfg.LLM.Configured() {
		generator, err = gemini.NewGenerator(ctx, cfg.LLM, log)
		if err != nil {
			return fmt.Errorf("failed to create Gemini generator: %w", err)
		}
		log.Info("LLM generation enabled", slog.Any("models", cfg.LLM.Models))
	} else {
		generator = generation.NewDisabled()
		log.Warn("no LLM API key configured, hints and feedback are disabled")
	}

	// Transport
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to create Telegram client: %w", err)
	}
	botAPI.Debug = cfg.Telegram.Debug

	quizBot, err := bot.New(botAPI, userStore, cfg.Telegram.WhitelistIDs(), log)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// Services
	engine, err := selection.NewEngine(questionStore, cfg.Quiz.QuestionsPerDay, cfg.Quiz.HighScoreThreshold, log)
	if err != nil {
		return fmt.Errorf("failed to create selection engine: %w", err)
	}

	deliverySvc, err := delivery.NewService(db, progressStore, questionStore, engine, quizBot, log)
	if err != nil {
		return fmt.Errorf("failed to create delivery service: %w", err)
	}

	intakeSvc, err := intake.NewService(db, progressStore, log)
	if err != nil {
		return fmt.Errorf("failed to create intake service: %w", err)
	}

	historySvc, err := history.NewService(db, progressStore, questionStore, log)
	if err != nil {
		return fmt.Errorf("failed to create history service: %w", err)
	}

	exportSvc, err := export.NewService(historySvc)
	if err != nil {
		return fmt.Errorf("failed to create export service: %w", err)
	}

	// Background tasks
	taskFactory, err := task.NewAnnotationTaskFactory(questionStore, intakeSvc, generator, quizBot, log)
	if err != nil {
		return fmt.Errorf("failed to create task factory: %w", err)
	}

	runner := task.NewRunner(taskStore, task.DefaultRunnerConfig(), log)
	runner.RegisterFactory(task.TaskTypeHintGeneration, taskFactory.HintFactory())
	runner.RegisterFactory(task.TaskTypeFeedbackGeneration, taskFactory.FeedbackFactory())
	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	defer runner.Stop()

	if err := quizBot.AttachServices(bot.Services{
		Delivery: deliverySvc,
		Intake:   intakeSvc,
		History:  historySvc,
		Export:   exportSvc,
		Runner:   runner,
		Tasks:    taskFactory,
	}); err != nil {
		return fmt.Errorf("failed to attach services to bot: %w", err)
	}

	// Scheduler
	sched, err := scheduler.New(userStore, deliverySvc, cfg.Quiz.DailyHour, cfg.Quiz.DailyMinute, cfg.Quiz.Timezone, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Admin HTTP surface
	adminServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler:           api.NewServer(userStore, deliverySvc, sched, log).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("admin server listening", slog.Int("port", cfg.Server.AdminPort))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server failed", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = adminServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting bot", slog.String("username", botAPI.Self.UserName))

	if err := quizBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}

	log.Info("shutting down")
	return nil
}

// openDatabase opens and verifies the PostgreSQL connection.
func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// migrate applies the embedded goose migrations.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
