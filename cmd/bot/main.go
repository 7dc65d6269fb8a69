package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imantap/internal/api"
	"imantap/internal/config"
	"imantap/internal/handler"
	"imantap/internal/prayertimes"
	"imantap/internal/repository/postgres"
	"imantap/internal/scheduler"
	"imantap/internal/service"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ImanTap Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully")

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Database migrations completed")

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	promoRepo := postgres.NewPromoRepo(db)
	adminRepo := postgres.NewAdminRepo(db)
	boardRepo := postgres.NewLeaderboardRepo(db)
	circleRepo := postgres.NewCircleRepo(db)

	// Initialize services
	loc := cfg.Location()
	badgeService := service.NewBadgeService(userRepo, boardRepo, logger)
	referralService := service.NewReferralService(userRepo, badgeService, cfg.EidDate, loc, logger)
	progressService := service.NewProgressService(userRepo, badgeService, cfg.RamadanStart, cfg.PreparationStart, loc, logger)
	accessService := service.NewAccessService(userRepo, cfg.MainAdminID)
	onboardingService := service.NewOnboardingService(userRepo, promoRepo, referralService, logger)
	paymentService := service.NewPaymentService(userRepo, referralService, logger)
	circleService := service.NewCircleService(userRepo, circleRepo, cfg.RamadanStart, cfg.PreparationStart, loc, logger)

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize handler
	h := handler.NewHandler(bot, onboardingService, paymentService, adminRepo, boardRepo, cfg, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background jobs
	sched := scheduler.New(userRepo, prayertimes.NewClient(), botSender{bot}, loc, logger)
	go sched.Run(ctx)

	// Start mini-app API server
	server := api.NewServer(progressService, accessService, circleService, boardRepo, userRepo, botSender{bot}, logger)
	go func() {
		logger.Info("API server listening", zap.String("port", cfg.APIPort))
		if err := server.Listen(cfg.APIPort); err != nil {
			logger.Error("API server stopped", zap.Error(err))
		}
	}()

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping...")

	// Graceful shutdown
	bot.Stop()
	cancel()
	if err := server.Shutdown(); err != nil {
		logger.Error("API server shutdown failed", zap.Error(err))
	}

	logger.Info("Bot stopped gracefully")
}

// botSender adapts the bot to the scheduler's Sender interface.
type botSender struct {
	bot *tele.Bot
}

func (s botSender) SendMessage(chatID int64, text string) error {
	_, err := s.bot.Send(&tele.User{ID: chatID}, text, tele.ModeMarkdown)
	return err
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		// Connection successful
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
