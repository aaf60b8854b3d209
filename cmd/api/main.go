package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/database"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/logging"
	"github.com/noah-isme/gema-study-api/internal/middleware"
	"github.com/noah-isme/gema-study-api/internal/progress"
	"github.com/noah-isme/gema-study-api/internal/questionbank"
	"github.com/noah-isme/gema-study-api/internal/repository"
	"github.com/noah-isme/gema-study-api/internal/router"
	"github.com/noah-isme/gema-study-api/internal/service"
)

var rootCmd = &cobra.Command{
	Use:           "study",
	Short:         "Equation-builder study runner",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bankCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()
	logger = logger.With().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := database.Migrate(cmd.Context(), db, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var (
		redisClient    *redis.Client
		sessionStorage fiber.Storage
		limiterStorage fiber.Storage
	)
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cmd.Context(), cfg.RedisURL, cfg.RedisPingTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		sessionStorage = progress.NewRedisStorage(redisClient, "")
		limiterStorage = progress.NewRedisStorage(redisClient, "study:ratelimit:")
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer func() {
			if err := conn.Drain(); err != nil {
				logger.Warn().Err(err).Msg("failed to drain nats connection")
			}
		}()
		events = service.NewNATSPublisher(conn, cfg.NATSSubjectPrefix)
	}

	bank := buildBank(cmd.Context(), cfg, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	participantRepo := repository.NewParticipantRepository(db)
	responseRepo := repository.NewResponseRepository(db)

	participantService := service.NewParticipantService(participantRepo, validate, service.NewRandomSource(time.Now().UnixNano()), events, logger)
	taskService := service.NewTaskService(bank, responseRepo, participantService, events, logger)
	analyticsService := service.NewAdminAnalyticsService(participantRepo, responseRepo, validate, redisClient, cfg.AnalyticsCacheTTL, logger)

	tracker := progress.NewTracker(progress.NewStore(progress.StoreOptions{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.AppEnv == "production",
		Storage:    sessionStorage,
	}))

	deps := router.Dependencies{
		StudyHandler:          handler.NewStudyHandler(participantService, tracker, logger),
		TaskHandler:           handler.NewTaskHandler(taskService, tracker, logger),
		AdminAnalyticsHandler: handler.NewAdminAnalyticsHandler(analyticsService, logger),
		QuestionBank:          bank,
		IntakeLimiter:         middleware.RateLimit("intake", cfg.IntakeRateLimit, cfg.IntakeRateWindow, limiterStorage),
	}
	if cfg.AdminEnabled() {
		deps.JWTMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	} else {
		logger.Info().Msg("admin API disabled: no jwt secret configured")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
	return nil
}

// buildBank returns the per-request file bank, wrapped in a load-once cache
// when configured. A bank that fails to load at startup is only logged so the
// file can be fixed without a restart.
func buildBank(ctx context.Context, cfg config.Config, logger zerolog.Logger) questionbank.Bank {
	fileBank := questionbank.NewFileBank(cfg.QuestionsPath, logger)

	result, err := fileBank.LoadDetailed(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.QuestionsPath).Msg("question bank could not be loaded")
	} else {
		logger.Info().
			Str("path", cfg.QuestionsPath).
			Int("questions", len(result.Questions)).
			Int("skipped_rows", len(result.Skipped)).
			Bool("cached", cfg.QuestionsCache).
			Msg("question bank loaded")
	}

	if cfg.QuestionsCache {
		return questionbank.NewCachedBank(fileBank)
	}
	return fileBank
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
