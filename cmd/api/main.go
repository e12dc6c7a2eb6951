package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nauqh/cseassessment/internal/config"
	"github.com/nauqh/cseassessment/internal/database"
	"github.com/nauqh/cseassessment/internal/handler"
	"github.com/nauqh/cseassessment/internal/middleware"
	"github.com/nauqh/cseassessment/internal/models"
	"github.com/nauqh/cseassessment/internal/realtime"
	"github.com/nauqh/cseassessment/internal/repository"
	"github.com/nauqh/cseassessment/internal/resource"
	"github.com/nauqh/cseassessment/internal/router"
	"github.com/nauqh/cseassessment/internal/service"
	"github.com/nauqh/cseassessment/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Submission{}, &models.HelpRequest{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, report caching disabled")
	}

	var natsConn *natsgo.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not set, submission events disabled")
	}

	var store resource.Store
	if cfg.ResourceStoreURL != "" {
		store = resource.NewHTTPStore(cfg.ResourceStoreURL, logger)
	} else {
		store = resource.NewFileStore(cfg.ResourceStoreDir)
	}

	var drafter ai.Drafter
	if cfg.OpenAIAPIKey != "" {
		drafter, err = ai.NewOpenAIDrafter(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Logger: logger})
		if err != nil {
			log.Fatalf("failed to create feedback drafter: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	hub := realtime.NewHub(logger)

	submissionRepo := repository.NewSubmissionRepository(db)
	helpRepo := repository.NewHelpRequestRepository(db)

	gradingService := service.NewGradingService(service.GradingServiceConfig{
		Submissions: submissionRepo,
		Store:       store,
		Hub:         hub,
		Cache:       redisClient,
		CacheTTL:    cfg.ReportCacheTTL,
		NATS:        natsConn,
		NATSSubject: cfg.NATSSubject,
		Drafter:     drafter,
		Validator:   validate,
		Logger:      logger,
		CacheDir:    cfg.ResourceCacheDir,
	})
	executionService := service.NewExecutionService(service.ExecutionServiceConfig{
		Store:       store,
		DefaultExam: cfg.DefaultExam,
		Timeout:     cfg.ExecutionTimeout,
		CacheDir:    cfg.ResourceCacheDir,
		Validator:   validate,
		Logger:      logger,
	})
	helpService := service.NewHelpService(helpRepo, hub, validate, logger)
	examService := service.NewExamService(store, redisClient, cfg.ReportCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(gradingService, logger),
		ExamHandler:       handler.NewExamHandler(examService, logger),
		ExecutionHandler:  handler.NewExecutionHandler(executionService, logger),
		HelpHandler:       handler.NewHelpHandler(helpService, logger),
		WebsocketHandler:  handler.NewWebsocketHandler(hub, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
