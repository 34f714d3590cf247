package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/config"
	"github.com/noah-isme/scriptdesk-api/internal/database"
	"github.com/noah-isme/scriptdesk-api/internal/events"
	"github.com/noah-isme/scriptdesk-api/internal/handler"
	"github.com/noah-isme/scriptdesk-api/internal/middleware"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/router"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	cloud "github.com/noah-isme/scriptdesk-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database handle: %v", err)
	}
	defer sqlDB.Close()

	// Without redis the limiter keeps counters in process memory.
	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL, 3*time.Second)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		limiterStorage = middleware.NewRedisStorage(redisClient, "scriptdesk:ratelimit:")
	}

	publisher := events.NewNoopPublisher()
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer conn.Drain()
		publisher = events.NewNATSPublisher(conn, cfg.NATSSubject, logger)
	}

	var storage service.FileStorage
	if cfg.CloudinaryEnabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = store
	} else {
		logger.Warn().Msg("cloudinary not configured, binary uploads disabled")
	}

	validate := service.NewValidator()

	scriptRepo := repository.NewScriptRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewProjectFileRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, cfg.RecentActivityLimit, logger)
	scriptService := service.NewScriptService(service.ScriptRepositories{
		Scripts:  scriptRepo,
		Projects: projectRepo,
		Topics:   topicRepo,
		Users:    userRepo,
	}, validate, activityService, publisher, logger)
	projectService := service.NewProjectService(projectRepo, validate, activityService, logger)
	topicService := service.NewTopicService(topicRepo, validate, activityService, logger)
	fileService := service.NewFileService(fileRepo, projectRepo, storage, cfg.UploadMaxMB, validate, activityService, logger)
	dashboardService := service.NewDashboardService(scriptRepo, logger)
	userService := service.NewUserService(userRepo, logger)
	seedService := service.NewSeedService(projectRepo, topicRepo, userRepo, activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.IsDevelopment(),
	})
	router.Register(app, cfg, router.Dependencies{
		ScriptHandler:    handler.NewScriptHandler(scriptService, logger),
		ProjectHandler:   handler.NewProjectHandler(projectService, fileService, logger),
		TopicHandler:     handler.NewTopicHandler(topicService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, activityService, logger),
		ActivityHandler:  handler.NewActivityHandler(activityService, logger),
		UserHandler:      handler.NewUserHandler(userService, logger),
		SeedHandler:      handler.NewSeedHandler(seedService, logger),
		Database:         sqlDB,
		Auth: []fiber.Handler{
			middleware.JWTProtected(cfg.JWTSecret),
			middleware.SyncIdentity(userService, logger),
			middleware.RateLimit("api", cfg.RateLimitMax, cfg.RateLimitWindow, limiterStorage),
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddress()).Str("driver", cfg.DatabaseDriver).Msg("scriptdesk api started")
	waitForShutdown(app, logger)
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
