package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/meeting-service/internal/api/http"
	"github.com/spec-kit/meeting-service/internal/api/http/handlers"
	"github.com/spec-kit/meeting-service/internal/auth"
	"github.com/spec-kit/meeting-service/internal/config"
	"github.com/spec-kit/meeting-service/internal/events"
	"github.com/spec-kit/meeting-service/internal/extraction"
	"github.com/spec-kit/meeting-service/internal/mail"
	"github.com/spec-kit/meeting-service/internal/observability"
	"github.com/spec-kit/meeting-service/internal/persistence"
	"github.com/spec-kit/meeting-service/internal/repository"
	"github.com/spec-kit/meeting-service/internal/service"
	"github.com/spec-kit/meeting-service/internal/storage"
	"github.com/spec-kit/meeting-service/internal/transcription"
	"github.com/spec-kit/meeting-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(dispatcher, logger, metrics)

	locker := persistence.NewMeetingLocker(redis, cfg.Meeting.LockTTL(), logger)
	gateway := transcription.NewClient(cfg.Transcription, transcription.NewResolver(), logger, metrics)
	extractor := extraction.NewExtractor(extraction.NewOpenAICompleter(cfg.LLM), cfg.LLM.Timeout(), logger, metrics)
	notifier := service.NewNotificationService(mail.NewSMTPSender(cfg.Mail, logger), logger, metrics)
	uploader := storage.NewCloudinaryUploader(cfg.Storage, logger, metrics)
	tokens := auth.NewTokenManager(cfg.Auth)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Uploader:   uploader,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	meetingService := service.NewMeetingService(service.MeetingDependencies{
		MeetingRepo: meetingRepo,
		UserRepo:    userRepo,
		Gateway:     gateway,
		Notifier:    notifier,
		Locker:      locker,
		Dispatcher:  dispatcher,
		Logger:      logger,
		BotName:     cfg.Transcription.BotName,
	})
	actionItemService := service.NewActionItemService(meetingRepo, userRepo, extractor, locker, dispatcher, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var redisPinger handlers.Pinger
	if redis.Enabled() {
		redisPinger = redis
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger),
		Users:          handlers.NewUsersHandler(authService, actionItemService, cfg.App.UploadDir, cfg.App.Env == "production"),
		Meetings:       handlers.NewMeetingsHandler(meetingService, actionItemService),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
