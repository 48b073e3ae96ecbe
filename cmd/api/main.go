package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"careercraft/internal/api"
	"careercraft/internal/auth"
	"careercraft/internal/config"
	"careercraft/internal/database"
	"careercraft/internal/notify"
	"careercraft/internal/resume"
	"careercraft/internal/service"
	"careercraft/internal/storage"
	"careercraft/internal/telemetry"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, logger)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	logger.Info("api bootstrapping",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db, logger); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// 登录节流在 Redis 不可用时放行，API 仍可启动。
		logger.Warn("redis unavailable at startup", slog.Any("error", err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	authService, err := auth.NewAuthService([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	notifier := notify.NewDispatcher(db, asynqClient, logger)
	resumes := resume.NewStore(storageClient, resume.NewScanner(cfg.Security.ClamdAddr), cfg.API.MaxUploadBytes)

	accounts := service.NewAccountService(db, authService, notifier, logger)
	jobs := service.NewJobService(db, logger)
	applications := service.NewApplicationService(db, resumes, notifier, logger)
	stats := service.NewStatsService(db)
	admin := service.NewAdminService(db)

	throttle := api.NewLoginThrottle(
		redisClient,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		cfg.Auth.LoginLockTTL,
		logger,
	)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, authService, api.Handlers{
		Auth:         api.NewAuthHandler(accounts, throttle, logger),
		Jobs:         api.NewJobHandler(jobs),
		Applications: api.NewApplicationHandler(applications, cfg.API.MaxUploadBytes),
		Stats:        api.NewStatsHandler(stats),
		Admin:        api.NewAdminHandler(admin, jobs, stats),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("api shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
