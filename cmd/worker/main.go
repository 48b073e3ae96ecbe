package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"careercraft/internal/config"
	"careercraft/internal/database"
	"careercraft/internal/mail"
	"careercraft/internal/metrics"
	"careercraft/internal/tasks"
	"careercraft/internal/telemetry"
	"careercraft/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg.Telemetry, logger)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	sender, err := mail.NewSender(cfg.Mail)
	if err != nil {
		log.Fatalf("init mail sender: %v", err)
	}
	if !cfg.Mail.Enabled() {
		logger.Warn("mail host not configured, notifications will be marked failed")
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues:      map[string]int{tasks.QueueNotifications: 1},
	})

	emailHandler := worker.NewEmailTaskHandler(db, sender, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeEmailSend, emailHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
