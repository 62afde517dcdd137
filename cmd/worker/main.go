package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"classroll/internal/config"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// Worker consumes notification events published by the API: sessions being
// materialized and attendance being recorded. Delivery (push, mail) belongs to
// external collaborators; this worker makes the stream observable and is the
// place to hang a dispatcher.
func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classroll:events")
	}

	events, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for events")
	for evt := range events {
		switch evt.Type {
		case queue.TypeSessionCreated:
			logger.Info("session created",
				zap.String("session_id", evt.SessionID),
				zap.String("course_id", evt.CourseID),
				zap.Time("date", evt.OccurredAt))
		case queue.TypeAttendanceRecorded:
			logger.Info("attendance recorded",
				zap.String("session_id", evt.SessionID),
				zap.String("course_id", evt.CourseID),
				zap.String("student_id", evt.StudentID))
		default:
			logger.Warn("unknown event type", zap.String("type", evt.Type))
		}
	}

	logger.Info("worker stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
