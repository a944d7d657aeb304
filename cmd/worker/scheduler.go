package main

import (
	"github.com/hibiken/asynq"

	"stocksync-backend/internal/config"
	"stocksync-backend/internal/infrastructure/queue"
)

func newScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	return queue.NewScheduler(cfg.Redis.URL, cfg.Job)
}
