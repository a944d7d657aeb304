package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"stocksync-backend/internal/config"
	"stocksync-backend/internal/shared"
)

func newWorkerServer(cfg *config.Config) (*asynq.Server, *asynq.ServeMux, error) {
	opt, err := asynq.ParseRedisURI(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Job.Concurrency,
		Queues: map[string]int{
			shared.QueueOrders: 6,
			shared.QueueSync:   3,
			"default":          1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("task", task.Type()).Msg("Task failed")
		}),
	})

	return srv, asynq.NewServeMux(), nil
}
