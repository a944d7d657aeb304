package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"stocksync-backend/internal/config"
	"stocksync-backend/internal/shared"
)

// NewScheduler wires the periodic pipelines: order polling, retry
// queue draining and inventory push.
func NewScheduler(redisURL string, jobCfg config.JobConfig) (*asynq.Scheduler, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	entries := []struct {
		spec string
		task *asynq.Task
		opts []asynq.Option
	}{
		{every(jobCfg.PollInterval), asynq.NewTask(shared.TypePollAllStores, nil), []asynq.Option{asynq.Queue(shared.QueueOrders)}},
		{every(jobCfg.RetryDrainInterval), asynq.NewTask(shared.TypeProcessRetryQueue, nil), []asynq.Option{asynq.Queue(shared.QueueOrders)}},
		{every(jobCfg.PushInterval), asynq.NewTask(shared.TypePushInventory, nil), []asynq.Option{asynq.Queue(shared.QueueSync)}},
	}

	for _, e := range entries {
		entryID, err := scheduler.Register(e.spec, e.task, e.opts...)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", e.task.Type(), err)
		}
		log.Info().Str("entry_id", entryID).Str("task", e.task.Type()).Str("spec", e.spec).Msg("Scheduled periodic task")
	}

	return scheduler, nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
