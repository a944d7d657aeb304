package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"stocksync-backend/internal/domains/order/service"
	"stocksync-backend/internal/shared"
	"stocksync-backend/internal/shared/utils"
)

// PollOrdersJob runs the order ingestion pipeline from the worker.
type PollOrdersJob struct {
	orderService service.OrderService
}

func NewPollOrdersJob(orderService service.OrderService) *PollOrdersJob {
	return &PollOrdersJob{orderService: orderService}
}

func (j *PollOrdersJob) HandlePollAllStores(ctx context.Context, t *asynq.Task) error {
	results, err := j.orderService.PollAllStores(ctx)
	if err != nil {
		return fmt.Errorf("poll all stores: %w", err)
	}
	log.Info().Int("stores", len(results)).Msg("Polled all stores")
	return nil
}

func (j *PollOrdersJob) HandlePollStore(ctx context.Context, t *asynq.Task) error {
	var payload shared.PollStorePayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	start, err := parseTime(payload.StartTime)
	if err != nil {
		return fmt.Errorf("bad startTime: %w", err)
	}
	end, err := parseTime(payload.EndTime)
	if err != nil {
		return fmt.Errorf("bad endTime: %w", err)
	}

	result, err := j.orderService.PollStore(ctx, payload.StoreID, start, end)
	if err != nil {
		return fmt.Errorf("poll store %s: %w", payload.StoreID, err)
	}
	log.Info().
		Str("store_id", payload.StoreID).
		Int("orders", result.OrdersSeen).
		Int("events", result.EventsCreated).
		Msg("Polled store")
	return nil
}

func (j *PollOrdersJob) HandleProcessRetryQueue(ctx context.Context, t *asynq.Task) error {
	result, err := j.orderService.ProcessRetryQueue(ctx)
	if err != nil {
		return fmt.Errorf("process retry queue: %w", err)
	}
	if result.Processed > 0 {
		log.Info().
			Int("processed", result.Processed).
			Int("confirmed", result.Confirmed).
			Int("rescheduled", result.Rescheduled).
			Int("failed", result.Failed).
			Msg("Drained confirm retry queue")
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
