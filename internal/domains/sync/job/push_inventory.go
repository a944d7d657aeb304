package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"stocksync-backend/internal/domains/sync/service"
	"stocksync-backend/internal/shared"
	"stocksync-backend/internal/shared/utils"
)

// PushInventoryJob runs the platform synchronizer from the worker.
type PushInventoryJob struct {
	syncService service.SyncService
}

func NewPushInventoryJob(syncService service.SyncService) *PushInventoryJob {
	return &PushInventoryJob{syncService: syncService}
}

// HandlePushInventory pushes one store, or every active store when the
// payload is empty (the scheduled variant).
func (j *PushInventoryJob) HandlePushInventory(ctx context.Context, t *asynq.Task) error {
	var payload shared.PushInventoryPayload
	if len(t.Payload()) > 0 {
		if err := utils.UnmarshalTask(t, &payload); err != nil {
			return err
		}
	}

	if payload.StoreID != "" {
		result, err := j.syncService.PushStore(ctx, payload.StoreID)
		if err != nil {
			return fmt.Errorf("push store %s: %w", payload.StoreID, err)
		}
		log.Info().Str("store_id", payload.StoreID).Int("pushed", result.Pushed).Msg("Pushed store inventory")
		return nil
	}

	results, err := j.syncService.PushAllStores(ctx)
	if err != nil {
		return fmt.Errorf("push all stores: %w", err)
	}
	log.Info().Int("stores", len(results)).Msg("Pushed inventory for all stores")
	return nil
}

func (j *PushInventoryJob) HandleSyncStoreSKUs(ctx context.Context, t *asynq.Task) error {
	var payload shared.SyncStoreSKUsPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	result, err := j.syncService.SyncStoreSKUs(ctx, payload.StoreID)
	if err != nil {
		return fmt.Errorf("sync store skus %s: %w", payload.StoreID, err)
	}
	log.Info().
		Str("store_id", payload.StoreID).
		Int("seen", result.Seen).
		Int("registered", result.Registered).
		Msg("Synced store SKUs")
	return nil
}
