package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"stocksync-backend/internal/domains/inventory/model"
	"stocksync-backend/internal/domains/inventory/repository"
	skumodel "stocksync-backend/internal/domains/sku/model"
	skurepo "stocksync-backend/internal/domains/sku/repository"
	"stocksync-backend/internal/shared/utils"
	"stocksync-backend/pkg/database"
)

type inventoryService struct {
	// pool is nil when the service is already bound to a transaction.
	pool    *pgxpool.Pool
	invRepo repository.InventoryRepository
	skuRepo skurepo.SKURepository
}

func NewInventoryService(pool *pgxpool.Pool, invRepo repository.InventoryRepository, skuRepo skurepo.SKURepository) InventoryService {
	return &inventoryService{pool: pool, invRepo: invRepo, skuRepo: skuRepo}
}

func (s *inventoryService) WithTx(tx pgx.Tx) InventoryService {
	return &inventoryService{
		invRepo: s.invRepo.WithTx(tx),
		skuRepo: s.skuRepo.WithTx(tx),
	}
}

func (s *inventoryService) CreateEvent(ctx context.Context, event *model.Event) (*model.Snapshot, error) {
	if !event.EventType.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidEventType, event.EventType)
	}
	event.SkuID = utils.NormalizeSKU(event.SkuID)
	if event.Source == "" {
		event.Source = model.SourceSystem
	}
	if event.DedupToken == "" {
		event.DedupToken = utils.GenerateToken()
	}

	if s.pool != nil {
		return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.Snapshot, error) {
			return s.WithTx(tx).CreateEvent(ctx, event)
		})
	}

	if !event.EventType.StockAltering() {
		if err := s.invRepo.InsertEvent(ctx, event); err != nil {
			return nil, err
		}
		return nil, nil
	}

	// The row lock serializes concurrent writers on the same SKU.
	// The oversell check runs before the insert so a rejected event
	// leaves no trace in the log.
	snap, err := s.invRepo.GetSnapshotForUpdate(ctx, event.SkuID)
	if err != nil {
		return nil, err
	}

	newQty := snap.AvailableQuantity + event.Quantity
	if event.EventType.Absolute() {
		newQty = event.Quantity
	}

	if newQty < 0 {
		sku, err := s.skuRepo.GetByID(ctx, event.SkuID)
		if err != nil {
			return nil, err
		}
		if !sku.AllowOversell {
			return nil, &model.OversellError{
				SkuID:     event.SkuID,
				Current:   snap.AvailableQuantity,
				Requested: event.Quantity,
			}
		}
	}

	if err := s.invRepo.InsertEvent(ctx, event); err != nil {
		return nil, err
	}

	snap.AvailableQuantity = newQty
	snap.LastEventID = event.ID
	if err := s.invRepo.UpsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *inventoryService) GetSnapshot(ctx context.Context, skuID string) (*model.Snapshot, error) {
	return s.invRepo.GetSnapshot(ctx, utils.NormalizeSKU(skuID))
}

func (s *inventoryService) GetEvents(ctx context.Context, skuID string, limit, offset int) ([]model.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.invRepo.GetEvents(ctx, utils.NormalizeSKU(skuID), limit, offset)
}

// RebuildSnapshot recomputes the snapshot from the full event log.
// Recovery tool for a snapshot that drifted or was lost.
func (s *inventoryService) RebuildSnapshot(ctx context.Context, skuID string) (*model.Snapshot, error) {
	skuID = utils.NormalizeSKU(skuID)
	if s.pool != nil {
		return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (*model.Snapshot, error) {
			return s.WithTx(tx).RebuildSnapshot(ctx, skuID)
		})
	}

	if _, err := s.skuRepo.GetByID(ctx, skuID); err != nil {
		return nil, err
	}
	if _, err := s.invRepo.GetSnapshotForUpdate(ctx, skuID); err != nil {
		return nil, err
	}

	total, lastID, err := s.invRepo.SumEvents(ctx, skuID)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{SkuID: skuID, AvailableQuantity: total, LastEventID: lastID}
	if err := s.invRepo.UpsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	log.Info().Str("sku_id", skuID).Int("quantity", total).Msg("Snapshot rebuilt from event log")
	return snap, nil
}

func (s *inventoryService) ResetSKU(ctx context.Context, skuID string, quantity int, source, operator string) (*model.Snapshot, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("reset quantity must not be negative, got %d", quantity)
	}
	return s.CreateEvent(ctx, &model.Event{
		SkuID:     skuID,
		EventType: model.EventInitReset,
		Quantity:  quantity,
		Source:    source,
		Operator:  operator,
	})
}

func (s *inventoryService) DeactivateSKU(ctx context.Context, skuID string) error {
	skuID = utils.NormalizeSKU(skuID)
	if s.pool != nil {
		return database.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
			return s.WithTx(tx).DeactivateSKU(ctx, skuID)
		})
	}

	if _, err := s.skuRepo.GetByID(ctx, skuID); err != nil {
		return err
	}
	if err := s.skuRepo.UpdateStatus(ctx, skuID, skumodel.StatusInactive); err != nil {
		return err
	}
	if err := s.skuRepo.UpdateExtraData(ctx, skuID, skumodel.ExtraData{}); err != nil {
		return err
	}
	if err := s.invRepo.PurgeSKU(ctx, skuID); err != nil {
		return err
	}

	log.Info().Str("sku_id", skuID).Msg("SKU deactivated, dependent rows purged")
	return nil
}

func (s *inventoryService) LogAPIError(ctx context.Context, skuID, storeID, orderNumber string, detail map[string]interface{}) error {
	_, err := s.CreateEvent(ctx, &model.Event{
		SkuID:       skuID,
		StoreID:     storeID,
		EventType:   model.EventAPIError,
		OrderNumber: orderNumber,
		Source:      model.SourceAPI,
		ExtraData:   detail,
	})
	return err
}

func (s *inventoryService) LogSyncFailure(ctx context.Context, skuID, storeID string, detail map[string]interface{}) error {
	_, err := s.CreateEvent(ctx, &model.Event{
		SkuID:     skuID,
		StoreID:   storeID,
		EventType: model.EventSyncFailure,
		Source:    model.SourceAPI,
		ExtraData: detail,
	})
	return err
}
