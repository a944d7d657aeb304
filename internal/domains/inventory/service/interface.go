package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"stocksync-backend/internal/domains/inventory/model"
)

type InventoryService interface {
	// CreateEvent appends an event and, for stock-altering types,
	// moves the snapshot in the same transaction. The returned
	// snapshot is nil for audit-only event types.
	CreateEvent(ctx context.Context, event *model.Event) (*model.Snapshot, error)
	GetSnapshot(ctx context.Context, skuID string) (*model.Snapshot, error)
	GetEvents(ctx context.Context, skuID string, limit, offset int) ([]model.Event, error)
	RebuildSnapshot(ctx context.Context, skuID string) (*model.Snapshot, error)
	ResetSKU(ctx context.Context, skuID string, quantity int, source, operator string) (*model.Snapshot, error)
	// DeactivateSKU logically deletes a SKU: status flips to inactive,
	// extra data is wiped and every dependent row (events, snapshot,
	// store links) is removed. The master row survives.
	DeactivateSKU(ctx context.Context, skuID string) error
	LogAPIError(ctx context.Context, skuID, storeID, orderNumber string, detail map[string]interface{}) error
	LogSyncFailure(ctx context.Context, skuID, storeID string, detail map[string]interface{}) error

	WithTx(tx pgx.Tx) InventoryService
}
