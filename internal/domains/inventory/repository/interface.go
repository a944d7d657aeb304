package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"stocksync-backend/internal/domains/inventory/model"
)

type InventoryRepository interface {
	InsertEvent(ctx context.Context, event *model.Event) error
	TokenExists(ctx context.Context, token string) (bool, error)
	GetEvents(ctx context.Context, skuID string, limit, offset int) ([]model.Event, error)

	GetSnapshot(ctx context.Context, skuID string) (*model.Snapshot, error)
	// GetSnapshotForUpdate locks the snapshot row for the duration of
	// the surrounding transaction. A missing row returns a zero-value
	// snapshot for the SKU.
	GetSnapshotForUpdate(ctx context.Context, skuID string) (*model.Snapshot, error)
	UpsertSnapshot(ctx context.Context, snap *model.Snapshot) error
	SumEvents(ctx context.Context, skuID string) (int, int64, error)
	// PurgeSKU removes every dependent row for the SKU: store links,
	// events and the snapshot. The master row is untouched.
	PurgeSKU(ctx context.Context, skuID string) error

	WithTx(tx pgx.Tx) InventoryRepository
}
