package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"stocksync-backend/internal/domains/store/model"
)

type StoreRepository interface {
	GetByID(ctx context.Context, storeID string) (*model.Store, error)
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	ListActive(ctx context.Context, environment string) ([]model.Store, error)
	UpdateLastSKUSyncAt(ctx context.Context, storeID string, at time.Time) error

	RegisterSKU(ctx context.Context, link *model.StoreSKU) (bool, error)
	ListStoreSKUs(ctx context.Context, storeID string) ([]model.StoreSKU, error)
	ListStoresForSKU(ctx context.Context, skuID string) ([]model.StoreSKU, error)
	TouchSyncedAt(ctx context.Context, storeID, skuID string, at time.Time) error

	WithTx(tx pgx.Tx) StoreRepository
}
