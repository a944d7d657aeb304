package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"stocksync-backend/internal/domains/sku/model"
)

type SKURepository interface {
	GetByID(ctx context.Context, skuID string) (*model.SKU, error)
	Create(ctx context.Context, sku *model.SKU) error
	// GetOrCreate upserts a SKU observed in the wild. originalSku is
	// the raw external form, preserved once on first creation.
	GetOrCreate(ctx context.Context, skuID, originalSku, skuName, platform, environment string) (*model.SKU, bool, error)
	List(ctx context.Context, limit, offset int) ([]model.SKU, error)
	UpdateStatus(ctx context.Context, skuID, status string) error
	UpdateExtraData(ctx context.Context, skuID string, extra model.ExtraData) error

	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) SKURepository
}
