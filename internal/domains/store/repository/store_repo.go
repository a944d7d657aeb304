package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stocksync-backend/internal/domains/store/model"
	"stocksync-backend/pkg/database"
)

type storeRepository struct {
	db database.Querier
}

func NewStoreRepository(db database.Querier) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) WithTx(tx pgx.Tx) StoreRepository {
	return &storeRepository{db: tx}
}

const storeColumns = `store_id, store_name, platform, api_config, environment, status, last_sku_sync_at, created_at, updated_at`

func scanStore(row pgx.Row) (*model.Store, error) {
	var s model.Store
	err := row.Scan(
		&s.StoreID, &s.StoreName, &s.Platform, &s.APIConfig,
		&s.Environment, &s.Status, &s.LastSKUSyncAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrStoreNotFound
		}
		return nil, fmt.Errorf("scan store: %w", err)
	}
	return &s, nil
}

func (r *storeRepository) GetByID(ctx context.Context, storeID string) (*model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE store_id = $1`
	return scanStore(r.db.QueryRow(ctx, query, storeID))
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	query := `
		INSERT INTO stores (store_id, store_name, platform, api_config, environment, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		store.StoreID, store.StoreName, store.Platform, store.APIConfig,
		store.Environment, store.Status,
	).Scan(&store.CreatedAt, &store.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrStoreExists
		}
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	query := `
		UPDATE stores
		SET store_name = $2, platform = $3, api_config = $4, environment = $5, status = $6, updated_at = now()
		WHERE store_id = $1`

	tag, err := r.db.Exec(ctx, query,
		store.StoreID, store.StoreName, store.Platform, store.APIConfig,
		store.Environment, store.Status,
	)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrStoreNotFound
	}
	return nil
}

// ListActive returns active stores in the given environment, ordered
// for deterministic polling.
func (r *storeRepository) ListActive(ctx context.Context, environment string) ([]model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE status = $1 AND environment = $2 ORDER BY store_id`

	rows, err := r.db.Query(ctx, query, model.StatusActive, environment)
	if err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}
	defer rows.Close()

	var stores []model.Store
	for rows.Next() {
		var s model.Store
		err := rows.Scan(
			&s.StoreID, &s.StoreName, &s.Platform, &s.APIConfig,
			&s.Environment, &s.Status, &s.LastSKUSyncAt, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan store row: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *storeRepository) UpdateLastSKUSyncAt(ctx context.Context, storeID string, at time.Time) error {
	query := `UPDATE stores SET last_sku_sync_at = $2, updated_at = now() WHERE store_id = $1`

	tag, err := r.db.Exec(ctx, query, storeID, at)
	if err != nil {
		return fmt.Errorf("update last sku sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrStoreNotFound
	}
	return nil
}

// RegisterSKU links a SKU to a store. The registration is idempotent
// and reports whether a new link was created.
func (r *storeRepository) RegisterSKU(ctx context.Context, link *model.StoreSKU) (bool, error) {
	query := `
		INSERT INTO store_skus (store_id, sku_id, platform_sku, manage_number, variant_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (store_id, sku_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		link.StoreID, link.SkuID, link.PlatformSku, link.ManageNumber, link.VariantID, model.StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("register sku %s to store %s: %w", link.SkuID, link.StoreID, err)
	}
	return tag.RowsAffected() > 0, nil
}

const storeSKUColumns = `store_id, sku_id, platform_sku, manage_number, variant_id, status, registered_at, last_synced_at`

func (r *storeRepository) ListStoreSKUs(ctx context.Context, storeID string) ([]model.StoreSKU, error) {
	query := `SELECT ` + storeSKUColumns + ` FROM store_skus WHERE store_id = $1 AND status = $2 ORDER BY sku_id`
	return r.queryStoreSKUs(ctx, query, storeID, model.StatusActive)
}

func (r *storeRepository) ListStoresForSKU(ctx context.Context, skuID string) ([]model.StoreSKU, error) {
	query := `SELECT ` + storeSKUColumns + ` FROM store_skus WHERE sku_id = $1 AND status = $2 ORDER BY store_id`
	return r.queryStoreSKUs(ctx, query, skuID, model.StatusActive)
}

func (r *storeRepository) queryStoreSKUs(ctx context.Context, query string, args ...interface{}) ([]model.StoreSKU, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query store skus: %w", err)
	}
	defer rows.Close()

	var links []model.StoreSKU
	for rows.Next() {
		var l model.StoreSKU
		err := rows.Scan(
			&l.StoreID, &l.SkuID, &l.PlatformSku, &l.ManageNumber,
			&l.VariantID, &l.Status, &l.RegisteredAt, &l.LastSyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan store sku row: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *storeRepository) TouchSyncedAt(ctx context.Context, storeID, skuID string, at time.Time) error {
	query := `UPDATE store_skus SET last_synced_at = $3 WHERE store_id = $1 AND sku_id = $2`

	if _, err := r.db.Exec(ctx, query, storeID, skuID, at); err != nil {
		return fmt.Errorf("touch store sku synced at: %w", err)
	}
	return nil
}
