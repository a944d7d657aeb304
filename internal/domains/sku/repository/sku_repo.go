package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stocksync-backend/internal/domains/sku/model"
	"stocksync-backend/pkg/database"
)

type skuRepository struct {
	db database.Querier
}

func NewSKURepository(db database.Querier) SKURepository {
	return &skuRepository{db: db}
}

func (r *skuRepository) WithTx(tx pgx.Tx) SKURepository {
	return &skuRepository{db: tx}
}

const skuColumns = `sku_id, original_sku, sku_name, allow_oversell, environment, status, extra_data, created_at, updated_at`

func scanSKU(row pgx.Row) (*model.SKU, error) {
	var s model.SKU
	err := row.Scan(
		&s.SkuID, &s.OriginalSku, &s.SkuName, &s.AllowOversell,
		&s.Environment, &s.Status, &s.ExtraData, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSKUNotFound
		}
		return nil, fmt.Errorf("scan sku: %w", err)
	}
	return &s, nil
}

func (r *skuRepository) GetByID(ctx context.Context, skuID string) (*model.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM sku_master WHERE sku_id = $1`
	return scanSKU(r.db.QueryRow(ctx, query, skuID))
}

func (r *skuRepository) Create(ctx context.Context, sku *model.SKU) error {
	query := `
		INSERT INTO sku_master (sku_id, original_sku, sku_name, allow_oversell, environment, status, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		sku.SkuID, sku.OriginalSku, sku.SkuName, sku.AllowOversell,
		sku.Environment, sku.Status, sku.ExtraData,
	).Scan(&sku.CreatedAt, &sku.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrSKUExists
		}
		return fmt.Errorf("insert sku: %w", err)
	}
	return nil
}

// GetOrCreate inserts the SKU if it does not exist yet and reports
// whether a new row was created. Existing rows are returned untouched.
// The raw external SKU is kept in original_sku and as the platform
// alias, so pushes can resolve the exact identifier the platform sent.
// Auto-discovered SKUs allow oversell until an operator tightens the
// policy, so order deductions are never lost before the first stock-in.
func (r *skuRepository) GetOrCreate(ctx context.Context, skuID, originalSku, skuName, platform, environment string) (*model.SKU, bool, error) {
	if originalSku == "" {
		originalSku = skuID
	}
	extra := model.ExtraData{}
	if platform != "" {
		extra.Aliases = map[string]string{platform: originalSku}
	}

	query := `
		INSERT INTO sku_master (sku_id, original_sku, sku_name, allow_oversell, environment, status, extra_data)
		VALUES ($1, $2, $3, true, $4, $5, $6)
		ON CONFLICT (sku_id) DO NOTHING
		RETURNING ` + skuColumns

	created, err := scanSKU(r.db.QueryRow(ctx, query, skuID, originalSku, skuName, environment, model.StatusActive, extra))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, model.ErrSKUNotFound) {
		return nil, false, err
	}

	existing, err := r.GetByID(ctx, skuID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *skuRepository) List(ctx context.Context, limit, offset int) ([]model.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM sku_master ORDER BY sku_id LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list skus: %w", err)
	}
	defer rows.Close()

	var skus []model.SKU
	for rows.Next() {
		var s model.SKU
		err := rows.Scan(
			&s.SkuID, &s.OriginalSku, &s.SkuName, &s.AllowOversell,
			&s.Environment, &s.Status, &s.ExtraData, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sku row: %w", err)
		}
		skus = append(skus, s)
	}
	return skus, rows.Err()
}

func (r *skuRepository) UpdateStatus(ctx context.Context, skuID, status string) error {
	query := `UPDATE sku_master SET status = $2, updated_at = now() WHERE sku_id = $1`

	tag, err := r.db.Exec(ctx, query, skuID, status)
	if err != nil {
		return fmt.Errorf("update sku status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSKUNotFound
	}
	return nil
}

func (r *skuRepository) UpdateExtraData(ctx context.Context, skuID string, extra model.ExtraData) error {
	query := `UPDATE sku_master SET extra_data = $2, updated_at = now() WHERE sku_id = $1`

	tag, err := r.db.Exec(ctx, query, skuID, extra)
	if err != nil {
		return fmt.Errorf("update sku extra data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSKUNotFound
	}
	return nil
}
