package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stocksync-backend/internal/domains/inventory/model"
	skumodel "stocksync-backend/internal/domains/sku/model"
	"stocksync-backend/pkg/database"
)

type inventoryRepository struct {
	db database.Querier
}

func NewInventoryRepository(db database.Querier) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) WithTx(tx pgx.Tx) InventoryRepository {
	return &inventoryRepository{db: tx}
}

func (r *inventoryRepository) InsertEvent(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO inventory_events (sku_id, store_id, event_type, quantity, order_number, dedup_token, source, operator, extra_data)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		event.SkuID, event.StoreID, string(event.EventType), event.Quantity,
		event.OrderNumber, event.DedupToken, event.Source, event.Operator, event.ExtraData,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return model.ErrDuplicateToken
			case "23503":
				return skumodel.ErrSKUNotFound
			}
		}
		return fmt.Errorf("insert inventory event: %w", err)
	}
	return nil
}

func (r *inventoryRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM inventory_events WHERE dedup_token = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("check dedup token: %w", err)
	}
	return exists, nil
}

func (r *inventoryRepository) GetEvents(ctx context.Context, skuID string, limit, offset int) ([]model.Event, error) {
	query := `
		SELECT id, COALESCE(sku_id, ''), COALESCE(store_id, ''), event_type, quantity,
		       COALESCE(order_number, ''), COALESCE(dedup_token, ''), source, operator, extra_data, created_at
		FROM inventory_events
		WHERE sku_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, skuID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var eventType string
		err := rows.Scan(
			&e.ID, &e.SkuID, &e.StoreID, &eventType, &e.Quantity,
			&e.OrderNumber, &e.DedupToken, &e.Source, &e.Operator, &e.ExtraData, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan inventory event: %w", err)
		}
		e.EventType = model.EventType(eventType)
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanSnapshot(row pgx.Row) (*model.Snapshot, error) {
	var s model.Snapshot
	err := row.Scan(&s.SkuID, &s.AvailableQuantity, &s.LastEventID, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return &s, nil
}

func (r *inventoryRepository) GetSnapshot(ctx context.Context, skuID string) (*model.Snapshot, error) {
	query := `SELECT sku_id, available_quantity, last_event_id, updated_at FROM inventory_snapshots WHERE sku_id = $1`
	return scanSnapshot(r.db.QueryRow(ctx, query, skuID))
}

func (r *inventoryRepository) GetSnapshotForUpdate(ctx context.Context, skuID string) (*model.Snapshot, error) {
	query := `SELECT sku_id, available_quantity, last_event_id, updated_at FROM inventory_snapshots WHERE sku_id = $1 FOR UPDATE`

	snap, err := scanSnapshot(r.db.QueryRow(ctx, query, skuID))
	if errors.Is(err, model.ErrSnapshotNotFound) {
		return &model.Snapshot{SkuID: skuID}, nil
	}
	return snap, err
}

func (r *inventoryRepository) UpsertSnapshot(ctx context.Context, snap *model.Snapshot) error {
	query := `
		INSERT INTO inventory_snapshots (sku_id, available_quantity, last_event_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (sku_id) DO UPDATE
		SET available_quantity = EXCLUDED.available_quantity,
		    last_event_id = EXCLUDED.last_event_id,
		    updated_at = now()`

	if _, err := r.db.Exec(ctx, query, snap.SkuID, snap.AvailableQuantity, snap.LastEventID); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *inventoryRepository) PurgeSKU(ctx context.Context, skuID string) error {
	statements := []string{
		`DELETE FROM store_skus WHERE sku_id = $1`,
		`DELETE FROM inventory_events WHERE sku_id = $1`,
		`DELETE FROM inventory_snapshots WHERE sku_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt, skuID); err != nil {
			return fmt.Errorf("purge sku rows: %w", err)
		}
	}
	return nil
}

// SumEvents replays the log for one SKU: deltas accumulate and the
// latest absolute reset, if any, restarts the sum. Returns the derived
// quantity and the highest event id seen.
func (r *inventoryRepository) SumEvents(ctx context.Context, skuID string) (int, int64, error) {
	query := `
		SELECT id, event_type, quantity
		FROM inventory_events
		WHERE sku_id = $1 AND event_type NOT IN ('ORDER_CONFIRMED', 'API_ERROR', 'SYNC_FAILURE')
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, skuID)
	if err != nil {
		return 0, 0, fmt.Errorf("replay inventory events: %w", err)
	}
	defer rows.Close()

	var total int
	var lastID int64
	for rows.Next() {
		var id int64
		var eventType string
		var qty int
		if err := rows.Scan(&id, &eventType, &qty); err != nil {
			return 0, 0, fmt.Errorf("scan replay row: %w", err)
		}
		if model.EventType(eventType).Absolute() {
			total = qty
		} else {
			total += qty
		}
		lastID = id
	}
	return total, lastID, rows.Err()
}
