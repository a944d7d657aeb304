package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stocksync-backend/internal/domains/order/model"
	"stocksync-backend/pkg/database"
)

type retryRepository struct {
	db database.Querier
}

func NewRetryRepository(db database.Querier) RetryRepository {
	return &retryRepository{db: db}
}

func (r *retryRepository) WithTx(tx pgx.Tx) RetryRepository {
	return &retryRepository{db: tx}
}

// Enqueue relies on the partial unique index over pending rows, so a
// store can re-fail the same order without stacking duplicates.
func (r *retryRepository) Enqueue(ctx context.Context, orderNumber, storeID, lastError string, nextAttemptAt time.Time) (bool, error) {
	query := `
		INSERT INTO order_confirm_retries (order_number, store_id, retry_count, max_retries, next_attempt_at, status, last_error)
		VALUES ($1, $2, 0, $3, $4, $5, $6)
		ON CONFLICT (order_number, store_id) WHERE status = 'pending' DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		orderNumber, storeID, model.DefaultMaxRetries, nextAttemptAt, model.RetryStatusPending, lastError,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue confirm retry for %s: %w", orderNumber, err)
	}
	return tag.RowsAffected() > 0, nil
}

const retryColumns = `id, order_number, store_id, retry_count, max_retries, last_attempt_at, next_attempt_at, status, COALESCE(last_error, ''), created_at, updated_at`

func (r *retryRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ConfirmRetry, error) {
	query := `
		SELECT ` + retryColumns + `
		FROM order_confirm_retries
		WHERE status = $1 AND next_attempt_at <= $2
		ORDER BY next_attempt_at
		LIMIT $3`

	return r.query(ctx, query, model.RetryStatusPending, now, limit)
}

func (r *retryRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]model.ConfirmRetry, error) {
	query := `
		SELECT ` + retryColumns + `
		FROM order_confirm_retries
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	return r.query(ctx, query, status, limit, offset)
}

func (r *retryRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.ConfirmRetry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query confirm retries: %w", err)
	}
	defer rows.Close()

	var entries []model.ConfirmRetry
	for rows.Next() {
		var e model.ConfirmRetry
		err := rows.Scan(
			&e.ID, &e.OrderNumber, &e.StoreID, &e.RetryCount, &e.MaxRetries,
			&e.LastAttemptAt, &e.NextAttemptAt, &e.Status, &e.LastError, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan confirm retry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *retryRepository) Reschedule(ctx context.Context, id int64, retryCount int, nextAttemptAt time.Time, lastError string) error {
	query := `
		UPDATE order_confirm_retries
		SET retry_count = $2, next_attempt_at = $3, last_error = $4, last_attempt_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.db.Exec(ctx, query, id, retryCount, nextAttemptAt, lastError)
	if err != nil {
		return fmt.Errorf("reschedule confirm retry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRetryNotFound
	}
	return nil
}

func (r *retryRepository) MarkFailed(ctx context.Context, id int64, retryCount int, lastError string) error {
	query := `
		UPDATE order_confirm_retries
		SET status = $2, retry_count = $3, last_error = $4, last_attempt_at = now(), updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, model.RetryStatusFailed, retryCount, lastError)
	if err != nil {
		return fmt.Errorf("mark confirm retry %d failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRetryNotFound
	}
	return nil
}

func (r *retryRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM order_confirm_retries WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete confirm retry %d: %w", id, err)
	}
	return nil
}
