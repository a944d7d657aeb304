package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"stocksync-backend/internal/domains/order/model"
)

type RetryRepository interface {
	// Enqueue adds a pending retry for the order unless one is already
	// pending, and reports whether a new entry was created.
	Enqueue(ctx context.Context, orderNumber, storeID, lastError string, nextAttemptAt time.Time) (bool, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.ConfirmRetry, error)
	Reschedule(ctx context.Context, id int64, retryCount int, nextAttemptAt time.Time, lastError string) error
	// MarkFailed terminates the entry, persisting the count of the
	// attempt that exhausted it.
	MarkFailed(ctx context.Context, id int64, retryCount int, lastError string) error
	Delete(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]model.ConfirmRetry, error)

	WithTx(tx pgx.Tx) RetryRepository
}
