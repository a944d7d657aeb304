package model

import "time"

// Retry entry statuses. Successful confirmations are deleted, so only
// pending and failed rows persist.
const (
	RetryStatusPending = "pending"
	RetryStatusFailed  = "failed"
)

const (
	// DefaultMaxRetries bounds confirmation attempts per entry.
	DefaultMaxRetries = 3
	// InitialRetryDelay spaces the first retry after a failed confirm.
	InitialRetryDelay = 5 * time.Minute
)

// ConfirmRetry is one order waiting for its confirmation call to be
// retried against the marketplace.
type ConfirmRetry struct {
	ID            int64      `json:"id"`
	OrderNumber   string     `json:"orderNumber"`
	StoreID       string     `json:"storeId"`
	RetryCount    int        `json:"retryCount"`
	MaxRetries    int        `json:"maxRetries"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	NextAttemptAt time.Time  `json:"nextAttemptAt"`
	Status        string     `json:"status"`
	LastError     string     `json:"lastError,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Exhausted reports whether another attempt is still allowed.
func (r *ConfirmRetry) Exhausted() bool {
	return r.RetryCount >= r.MaxRetries
}

// Backoff returns the wait before the attempt after n completed
// retries: doubling minutes starting at two.
func Backoff(retryCount int) time.Duration {
	return time.Duration(1<<uint(retryCount)) * time.Minute
}
