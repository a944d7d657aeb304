package service

import (
	"context"
	"time"

	"stocksync-backend/internal/domains/order/model"
)

// PollResult summarizes one polling cycle for a store.
type PollResult struct {
	StoreID        string `json:"storeId"`
	OrdersSeen     int    `json:"ordersSeen"`
	EventsCreated  int    `json:"eventsCreated"`
	Skipped        int    `json:"skipped"`
	OversellBlocks int    `json:"oversellBlocks"`
	Confirmed      int    `json:"confirmed"`
	ConfirmFailed  int    `json:"confirmFailed"`
}

// RetryResult summarizes one drain of the confirmation retry queue.
type RetryResult struct {
	Processed   int `json:"processed"`
	Confirmed   int `json:"confirmed"`
	Rescheduled int `json:"rescheduled"`
	Failed      int `json:"failed"`
}

type OrderService interface {
	// PollStore ingests orders for one store over [start, end]. Zero
	// times fall back to the configured default window ending now.
	PollStore(ctx context.Context, storeID string, start, end time.Time) (*PollResult, error)
	// PollAllStores polls every active store serially, then drains the
	// retry queue once.
	PollAllStores(ctx context.Context) ([]PollResult, error)
	ProcessRetryQueue(ctx context.Context) (*RetryResult, error)
	ListRetries(ctx context.Context, status string, limit, offset int) ([]model.ConfirmRetry, error)
}
