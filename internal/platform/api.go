package platform

import (
	"context"
	"time"
)

// API is the marketplace surface the pipelines depend on. Tests swap
// in fakes behind it.
type API interface {
	SearchOrders(ctx context.Context, start, end time.Time, progresses []int) ([]string, error)
	GetOrders(ctx context.Context, orderNumbers []string) ([]Order, error)
	ConfirmOrder(ctx context.Context, orderNumber string) error
	SetInventory(ctx context.Context, manageNumber, variantID string, quantity int) error
	ListInventoryRange(ctx context.Context, minQty, maxQty int) ([]InventoryRecord, error)
	GetItem(ctx context.Context, manageNumber string) (*Item, error)
	TestAuth(ctx context.Context) error
}

var _ API = (*Client)(nil)
