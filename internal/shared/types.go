package shared

// Asynq task type names.
const (
	TypePollAllStores     = "order:poll_all_stores"
	TypePollStore         = "order:poll_store"
	TypeProcessRetryQueue = "order:process_retry_queue"
	TypePushInventory     = "sync:push_inventory"
	TypeSyncStoreSKUs     = "sync:store_skus"
)

// Queue names, mapped to priorities in the worker config.
const (
	QueueOrders = "orders"
	QueueSync   = "sync"
)

// PollStorePayload triggers a polling cycle for a single store. An empty
// window falls back to the poller's default (last two hours).
type PollStorePayload struct {
	StoreID   string `json:"storeId"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// PushInventoryPayload triggers a snapshot push for one store, or for every
// active store when StoreID is empty.
type PushInventoryPayload struct {
	StoreID string `json:"storeId,omitempty"`
}

// SyncStoreSKUsPayload triggers SKU discovery for a store.
type SyncStoreSKUsPayload struct {
	StoreID string `json:"storeId"`
}
