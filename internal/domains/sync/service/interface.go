package service

import "context"

// PushResult summarizes one push cycle for a store.
type PushResult struct {
	StoreID string `json:"storeId"`
	Pushed  int    `json:"pushed"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// DiscoveryResult summarizes one SKU discovery run for a store.
type DiscoveryResult struct {
	StoreID    string `json:"storeId"`
	Seen       int    `json:"seen"`
	Registered int    `json:"registered"`
}

type SyncService interface {
	// PushSKUToStore pushes one SKU's snapshot to one store.
	PushSKUToStore(ctx context.Context, skuID, storeID string) error
	// PushStore pushes every registered SKU of a store concurrently.
	PushStore(ctx context.Context, storeID string) (*PushResult, error)
	// PushSKUToAllStores propagates one SKU to every store it is
	// registered on.
	PushSKUToAllStores(ctx context.Context, skuID string) error
	// PushAllStores runs PushStore for every active store.
	PushAllStores(ctx context.Context) ([]PushResult, error)
	// SyncStoreSKUs walks the store's platform inventory in quantity
	// bands and registers every SKU it finds.
	SyncStoreSKUs(ctx context.Context, storeID string) (*DiscoveryResult, error)
	// TestStoreAuth probes the store credentials.
	TestStoreAuth(ctx context.Context, storeID string) error
}
