package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	invmodel "stocksync-backend/internal/domains/inventory/model"
	invrepo "stocksync-backend/internal/domains/inventory/repository"
	"stocksync-backend/internal/domains/order/model"
	orderrepo "stocksync-backend/internal/domains/order/repository"
	skumodel "stocksync-backend/internal/domains/sku/model"
	skurepo "stocksync-backend/internal/domains/sku/repository"
	storemodel "stocksync-backend/internal/domains/store/model"
	storerepo "stocksync-backend/internal/domains/store/repository"
	"stocksync-backend/internal/platform"
)

// In-memory fakes standing in for the postgres repositories.

type fakeInvRepo struct {
	events    []invmodel.Event
	snapshots map[string]*invmodel.Snapshot
	tokens    map[string]bool
	nextID    int64
}

func newFakeInvRepo() *fakeInvRepo {
	return &fakeInvRepo{snapshots: map[string]*invmodel.Snapshot{}, tokens: map[string]bool{}, nextID: 1}
}

func (f *fakeInvRepo) InsertEvent(ctx context.Context, event *invmodel.Event) error {
	if event.DedupToken != "" {
		if f.tokens[event.DedupToken] {
			return invmodel.ErrDuplicateToken
		}
		f.tokens[event.DedupToken] = true
	}
	event.ID = f.nextID
	f.nextID++
	event.CreatedAt = time.Now().UTC()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeInvRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	return f.tokens[token], nil
}

func (f *fakeInvRepo) GetEvents(ctx context.Context, skuID string, limit, offset int) ([]invmodel.Event, error) {
	var out []invmodel.Event
	for _, e := range f.events {
		if e.SkuID == skuID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeInvRepo) eventsOfType(et invmodel.EventType) []invmodel.Event {
	var out []invmodel.Event
	for _, e := range f.events {
		if e.EventType == et {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeInvRepo) GetSnapshot(ctx context.Context, skuID string) (*invmodel.Snapshot, error) {
	snap, ok := f.snapshots[skuID]
	if !ok {
		return nil, invmodel.ErrSnapshotNotFound
	}
	cp := *snap
	return &cp, nil
}

func (f *fakeInvRepo) GetSnapshotForUpdate(ctx context.Context, skuID string) (*invmodel.Snapshot, error) {
	snap, err := f.GetSnapshot(ctx, skuID)
	if err != nil {
		return &invmodel.Snapshot{SkuID: skuID}, nil
	}
	return snap, nil
}

func (f *fakeInvRepo) UpsertSnapshot(ctx context.Context, snap *invmodel.Snapshot) error {
	cp := *snap
	f.snapshots[snap.SkuID] = &cp
	return nil
}

func (f *fakeInvRepo) SumEvents(ctx context.Context, skuID string) (int, int64, error) {
	var total int
	var lastID int64
	for _, e := range f.events {
		if e.SkuID != skuID || !e.EventType.StockAltering() {
			continue
		}
		if e.EventType.Absolute() {
			total = e.Quantity
		} else {
			total += e.Quantity
		}
		lastID = e.ID
	}
	return total, lastID, nil
}

func (f *fakeInvRepo) PurgeSKU(ctx context.Context, skuID string) error {
	var kept []invmodel.Event
	for _, e := range f.events {
		if e.SkuID != skuID {
			kept = append(kept, e)
		}
	}
	f.events = kept
	delete(f.snapshots, skuID)
	return nil
}

func (f *fakeInvRepo) WithTx(tx pgx.Tx) invrepo.InventoryRepository { return f }

type fakeSKURepo struct {
	skus map[string]*skumodel.SKU
}

func newFakeSKURepo() *fakeSKURepo {
	return &fakeSKURepo{skus: map[string]*skumodel.SKU{}}
}

func (f *fakeSKURepo) GetByID(ctx context.Context, skuID string) (*skumodel.SKU, error) {
	sku, ok := f.skus[skuID]
	if !ok {
		return nil, skumodel.ErrSKUNotFound
	}
	return sku, nil
}

func (f *fakeSKURepo) Create(ctx context.Context, sku *skumodel.SKU) error {
	if _, ok := f.skus[sku.SkuID]; ok {
		return skumodel.ErrSKUExists
	}
	f.skus[sku.SkuID] = sku
	return nil
}

func (f *fakeSKURepo) GetOrCreate(ctx context.Context, skuID, originalSku, skuName, platform, environment string) (*skumodel.SKU, bool, error) {
	if sku, ok := f.skus[skuID]; ok {
		return sku, false, nil
	}
	if originalSku == "" {
		originalSku = skuID
	}
	sku := &skumodel.SKU{SkuID: skuID, OriginalSku: originalSku, SkuName: skuName, Environment: environment, Status: skumodel.StatusActive, AllowOversell: true}
	if platform != "" {
		sku.ExtraData.Aliases = map[string]string{platform: originalSku}
	}
	f.skus[skuID] = sku
	return sku, true, nil
}

func (f *fakeSKURepo) List(ctx context.Context, limit, offset int) ([]skumodel.SKU, error) {
	return nil, nil
}

func (f *fakeSKURepo) UpdateStatus(ctx context.Context, skuID, status string) error {
	sku, ok := f.skus[skuID]
	if !ok {
		return skumodel.ErrSKUNotFound
	}
	sku.Status = status
	return nil
}

func (f *fakeSKURepo) UpdateExtraData(ctx context.Context, skuID string, extra skumodel.ExtraData) error {
	sku, ok := f.skus[skuID]
	if !ok {
		return skumodel.ErrSKUNotFound
	}
	sku.ExtraData = extra
	return nil
}

func (f *fakeSKURepo) WithTx(tx pgx.Tx) skurepo.SKURepository { return f }

type fakeStoreRepo struct {
	stores map[string]*storemodel.Store
	links  map[string]*storemodel.StoreSKU
}

func newFakeStoreRepo(stores ...*storemodel.Store) *fakeStoreRepo {
	f := &fakeStoreRepo{stores: map[string]*storemodel.Store{}, links: map[string]*storemodel.StoreSKU{}}
	for _, s := range stores {
		f.stores[s.StoreID] = s
	}
	return f
}

func linkKey(storeID, skuID string) string { return storeID + "/" + skuID }

func (f *fakeStoreRepo) GetByID(ctx context.Context, storeID string) (*storemodel.Store, error) {
	store, ok := f.stores[storeID]
	if !ok {
		return nil, storemodel.ErrStoreNotFound
	}
	return store, nil
}

func (f *fakeStoreRepo) Create(ctx context.Context, store *storemodel.Store) error {
	if _, ok := f.stores[store.StoreID]; ok {
		return storemodel.ErrStoreExists
	}
	f.stores[store.StoreID] = store
	return nil
}

func (f *fakeStoreRepo) Update(ctx context.Context, store *storemodel.Store) error {
	if _, ok := f.stores[store.StoreID]; !ok {
		return storemodel.ErrStoreNotFound
	}
	f.stores[store.StoreID] = store
	return nil
}

func (f *fakeStoreRepo) ListActive(ctx context.Context, environment string) ([]storemodel.Store, error) {
	var out []storemodel.Store
	for _, s := range f.stores {
		if s.Status == storemodel.StatusActive && s.Environment == environment {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) UpdateLastSKUSyncAt(ctx context.Context, storeID string, at time.Time) error {
	store, ok := f.stores[storeID]
	if !ok {
		return storemodel.ErrStoreNotFound
	}
	store.LastSKUSyncAt = &at
	return nil
}

func (f *fakeStoreRepo) RegisterSKU(ctx context.Context, link *storemodel.StoreSKU) (bool, error) {
	key := linkKey(link.StoreID, link.SkuID)
	if _, ok := f.links[key]; ok {
		return false, nil
	}
	link.Status = storemodel.StatusActive
	link.RegisteredAt = time.Now().UTC()
	f.links[key] = link
	return true, nil
}

func (f *fakeStoreRepo) ListStoreSKUs(ctx context.Context, storeID string) ([]storemodel.StoreSKU, error) {
	var out []storemodel.StoreSKU
	for _, l := range f.links {
		if l.StoreID == storeID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) ListStoresForSKU(ctx context.Context, skuID string) ([]storemodel.StoreSKU, error) {
	var out []storemodel.StoreSKU
	for _, l := range f.links {
		if l.SkuID == skuID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) TouchSyncedAt(ctx context.Context, storeID, skuID string, at time.Time) error {
	if l, ok := f.links[linkKey(storeID, skuID)]; ok {
		l.LastSyncedAt = &at
	}
	return nil
}

func (f *fakeStoreRepo) WithTx(tx pgx.Tx) storerepo.StoreRepository { return f }

type fakeRetryRepo struct {
	entries map[int64]*model.ConfirmRetry
	nextID  int64
}

func newFakeRetryRepo() *fakeRetryRepo {
	return &fakeRetryRepo{entries: map[int64]*model.ConfirmRetry{}, nextID: 1}
}

func (f *fakeRetryRepo) Enqueue(ctx context.Context, orderNumber, storeID, lastError string, nextAttemptAt time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.OrderNumber == orderNumber && e.StoreID == storeID && e.Status == model.RetryStatusPending {
			return false, nil
		}
	}
	f.entries[f.nextID] = &model.ConfirmRetry{
		ID:            f.nextID,
		OrderNumber:   orderNumber,
		StoreID:       storeID,
		MaxRetries:    model.DefaultMaxRetries,
		NextAttemptAt: nextAttemptAt,
		Status:        model.RetryStatusPending,
		LastError:     lastError,
	}
	f.nextID++
	return true, nil
}

func (f *fakeRetryRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ConfirmRetry, error) {
	var out []model.ConfirmRetry
	for _, e := range f.entries {
		if e.Status == model.RetryStatusPending && !e.NextAttemptAt.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRetryRepo) Reschedule(ctx context.Context, id int64, retryCount int, nextAttemptAt time.Time, lastError string) error {
	e, ok := f.entries[id]
	if !ok || e.Status != model.RetryStatusPending {
		return model.ErrRetryNotFound
	}
	e.RetryCount = retryCount
	e.NextAttemptAt = nextAttemptAt
	e.LastError = lastError
	now := time.Now()
	e.LastAttemptAt = &now
	return nil
}

func (f *fakeRetryRepo) MarkFailed(ctx context.Context, id int64, retryCount int, lastError string) error {
	e, ok := f.entries[id]
	if !ok {
		return model.ErrRetryNotFound
	}
	e.Status = model.RetryStatusFailed
	e.RetryCount = retryCount
	e.LastError = lastError
	now := time.Now()
	e.LastAttemptAt = &now
	return nil
}

func (f *fakeRetryRepo) Delete(ctx context.Context, id int64) error {
	delete(f.entries, id)
	return nil
}

func (f *fakeRetryRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]model.ConfirmRetry, error) {
	var out []model.ConfirmRetry
	for _, e := range f.entries {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRetryRepo) WithTx(tx pgx.Tx) orderrepo.RetryRepository { return f }

// fakeAPI scripts the marketplace responses.
type fakeAPI struct {
	orders       map[string]platform.Order
	confirmErrs  map[string]error
	confirmCalls []string
	searchErr    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{orders: map[string]platform.Order{}, confirmErrs: map[string]error{}}
}

func (f *fakeAPI) addOrder(o platform.Order) {
	f.orders[o.OrderNumber] = o
}

func (f *fakeAPI) SearchOrders(ctx context.Context, start, end time.Time, progresses []int) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []string
	for n := range f.orders {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeAPI) GetOrders(ctx context.Context, orderNumbers []string) ([]platform.Order, error) {
	var out []platform.Order
	for _, n := range orderNumbers {
		if o, ok := f.orders[n]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeAPI) ConfirmOrder(ctx context.Context, orderNumber string) error {
	f.confirmCalls = append(f.confirmCalls, orderNumber)
	return f.confirmErrs[orderNumber]
}

func (f *fakeAPI) SetInventory(ctx context.Context, manageNumber, variantID string, quantity int) error {
	return fmt.Errorf("not scripted")
}

func (f *fakeAPI) ListInventoryRange(ctx context.Context, minQty, maxQty int) ([]platform.InventoryRecord, error) {
	return nil, nil
}

func (f *fakeAPI) GetItem(ctx context.Context, manageNumber string) (*platform.Item, error) {
	return nil, fmt.Errorf("not scripted")
}

func (f *fakeAPI) TestAuth(ctx context.Context) error { return nil }
