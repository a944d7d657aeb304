package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invmodel "stocksync-backend/internal/domains/inventory/model"
	invrepo "stocksync-backend/internal/domains/inventory/repository"
	invservice "stocksync-backend/internal/domains/inventory/service"
	skumodel "stocksync-backend/internal/domains/sku/model"
	skurepo "stocksync-backend/internal/domains/sku/repository"
	storemodel "stocksync-backend/internal/domains/store/model"
	storerepo "stocksync-backend/internal/domains/store/repository"
	"stocksync-backend/internal/platform"
)

type memInvRepo struct {
	mu        sync.Mutex
	events    []invmodel.Event
	snapshots map[string]*invmodel.Snapshot
	nextID    int64
}

func newMemInvRepo() *memInvRepo {
	return &memInvRepo{snapshots: map[string]*invmodel.Snapshot{}, nextID: 1}
}

func (f *memInvRepo) InsertEvent(ctx context.Context, event *invmodel.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = f.nextID
	f.nextID++
	f.events = append(f.events, *event)
	return nil
}

func (f *memInvRepo) TokenExists(ctx context.Context, token string) (bool, error) { return false, nil }

func (f *memInvRepo) GetEvents(ctx context.Context, skuID string, limit, offset int) ([]invmodel.Event, error) {
	return nil, nil
}

func (f *memInvRepo) GetSnapshot(ctx context.Context, skuID string) (*invmodel.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[skuID]
	if !ok {
		return nil, invmodel.ErrSnapshotNotFound
	}
	cp := *snap
	return &cp, nil
}

func (f *memInvRepo) GetSnapshotForUpdate(ctx context.Context, skuID string) (*invmodel.Snapshot, error) {
	snap, err := f.GetSnapshot(ctx, skuID)
	if err != nil {
		return &invmodel.Snapshot{SkuID: skuID}, nil
	}
	return snap, nil
}

func (f *memInvRepo) UpsertSnapshot(ctx context.Context, snap *invmodel.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *snap
	f.snapshots[snap.SkuID] = &cp
	return nil
}

func (f *memInvRepo) SumEvents(ctx context.Context, skuID string) (int, int64, error) {
	return 0, 0, nil
}

func (f *memInvRepo) PurgeSKU(ctx context.Context, skuID string) error { return nil }

func (f *memInvRepo) WithTx(tx pgx.Tx) invrepo.InventoryRepository { return f }

func (f *memInvRepo) failureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType == invmodel.EventSyncFailure {
			n++
		}
	}
	return n
}

type memSKURepo struct {
	mu   sync.Mutex
	skus map[string]*skumodel.SKU
}

func (f *memSKURepo) GetByID(ctx context.Context, skuID string) (*skumodel.SKU, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sku, ok := f.skus[skuID]
	if !ok {
		return nil, skumodel.ErrSKUNotFound
	}
	return sku, nil
}

func (f *memSKURepo) Create(ctx context.Context, sku *skumodel.SKU) error {
	f.skus[sku.SkuID] = sku
	return nil
}

func (f *memSKURepo) GetOrCreate(ctx context.Context, skuID, originalSku, skuName, platform, environment string) (*skumodel.SKU, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *memSKURepo) List(ctx context.Context, limit, offset int) ([]skumodel.SKU, error) {
	return nil, nil
}

func (f *memSKURepo) UpdateStatus(ctx context.Context, skuID, status string) error { return nil }

func (f *memSKURepo) UpdateExtraData(ctx context.Context, skuID string, extra skumodel.ExtraData) error {
	return nil
}

func (f *memSKURepo) WithTx(tx pgx.Tx) skurepo.SKURepository { return f }

type memStoreRepo struct {
	mu     sync.Mutex
	stores map[string]*storemodel.Store
	links  map[string]*storemodel.StoreSKU
}

func newMemStoreRepo(stores ...*storemodel.Store) *memStoreRepo {
	f := &memStoreRepo{stores: map[string]*storemodel.Store{}, links: map[string]*storemodel.StoreSKU{}}
	for _, s := range stores {
		f.stores[s.StoreID] = s
	}
	return f
}

func (f *memStoreRepo) GetByID(ctx context.Context, storeID string) (*storemodel.Store, error) {
	store, ok := f.stores[storeID]
	if !ok {
		return nil, storemodel.ErrStoreNotFound
	}
	return store, nil
}

func (f *memStoreRepo) Create(ctx context.Context, store *storemodel.Store) error {
	f.stores[store.StoreID] = store
	return nil
}

func (f *memStoreRepo) Update(ctx context.Context, store *storemodel.Store) error {
	f.stores[store.StoreID] = store
	return nil
}

func (f *memStoreRepo) ListActive(ctx context.Context, environment string) ([]storemodel.Store, error) {
	var out []storemodel.Store
	for _, s := range f.stores {
		if s.Status == storemodel.StatusActive && s.Environment == environment {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *memStoreRepo) UpdateLastSKUSyncAt(ctx context.Context, storeID string, at time.Time) error {
	store, ok := f.stores[storeID]
	if !ok {
		return storemodel.ErrStoreNotFound
	}
	store.LastSKUSyncAt = &at
	return nil
}

func (f *memStoreRepo) RegisterSKU(ctx context.Context, link *storemodel.StoreSKU) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := link.StoreID + "/" + link.SkuID
	if _, ok := f.links[key]; ok {
		return false, nil
	}
	f.links[key] = link
	return true, nil
}

func (f *memStoreRepo) ListStoreSKUs(ctx context.Context, storeID string) ([]storemodel.StoreSKU, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storemodel.StoreSKU
	for _, l := range f.links {
		if l.StoreID == storeID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *memStoreRepo) ListStoresForSKU(ctx context.Context, skuID string) ([]storemodel.StoreSKU, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storemodel.StoreSKU
	for _, l := range f.links {
		if l.SkuID == skuID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *memStoreRepo) TouchSyncedAt(ctx context.Context, storeID, skuID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.links[storeID+"/"+skuID]; ok {
		l.LastSyncedAt = &at
	}
	return nil
}

func (f *memStoreRepo) WithTx(tx pgx.Tx) storerepo.StoreRepository { return f }

// pushRecorder records SetInventory calls and serves scripted
// discovery data.
type pushRecorder struct {
	mu        sync.Mutex
	calls     map[string]int
	setErrs   map[string]error
	ranges    map[int][]platform.InventoryRecord
	items     map[string]*platform.Item
	itemCalls int
}

func newPushRecorder() *pushRecorder {
	return &pushRecorder{
		calls:   map[string]int{},
		setErrs: map[string]error{},
		ranges:  map[int][]platform.InventoryRecord{},
		items:   map[string]*platform.Item{},
	}
}

func (f *pushRecorder) SearchOrders(ctx context.Context, start, end time.Time, progresses []int) ([]string, error) {
	return nil, nil
}

func (f *pushRecorder) GetOrders(ctx context.Context, orderNumbers []string) ([]platform.Order, error) {
	return nil, nil
}

func (f *pushRecorder) ConfirmOrder(ctx context.Context, orderNumber string) error { return nil }

func (f *pushRecorder) SetInventory(ctx context.Context, manageNumber, variantID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := manageNumber + "/" + variantID
	if err, ok := f.setErrs[key]; ok {
		return err
	}
	f.calls[key] = quantity
	return nil
}

func (f *pushRecorder) ListInventoryRange(ctx context.Context, minQty, maxQty int) ([]platform.InventoryRecord, error) {
	return f.ranges[minQty], nil
}

func (f *pushRecorder) GetItem(ctx context.Context, manageNumber string) (*platform.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	item, ok := f.items[manageNumber]
	if !ok {
		return &platform.Item{ManageNumber: manageNumber}, nil
	}
	return item, nil
}

func (f *pushRecorder) TestAuth(ctx context.Context) error { return nil }

type syncEnv struct {
	svc       SyncService
	invRepo   *memInvRepo
	skuRepo   *memSKURepo
	storeRepo *memStoreRepo
	api       *pushRecorder
}

func newSyncEnv(t *testing.T, stores ...*storemodel.Store) *syncEnv {
	t.Helper()
	env := &syncEnv{
		invRepo:   newMemInvRepo(),
		skuRepo:   &memSKURepo{skus: map[string]*skumodel.SKU{}},
		storeRepo: newMemStoreRepo(stores...),
		api:       newPushRecorder(),
	}
	invSvc := invservice.NewInventoryService(nil, env.invRepo, env.skuRepo)
	factory := func(store *storemodel.Store) (platform.API, error) {
		if !store.APIConfig.Configured() {
			return nil, platform.ErrCredentialsMissing
		}
		return env.api, nil
	}
	env.svc = NewSyncService(env.storeRepo, env.skuRepo, invSvc, factory, 4, "prod")
	return env
}

func syncStore(id string) *storemodel.Store {
	return &storemodel.Store{
		StoreID:     id,
		Platform:    "rakuten",
		APIConfig:   storemodel.APIConfig{ServiceSecret: "sec", LicenseKey: "lic"},
		Environment: "prod",
		Status:      storemodel.StatusActive,
	}
}

func (e *syncEnv) seed(ctx context.Context, skuID string, qty int, link storemodel.StoreSKU) {
	e.skuRepo.skus[skuID] = &skumodel.SKU{SkuID: skuID, Status: skumodel.StatusActive, AllowOversell: true}
	e.invRepo.snapshots[skuID] = &invmodel.Snapshot{SkuID: skuID, AvailableQuantity: qty}
	link.SkuID = skuID
	e.storeRepo.RegisterSKU(ctx, &link)
}

func TestPushStoreSendsSnapshots(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.seed(ctx, "widget-a", 7, storemodel.StoreSKU{StoreID: "store-1", ManageNumber: "mng-a", VariantID: "v1"})
	env.seed(ctx, "widget-b", 3, storemodel.StoreSKU{StoreID: "store-1", ManageNumber: "mng-b", VariantID: "v1"})

	result, err := env.svc.PushStore(ctx, "store-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pushed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 7, env.api.calls["mng-a/v1"])
	assert.Equal(t, 3, env.api.calls["mng-b/v1"])
}

func TestPushClampsNegativeToZero(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.seed(ctx, "widget-a", -4, storemodel.StoreSKU{StoreID: "store-1", ManageNumber: "mng-a", VariantID: "v1"})

	require.NoError(t, env.svc.PushSKUToStore(ctx, "widget-a", "store-1"))
	assert.Equal(t, 0, env.api.calls["mng-a/v1"])
}

func TestPushSkipsInactiveSKU(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.seed(ctx, "widget-a", 5, storemodel.StoreSKU{StoreID: "store-1", ManageNumber: "mng-a", VariantID: "v1"})
	env.skuRepo.skus["widget-a"].Status = skumodel.StatusInactive

	require.NoError(t, env.svc.PushSKUToStore(ctx, "widget-a", "store-1"))
	assert.Empty(t, env.api.calls)
}

func TestPushSkipsSKUWithoutSnapshot(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.skuRepo.skus["widget-a"] = &skumodel.SKU{SkuID: "widget-a", Status: skumodel.StatusActive}
	env.storeRepo.RegisterSKU(ctx, &storemodel.StoreSKU{StoreID: "store-1", SkuID: "widget-a", ManageNumber: "mng-a", VariantID: "v1"})

	result, err := env.svc.PushStore(ctx, "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pushed)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, env.api.calls)
}

func TestPushFailureIsRecorded(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.seed(ctx, "widget-a", 5, storemodel.StoreSKU{StoreID: "store-1", ManageNumber: "mng-a", VariantID: "v1"})
	env.api.setErrs["mng-a/v1"] = &platform.APIError{Status: 503}

	result, err := env.svc.PushStore(ctx, "store-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, env.invRepo.failureCount())
}

func TestPushAliasResolutionFallsBackToSKU(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.seed(ctx, "widget-a", 5, storemodel.StoreSKU{StoreID: "store-1", ManageNumber: "mng-a"})
	env.skuRepo.skus["widget-a"].ExtraData = skumodel.ExtraData{Aliases: map[string]string{"rakuten": "rak-widget"}}

	require.NoError(t, env.svc.PushSKUToStore(ctx, "widget-a", "store-1"))
	// no variant id on the link, so the platform alias is used
	assert.Equal(t, 5, env.api.calls["mng-a/rak-widget"])
}

func TestSyncStoreSKUsRegistersDiscoveredSKUs(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()

	env.api.ranges[0] = []platform.InventoryRecord{
		{ManageNumber: "mng-a", VariantID: "v1", Quantity: 4},
		{ManageNumber: "mng-a", VariantID: "v2", Quantity: 9},
	}
	env.api.ranges[1000] = []platform.InventoryRecord{
		{ManageNumber: "mng-b", VariantID: "v1", Quantity: 1200},
	}
	env.api.items["mng-a"] = &platform.Item{
		ManageNumber: "mng-a",
		Title:        "Widget A",
		Variants: map[string]platform.Variant{
			"v1": {MerchantDefinedSkuID: "Widget-A-Red"},
			"v2": {ArticleNumber: "Widget-A-Blue"},
		},
	}

	result, err := env.svc.SyncStoreSKUs(ctx, "store-1")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Seen)
	assert.Equal(t, 3, result.Registered)
	// merchant SKU is normalized
	_, ok := env.skuRepo.skus["widget-a-red"]
	assert.True(t, ok)
	_, ok = env.skuRepo.skus["widget-a-blue"]
	assert.True(t, ok)
	// items are fetched once per manage number
	assert.Equal(t, 2, env.api.itemCalls)

	store, err := env.storeRepo.GetByID(ctx, "store-1")
	require.NoError(t, err)
	assert.NotNil(t, store.LastSKUSyncAt)
}

func TestSyncStoreSKUsIsIdempotent(t *testing.T) {
	env := newSyncEnv(t, syncStore("store-1"))
	ctx := context.Background()
	env.api.ranges[0] = []platform.InventoryRecord{{ManageNumber: "mng-a", VariantID: "v1", Quantity: 4}}

	_, err := env.svc.SyncStoreSKUs(ctx, "store-1")
	require.NoError(t, err)

	result, err := env.svc.SyncStoreSKUs(ctx, "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Registered)
}
