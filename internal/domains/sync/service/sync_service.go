package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	invmodel "stocksync-backend/internal/domains/inventory/model"
	invservice "stocksync-backend/internal/domains/inventory/service"
	skurepo "stocksync-backend/internal/domains/sku/repository"
	storemodel "stocksync-backend/internal/domains/store/model"
	storerepo "stocksync-backend/internal/domains/store/repository"
	"stocksync-backend/internal/platform"
	"stocksync-backend/internal/shared/utils"
)

// Discovery walks listed quantities in fixed bands so no single range
// call has to page through the whole catalog.
const (
	discoveryBandSize = 1000
	discoveryMaxQty   = 10000
)

type syncService struct {
	storeRepo   storerepo.StoreRepository
	skuRepo     skurepo.SKURepository
	invSvc      invservice.InventoryService
	factory     platform.Factory
	fanout      int
	environment string
}

func NewSyncService(
	storeRepo storerepo.StoreRepository,
	skuRepo skurepo.SKURepository,
	invSvc invservice.InventoryService,
	factory platform.Factory,
	fanout int,
	environment string,
) SyncService {
	if fanout <= 0 {
		fanout = 16
	}
	return &syncService{
		storeRepo:   storeRepo,
		skuRepo:     skuRepo,
		invSvc:      invSvc,
		factory:     factory,
		fanout:      fanout,
		environment: environment,
	}
}

func (s *syncService) PushSKUToStore(ctx context.Context, skuID, storeID string) error {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	client, err := s.factory(store)
	if err != nil {
		return err
	}

	links, err := s.storeRepo.ListStoreSKUs(ctx, storeID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if link.SkuID == skuID {
			_, err := s.pushLink(ctx, client, store, link)
			return err
		}
	}
	return fmt.Errorf("sku %s is not registered on store %s", skuID, storeID)
}

// pushLink pushes one store SKU and reports whether anything was sent.
// The platform never sees a negative quantity: internal oversell
// clamps to zero on the listing.
func (s *syncService) pushLink(ctx context.Context, client platform.API, store *storemodel.Store, link storemodel.StoreSKU) (bool, error) {
	sku, err := s.skuRepo.GetByID(ctx, link.SkuID)
	if err != nil {
		return false, err
	}
	if !sku.Active() {
		return false, nil
	}

	snap, err := s.invSvc.GetSnapshot(ctx, link.SkuID)
	if err != nil {
		if errors.Is(err, invmodel.ErrSnapshotNotFound) {
			return false, nil
		}
		return false, err
	}

	qty := snap.AvailableQuantity
	if qty < 0 {
		qty = 0
	}

	variantID := link.VariantID
	if variantID == "" {
		variantID = sku.PlatformAlias(store.Platform)
	}
	manageNumber := link.ManageNumber
	if manageNumber == "" {
		manageNumber = link.PlatformSku
	}

	if err := client.SetInventory(ctx, manageNumber, variantID, qty); err != nil {
		if logErr := s.invSvc.LogSyncFailure(ctx, link.SkuID, store.StoreID, map[string]interface{}{
			"operation": "setInventory",
			"quantity":  qty,
			"error":     err.Error(),
		}); logErr != nil {
			log.Error().Err(logErr).Str("sku_id", link.SkuID).Msg("Failed to log sync failure")
		}
		return false, fmt.Errorf("push sku %s to store %s: %w", link.SkuID, store.StoreID, err)
	}

	return true, s.storeRepo.TouchSyncedAt(ctx, store.StoreID, link.SkuID, utils.UTCNow())
}

func (s *syncService) PushStore(ctx context.Context, storeID string) (*PushResult, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	result := &PushResult{StoreID: storeID}
	if !store.Active() {
		return result, nil
	}

	client, err := s.factory(store)
	if err != nil {
		if errors.Is(err, platform.ErrCredentialsMissing) {
			log.Warn().Str("store_id", storeID).Msg("Store has no credentials, skipping push")
			return result, nil
		}
		return nil, err
	}

	links, err := s.storeRepo.ListStoreSKUs(ctx, storeID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)

	for _, link := range links {
		link := link
		g.Go(func() error {
			pushed, err := s.pushLink(gctx, client, store, link)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && pushed:
				result.Pushed++
			case err == nil:
				result.Skipped++
			case errors.Is(err, platform.ErrCredentialExpired):
				result.Failed++
				return err
			default:
				result.Failed++
				log.Warn().Err(err).Str("sku_id", link.SkuID).Msg("Push failed for SKU")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	log.Info().
		Str("store_id", storeID).
		Int("pushed", result.Pushed).
		Int("failed", result.Failed).
		Msg("Push cycle finished")
	return result, nil
}

func (s *syncService) PushSKUToAllStores(ctx context.Context, skuID string) error {
	links, err := s.storeRepo.ListStoresForSKU(ctx, skuID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, link := range links {
		if err := s.PushSKUToStore(ctx, skuID, link.StoreID); err != nil {
			log.Warn().Err(err).Str("sku_id", skuID).Str("store_id", link.StoreID).Msg("Push to store failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *syncService) PushAllStores(ctx context.Context) ([]PushResult, error) {
	stores, err := s.storeRepo.ListActive(ctx, s.environment)
	if err != nil {
		return nil, err
	}

	var results []PushResult
	for _, store := range stores {
		res, err := s.PushStore(ctx, store.StoreID)
		if err != nil {
			log.Error().Err(err).Str("store_id", store.StoreID).Msg("Push failed for store")
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *syncService) SyncStoreSKUs(ctx context.Context, storeID string) (*DiscoveryResult, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	client, err := s.factory(store)
	if err != nil {
		return nil, err
	}

	result := &DiscoveryResult{StoreID: storeID}
	items := map[string]*platform.Item{}

	for band := 0; band < discoveryMaxQty; band += discoveryBandSize {
		records, err := client.ListInventoryRange(ctx, band, band+discoveryBandSize-1)
		if err != nil {
			return result, fmt.Errorf("discover skus for store %s: %w", storeID, err)
		}

		for _, rec := range records {
			result.Seen++

			item, ok := items[rec.ManageNumber]
			if !ok {
				item, err = client.GetItem(ctx, rec.ManageNumber)
				if err != nil {
					log.Warn().Err(err).Str("manage_number", rec.ManageNumber).Msg("Item lookup failed during discovery")
					continue
				}
				items[rec.ManageNumber] = item
			}

			raw := discoveryRawSku(item, rec)
			if raw == "" {
				continue
			}
			skuID := utils.NormalizeSKU(raw)

			if _, _, err := s.skuRepo.GetOrCreate(ctx, skuID, raw, item.Title, store.Platform, store.Environment); err != nil {
				return result, err
			}
			created, err := s.storeRepo.RegisterSKU(ctx, &storemodel.StoreSKU{
				StoreID:      storeID,
				SkuID:        skuID,
				PlatformSku:  rec.VariantID,
				ManageNumber: rec.ManageNumber,
				VariantID:    rec.VariantID,
			})
			if err != nil {
				return result, err
			}
			if created {
				result.Registered++
			}
		}
	}

	if err := s.storeRepo.UpdateLastSKUSyncAt(ctx, storeID, utils.UTCNow()); err != nil {
		return result, err
	}

	log.Info().
		Str("store_id", storeID).
		Int("seen", result.Seen).
		Int("registered", result.Registered).
		Msg("SKU discovery finished")
	return result, nil
}

// discoveryRawSku resolves the external SKU for one discovered
// variant, in the form the platform reports it.
func discoveryRawSku(item *platform.Item, rec platform.InventoryRecord) string {
	if v, ok := item.Variants[rec.VariantID]; ok {
		if v.MerchantDefinedSkuID != "" {
			return v.MerchantDefinedSkuID
		}
		if v.ArticleNumber != "" {
			return v.ArticleNumber
		}
	}
	return rec.VariantID
}

func (s *syncService) TestStoreAuth(ctx context.Context, storeID string) error {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	client, err := s.factory(store)
	if err != nil {
		return err
	}
	return client.TestAuth(ctx)
}
