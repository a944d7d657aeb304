package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	invmodel "stocksync-backend/internal/domains/inventory/model"
	invrepo "stocksync-backend/internal/domains/inventory/repository"
	invservice "stocksync-backend/internal/domains/inventory/service"
	"stocksync-backend/internal/domains/order/model"
	orderrepo "stocksync-backend/internal/domains/order/repository"
	skurepo "stocksync-backend/internal/domains/sku/repository"
	storemodel "stocksync-backend/internal/domains/store/model"
	storerepo "stocksync-backend/internal/domains/store/repository"
	"stocksync-backend/internal/platform"
	"stocksync-backend/internal/shared/utils"
	"stocksync-backend/pkg/database"
)

var pollProgresses = []int{100, 300, 900}

type orderService struct {
	pool        *pgxpool.Pool
	storeRepo   storerepo.StoreRepository
	skuRepo     skurepo.SKURepository
	invRepo     invrepo.InventoryRepository
	invSvc      invservice.InventoryService
	retryRepo   orderrepo.RetryRepository
	factory     platform.Factory
	pollWindow  time.Duration
	environment string
}

func NewOrderService(
	pool *pgxpool.Pool,
	storeRepo storerepo.StoreRepository,
	skuRepo skurepo.SKURepository,
	invRepo invrepo.InventoryRepository,
	invSvc invservice.InventoryService,
	retryRepo orderrepo.RetryRepository,
	factory platform.Factory,
	pollWindow time.Duration,
	environment string,
) OrderService {
	return &orderService{
		pool:        pool,
		storeRepo:   storeRepo,
		skuRepo:     skuRepo,
		invRepo:     invRepo,
		invSvc:      invSvc,
		retryRepo:   retryRepo,
		factory:     factory,
		pollWindow:  pollWindow,
		environment: environment,
	}
}

func (s *orderService) PollStore(ctx context.Context, storeID string, start, end time.Time) (*PollResult, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	result := &PollResult{StoreID: storeID}
	if !store.Active() {
		log.Debug().Str("store_id", storeID).Msg("Store inactive, skipping poll")
		return result, nil
	}

	client, err := s.factory(store)
	if err != nil {
		if errors.Is(err, platform.ErrCredentialsMissing) {
			log.Warn().Str("store_id", storeID).Msg("Store has no credentials, skipping poll")
			return result, nil
		}
		return nil, err
	}

	if end.IsZero() {
		end = utils.UTCNow()
	}
	if start.IsZero() {
		start = end.Add(-s.pollWindow)
	}

	orderNumbers, err := client.SearchOrders(ctx, start, end, pollProgresses)
	if err != nil {
		s.logPollError(ctx, storeID, "searchOrder", err)
		return result, fmt.Errorf("poll store %s: %w", storeID, err)
	}
	result.OrdersSeen = len(orderNumbers)

	for i := 0; i < len(orderNumbers); i += platform.MaxOrdersPerFetch {
		chunk := orderNumbers[i:min(i+platform.MaxOrdersPerFetch, len(orderNumbers))]
		if err := s.pollChunk(ctx, client, store, chunk, result); err != nil {
			s.logPollError(ctx, storeID, "getOrder", err)
			if errors.Is(err, platform.ErrCredentialExpired) {
				return result, err
			}
			// a broken batch rolls back alone, the rest still run
			continue
		}
	}

	log.Info().
		Str("store_id", storeID).
		Int("orders", result.OrdersSeen).
		Int("events", result.EventsCreated).
		Int("skipped", result.Skipped).
		Int("confirmed", result.Confirmed).
		Msg("Poll cycle finished")
	return result, nil
}

func (s *orderService) logPollError(ctx context.Context, storeID, operation string, cause error) {
	log.Error().Err(cause).Str("store_id", storeID).Str("operation", operation).Msg("Poll step failed")
	if err := s.invSvc.LogAPIError(ctx, "", storeID, "", map[string]interface{}{
		"operation": operation,
		"error":     cause.Error(),
	}); err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("Failed to log poll error")
	}
}

// pollChunk fetches one batch of orders, records their events in a
// single transaction, and confirms new orders after the commit.
func (s *orderService) pollChunk(ctx context.Context, client platform.API, store *storemodel.Store, chunk []string, result *PollResult) error {
	orders, err := client.GetOrders(ctx, chunk)
	if err != nil {
		return fmt.Errorf("fetch orders for store %s: %w", store.StoreID, err)
	}

	var toConfirm []string
	process := func(deps txDeps) error {
		for _, order := range orders {
			confirm, err := s.processOrder(ctx, deps, store, order, result)
			if err != nil {
				return err
			}
			if confirm {
				toConfirm = append(toConfirm, order.OrderNumber)
			}
		}
		return nil
	}

	// nil pool means the caller already scoped the repositories
	if s.pool == nil {
		err = process(txDeps{invRepo: s.invRepo, invSvc: s.invSvc, skuRepo: s.skuRepo, storeRepo: s.storeRepo})
	} else {
		err = database.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
			return process(txDeps{
				invRepo:   s.invRepo.WithTx(tx),
				invSvc:    s.invSvc.WithTx(tx),
				skuRepo:   s.skuRepo.WithTx(tx),
				storeRepo: s.storeRepo.WithTx(tx),
			})
		})
	}
	if err != nil {
		return err
	}

	for _, orderNumber := range toConfirm {
		s.confirmOrder(ctx, client, store, orderNumber, result)
	}
	return nil
}

type txDeps struct {
	invRepo   invrepo.InventoryRepository
	invSvc    invservice.InventoryService
	skuRepo   skurepo.SKURepository
	storeRepo storerepo.StoreRepository
}

func (s *orderService) processOrder(ctx context.Context, deps txDeps, store *storemodel.Store, order platform.Order, result *PollResult) (confirm bool, err error) {
	status := order.Status()
	switch status {
	case platform.StatusNew:
		if err := s.recordOrderItems(ctx, deps, store, order, invmodel.EventOrderReceived, -1, result); err != nil {
			return false, err
		}
		confirmedToken := invmodel.DedupToken(order.OrderNumber, platform.StatusConfirmed, store.StoreID)
		alreadyConfirmed, err := deps.invRepo.TokenExists(ctx, confirmedToken)
		if err != nil {
			return false, err
		}
		return !alreadyConfirmed, nil

	case platform.StatusConfirmed:
		token := invmodel.DedupToken(order.OrderNumber, status, store.StoreID)
		exists, err := deps.invRepo.TokenExists(ctx, token)
		if err != nil {
			return false, err
		}
		if exists {
			result.Skipped++
			return false, nil
		}
		_, err = deps.invSvc.CreateEvent(ctx, &invmodel.Event{
			StoreID:     store.StoreID,
			EventType:   invmodel.EventOrderConfirmed,
			OrderNumber: order.OrderNumber,
			DedupToken:  token,
			Source:      invmodel.SourceAPI,
		})
		if err != nil {
			return false, err
		}
		result.EventsCreated++
		return false, nil

	case platform.StatusCancelled:
		return false, s.recordOrderItems(ctx, deps, store, order, invmodel.EventOrderCancelled, 1, result)

	default:
		log.Debug().Str("order", order.OrderNumber).Str("status", status).Msg("Ignoring order status")
		return false, nil
	}
}

// recordOrderItems writes one stock event per line item. sign is -1
// for deductions and +1 for restores.
func (s *orderService) recordOrderItems(ctx context.Context, deps txDeps, store *storemodel.Store, order platform.Order, eventType invmodel.EventType, sign int, result *PollResult) error {
	status := order.Status()
	for _, item := range order.Items() {
		raw := rawItemSku(item)
		if raw == "" {
			log.Warn().Str("order", order.OrderNumber).Msg("Order item without SKU identifier")
			continue
		}
		skuID := utils.NormalizeSKU(raw)

		token := invmodel.ItemDedupToken(order.OrderNumber, status, store.StoreID, skuID)
		exists, err := deps.invRepo.TokenExists(ctx, token)
		if err != nil {
			return err
		}
		if exists {
			result.Skipped++
			continue
		}

		if _, _, err := deps.skuRepo.GetOrCreate(ctx, skuID, raw, item.ItemName, store.Platform, store.Environment); err != nil {
			return err
		}
		if _, err := deps.storeRepo.RegisterSKU(ctx, &storemodel.StoreSKU{
			StoreID:      store.StoreID,
			SkuID:        skuID,
			PlatformSku:  item.ItemNumber,
			ManageNumber: item.ManageNumber,
			VariantID:    item.SkuID,
		}); err != nil {
			return err
		}

		_, err = deps.invSvc.CreateEvent(ctx, &invmodel.Event{
			SkuID:       skuID,
			StoreID:     store.StoreID,
			EventType:   eventType,
			Quantity:    sign * item.Units,
			OrderNumber: order.OrderNumber,
			DedupToken:  token,
			Source:      invmodel.SourceAPI,
		})
		if err != nil {
			var oversell *invmodel.OversellError
			if errors.As(err, &oversell) {
				result.OversellBlocks++
				log.Warn().
					Str("order", order.OrderNumber).
					Str("sku_id", skuID).
					Int("current", oversell.Current).
					Int("requested", oversell.Requested).
					Msg("Oversell rejected during polling")
				continue
			}
			if errors.Is(err, invmodel.ErrDuplicateToken) {
				result.Skipped++
				continue
			}
			return err
		}
		result.EventsCreated++
	}
	return nil
}

func (s *orderService) confirmOrder(ctx context.Context, client platform.API, store *storemodel.Store, orderNumber string, result *PollResult) {
	if err := client.ConfirmOrder(ctx, orderNumber); err != nil {
		result.ConfirmFailed++
		log.Warn().Err(err).Str("order", orderNumber).Str("store_id", store.StoreID).Msg("Order confirmation failed, queueing retry")

		if _, enqErr := s.retryRepo.Enqueue(ctx, orderNumber, store.StoreID, err.Error(), utils.UTCNow().Add(model.InitialRetryDelay)); enqErr != nil {
			log.Error().Err(enqErr).Str("order", orderNumber).Msg("Failed to enqueue confirm retry")
		}
		if logErr := s.invSvc.LogAPIError(ctx, "", store.StoreID, orderNumber, map[string]interface{}{
			"operation": "confirmOrder",
			"error":     err.Error(),
		}); logErr != nil {
			log.Error().Err(logErr).Str("order", orderNumber).Msg("Failed to log confirm error")
		}
		return
	}

	result.Confirmed++
	s.recordConfirmed(ctx, store.StoreID, orderNumber)
}

// recordConfirmed writes the confirmation audit event. A duplicate
// token means another cycle already recorded it.
func (s *orderService) recordConfirmed(ctx context.Context, storeID, orderNumber string) {
	_, err := s.invSvc.CreateEvent(ctx, &invmodel.Event{
		StoreID:     storeID,
		EventType:   invmodel.EventOrderConfirmed,
		OrderNumber: orderNumber,
		DedupToken:  invmodel.DedupToken(orderNumber, platform.StatusConfirmed, storeID),
		Source:      invmodel.SourceAPI,
	})
	if err != nil && !errors.Is(err, invmodel.ErrDuplicateToken) {
		log.Error().Err(err).Str("order", orderNumber).Msg("Failed to record confirmation event")
	}
}

func (s *orderService) PollAllStores(ctx context.Context) ([]PollResult, error) {
	stores, err := s.storeRepo.ListActive(ctx, s.environment)
	if err != nil {
		return nil, err
	}

	var results []PollResult
	for _, store := range stores {
		res, err := s.PollStore(ctx, store.StoreID, time.Time{}, time.Time{})
		if err != nil {
			// one broken store must not block the rest
			log.Error().Err(err).Str("store_id", store.StoreID).Msg("Poll failed for store")
			continue
		}
		results = append(results, *res)
	}

	if _, err := s.ProcessRetryQueue(ctx); err != nil {
		log.Error().Err(err).Msg("Retry queue drain after polling failed")
	}
	return results, nil
}

func (s *orderService) ProcessRetryQueue(ctx context.Context) (*RetryResult, error) {
	now := utils.UTCNow()
	entries, err := s.retryRepo.ListDue(ctx, now, 100)
	if err != nil {
		return nil, err
	}

	result := &RetryResult{}
	clients := map[string]platform.API{}

	for _, entry := range entries {
		result.Processed++

		client, ok := clients[entry.StoreID]
		if !ok {
			store, err := s.storeRepo.GetByID(ctx, entry.StoreID)
			if err != nil {
				if errors.Is(err, storemodel.ErrStoreNotFound) {
					s.failRetry(ctx, entry, entry.RetryCount, "store not found", result)
					continue
				}
				return result, err
			}
			client, err = s.factory(store)
			if err != nil {
				s.failRetry(ctx, entry, entry.RetryCount, err.Error(), result)
				continue
			}
			clients[entry.StoreID] = client
		}

		confirmErr := client.ConfirmOrder(ctx, entry.OrderNumber)
		if confirmErr == nil {
			if err := s.retryRepo.Delete(ctx, entry.ID); err != nil {
				return result, err
			}
			s.recordConfirmed(ctx, entry.StoreID, entry.OrderNumber)
			result.Confirmed++
			continue
		}

		newCount := entry.RetryCount + 1
		if errors.Is(confirmErr, platform.ErrCredentialExpired) {
			s.failRetry(ctx, entry, newCount, confirmErr.Error(), result)
			continue
		}

		if newCount >= entry.MaxRetries {
			s.failRetry(ctx, entry, newCount, confirmErr.Error(), result)
			continue
		}
		next := now.Add(model.Backoff(newCount))
		if err := s.retryRepo.Reschedule(ctx, entry.ID, newCount, next, confirmErr.Error()); err != nil {
			return result, err
		}
		result.Rescheduled++
		if err := s.invSvc.LogAPIError(ctx, "", entry.StoreID, entry.OrderNumber, map[string]interface{}{
			"operation":  "confirmOrderRetry",
			"retryCount": newCount,
			"error":      confirmErr.Error(),
		}); err != nil {
			log.Error().Err(err).Str("order", entry.OrderNumber).Msg("Failed to log confirm retry failure")
		}
		log.Warn().
			Str("order", entry.OrderNumber).
			Int("retry_count", newCount).
			Time("next_attempt", next).
			Msg("Order confirmation rescheduled")
	}
	return result, nil
}

func (s *orderService) failRetry(ctx context.Context, entry model.ConfirmRetry, retryCount int, reason string, result *RetryResult) {
	if err := s.retryRepo.MarkFailed(ctx, entry.ID, retryCount, reason); err != nil {
		log.Error().Err(err).Int64("retry_id", entry.ID).Msg("Failed to mark retry entry failed")
		return
	}
	result.Failed++

	if err := s.invSvc.LogAPIError(ctx, "", entry.StoreID, entry.OrderNumber, map[string]interface{}{
		"operation":  "confirmOrder",
		"retryCount": retryCount,
		"error":      reason,
	}); err != nil {
		log.Error().Err(err).Str("order", entry.OrderNumber).Msg("Failed to log terminal confirm failure")
	}
	log.Error().Str("order", entry.OrderNumber).Str("store_id", entry.StoreID).Str("reason", reason).Msg("Order confirmation permanently failed")
}

func (s *orderService) ListRetries(ctx context.Context, status string, limit, offset int) ([]model.ConfirmRetry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.retryRepo.ListByStatus(ctx, status, limit, offset)
}

// rawItemSku picks the external SKU identifier for a line item, in
// the exact form the platform sent it. The merchant-defined SKU wins
// over the listing item number.
func rawItemSku(item platform.OrderItem) string {
	if item.SkuID != "" {
		return item.SkuID
	}
	if item.ItemNumber != "" {
		return item.ItemNumber
	}
	return item.ManageNumber
}
