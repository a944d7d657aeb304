package container

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"stocksync-backend/internal/config"
	invhandler "stocksync-backend/internal/domains/inventory/handler"
	invrepo "stocksync-backend/internal/domains/inventory/repository"
	invservice "stocksync-backend/internal/domains/inventory/service"
	orderhandler "stocksync-backend/internal/domains/order/handler"
	orderrepo "stocksync-backend/internal/domains/order/repository"
	orderservice "stocksync-backend/internal/domains/order/service"
	skuhandler "stocksync-backend/internal/domains/sku/handler"
	skurepo "stocksync-backend/internal/domains/sku/repository"
	storehandler "stocksync-backend/internal/domains/store/handler"
	storerepo "stocksync-backend/internal/domains/store/repository"
	syncservice "stocksync-backend/internal/domains/sync/service"
	"stocksync-backend/internal/infrastructure/cache"
	"stocksync-backend/internal/infrastructure/database"
	"stocksync-backend/internal/infrastructure/queue"
	"stocksync-backend/internal/platform"
)

// Container wires every layer of the service together.
type Container struct {
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *redis.Client
	Queue  *queue.Client

	SKURepo   skurepo.SKURepository
	StoreRepo storerepo.StoreRepository
	InvRepo   invrepo.InventoryRepository
	RetryRepo orderrepo.RetryRepository

	InventoryService invservice.InventoryService
	OrderService     orderservice.OrderService
	SyncService      syncservice.SyncService

	InventoryHandler *invhandler.InventoryHandler
	SKUHandler       *skuhandler.SKUHandler
	StoreHandler     *storehandler.StoreHandler
	OrderHandler     *orderhandler.OrderHandler
}

func New(cfg *config.Config) (*Container, error) {
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	queueClient, err := queue.NewClient(cfg.Redis.URL)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("queue: %w", err)
	}

	c := &Container{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Queue:  queueClient,
	}

	c.SKURepo = skurepo.NewSKURepository(db.Pool)
	c.StoreRepo = storerepo.NewStoreRepository(db.Pool)
	c.InvRepo = invrepo.NewInventoryRepository(db.Pool)
	c.RetryRepo = orderrepo.NewRetryRepository(db.Pool)

	factory := platform.NewFactory(cfg.Platform)

	c.InventoryService = invservice.NewInventoryService(db.Pool, c.InvRepo, c.SKURepo)
	c.OrderService = orderservice.NewOrderService(
		db.Pool, c.StoreRepo, c.SKURepo, c.InvRepo, c.InventoryService,
		c.RetryRepo, factory, cfg.Job.PollWindow, cfg.App.Environment,
	)
	c.SyncService = syncservice.NewSyncService(
		c.StoreRepo, c.SKURepo, c.InventoryService, factory,
		cfg.Job.PushFanout, cfg.App.Environment,
	)

	c.InventoryHandler = invhandler.NewInventoryHandler(c.InventoryService)
	c.SKUHandler = skuhandler.NewSKUHandler(c.SKURepo, c.InventoryService)
	c.StoreHandler = storehandler.NewStoreHandler(c.StoreRepo, c.SyncService, queueClient)
	c.OrderHandler = orderhandler.NewOrderHandler(c.OrderService, queueClient)

	return c, nil
}

func (c *Container) Close() {
	if c.Queue != nil {
		c.Queue.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
