package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksync-backend/internal/infrastructure/cache"
	"stocksync-backend/internal/shared/middleware"
	"stocksync-backend/pkg/container"
)

func setupRouter(c *container.Container) *gin.Engine {
	if c.Config.App.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	router.GET("/health", func(ctx *gin.Context) {
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "component": "postgres"})
			return
		}
		if err := cache.HealthCheck(ctx.Request.Context(), c.Redis); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "component": "redis"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// reads are open, mutations require an operator token
	v1.GET("/skus", c.SKUHandler.List)
	v1.GET("/skus/:skuId", c.SKUHandler.Get)
	v1.GET("/inventory/:skuId/snapshot", c.InventoryHandler.GetSnapshot)
	v1.GET("/inventory/:skuId/events", c.InventoryHandler.GetEvents)
	v1.GET("/stores/:storeId", c.StoreHandler.Get)
	v1.GET("/stores/:storeId/skus", c.StoreHandler.ListSKUs)
	v1.GET("/orders/retries", c.OrderHandler.ListRetries)

	admin := v1.Group("")
	if secret := c.Config.App.JWTSecret; secret != "" {
		admin.Use(middleware.AuthMiddleware(secret))
	}

	admin.POST("/skus", c.SKUHandler.Create)
	admin.PATCH("/skus/:skuId/status", c.SKUHandler.UpdateStatus)
	admin.PUT("/skus/:skuId/aliases", c.SKUHandler.UpdateAliases)

	admin.POST("/inventory/:skuId/events", c.InventoryHandler.CreateEvent)
	admin.POST("/inventory/:skuId/reset", c.InventoryHandler.Reset)
	admin.POST("/inventory/:skuId/rebuild", c.InventoryHandler.Rebuild)

	admin.POST("/stores", c.StoreHandler.Create)
	admin.PUT("/stores/:storeId", c.StoreHandler.Update)
	admin.POST("/stores/:storeId/test-auth", c.StoreHandler.TestAuth)
	admin.POST("/stores/:storeId/poll", c.StoreHandler.Poll)
	admin.POST("/stores/:storeId/push", c.StoreHandler.Push)
	admin.POST("/stores/:storeId/sync-skus", c.StoreHandler.SyncSKUs)

	admin.POST("/orders/poll", c.OrderHandler.PollAll)
	admin.POST("/orders/retries/process", c.OrderHandler.ProcessRetries)

	return router
}
