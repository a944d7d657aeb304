package main

import (
	"log"

	"stocksync-backend/internal/config"
	"stocksync-backend/pkg/container"
	"stocksync-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("[API] Failed to build container: %v", err)
	}
	defer c.Close()

	router := setupRouter(c)

	log.Printf("[API] Starting server on port %s (env=%s)", cfg.App.Port, cfg.App.Environment)
	if err := runServer(router, cfg.App.Port); err != nil {
		log.Fatalf("[API] Server error: %v", err)
	}
}
