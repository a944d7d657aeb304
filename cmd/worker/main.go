package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"stocksync-backend/internal/config"
	"stocksync-backend/pkg/container"
	"stocksync-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Worker] Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("[Worker] Failed to build container: %v", err)
	}
	defer c.Close()

	srv, mux, err := newWorkerServer(cfg)
	if err != nil {
		log.Fatalf("[Worker] Failed to build server: %v", err)
	}
	registerHandlers(mux, c)

	scheduler, err := newScheduler(cfg)
	if err != nil {
		log.Fatalf("[Worker] Failed to build scheduler: %v", err)
	}

	go func() {
		log.Printf("[Worker] Starting scheduler")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[Worker] Scheduler error: %v", err)
		}
	}()

	go func() {
		log.Printf("[Worker] Starting task server (concurrency=%d)", cfg.Job.Concurrency)
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] Task server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("[Worker] Received %s, shutting down", sig)

	scheduler.Shutdown()
	srv.Shutdown()
}
