package main

import (
	"github.com/hibiken/asynq"

	orderjob "stocksync-backend/internal/domains/order/job"
	syncjob "stocksync-backend/internal/domains/sync/job"
	"stocksync-backend/internal/shared"
	"stocksync-backend/pkg/container"
)

func registerHandlers(mux *asynq.ServeMux, c *container.Container) {
	pollJob := orderjob.NewPollOrdersJob(c.OrderService)
	pushJob := syncjob.NewPushInventoryJob(c.SyncService)

	mux.HandleFunc(shared.TypePollAllStores, pollJob.HandlePollAllStores)
	mux.HandleFunc(shared.TypePollStore, pollJob.HandlePollStore)
	mux.HandleFunc(shared.TypeProcessRetryQueue, pollJob.HandleProcessRetryQueue)
	mux.HandleFunc(shared.TypePushInventory, pushJob.HandlePushInventory)
	mux.HandleFunc(shared.TypeSyncStoreSKUs, pushJob.HandleSyncStoreSKUs)
}
