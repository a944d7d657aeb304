package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"stocksync-backend/internal/shared"
)

// Client enqueues background tasks onto Redis.
type Client struct {
	client *asynq.Client
}

func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", taskType, err)
		}
	}
	if _, err := c.client.Enqueue(asynq.NewTask(taskType, data), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

func (c *Client) EnqueuePollAllStores() error {
	return c.enqueue(shared.TypePollAllStores, nil, asynq.Queue(shared.QueueOrders))
}

func (c *Client) EnqueuePollStore(storeID, startTime, endTime string) error {
	return c.enqueue(shared.TypePollStore, shared.PollStorePayload{
		StoreID:   storeID,
		StartTime: startTime,
		EndTime:   endTime,
	}, asynq.Queue(shared.QueueOrders))
}

func (c *Client) EnqueueProcessRetryQueue() error {
	return c.enqueue(shared.TypeProcessRetryQueue, nil, asynq.Queue(shared.QueueOrders))
}

func (c *Client) EnqueuePushInventory(storeID string) error {
	return c.enqueue(shared.TypePushInventory, shared.PushInventoryPayload{StoreID: storeID}, asynq.Queue(shared.QueueSync))
}

func (c *Client) EnqueueSyncStoreSKUs(storeID string) error {
	return c.enqueue(shared.TypeSyncStoreSKUs, shared.SyncStoreSKUsPayload{StoreID: storeID}, asynq.Queue(shared.QueueSync))
}
