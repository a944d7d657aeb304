package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType classifies an inventory event. Audit-only types exist in
// the log but never move the snapshot.
type EventType string

const (
	EventOrderReceived  EventType = "ORDER_RECEIVED"
	EventOrderCancelled EventType = "ORDER_CANCELLED"
	EventOrderConfirmed EventType = "ORDER_CONFIRMED"
	EventOrderShipped   EventType = "ORDER_SHIPPED"
	EventStockIn        EventType = "STOCK_IN"
	EventAdjustment     EventType = "ADJUSTMENT"
	EventInitReset      EventType = "INIT_RESET"
	EventAPIError       EventType = "API_ERROR"
	EventSyncFailure    EventType = "SYNC_FAILURE"
)

var eventTypes = map[EventType]bool{
	EventOrderReceived:  true,
	EventOrderCancelled: true,
	EventOrderConfirmed: true,
	EventOrderShipped:   true,
	EventStockIn:        true,
	EventAdjustment:     true,
	EventInitReset:      true,
	EventAPIError:       true,
	EventSyncFailure:    true,
}

func (t EventType) Valid() bool {
	return eventTypes[t]
}

// StockAltering reports whether the event moves the snapshot.
// Confirmations and failure audit records never do.
func (t EventType) StockAltering() bool {
	switch t {
	case EventOrderConfirmed, EventAPIError, EventSyncFailure:
		return false
	}
	return t.Valid()
}

// Absolute reports whether the event sets the snapshot to its quantity
// instead of adding a delta.
func (t EventType) Absolute() bool {
	return t == EventInitReset
}

func (t *EventType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	et := EventType(s)
	if !et.Valid() {
		return fmt.Errorf("unknown event type %q", s)
	}
	*t = et
	return nil
}

// Event sources. Platform-driven writes, including order polling and
// confirm retries, are recorded as api.
const (
	SourceAPI    = "api"
	SourceManual = "manual"
	SourceImport = "import"
	SourceSystem = "system"
)

// Event is one append-only entry in the inventory log. Quantity is a
// signed delta, except for absolute event types where it is the new
// level.
type Event struct {
	ID          int64                  `json:"id"`
	SkuID       string                 `json:"skuId"`
	StoreID     string                 `json:"storeId,omitempty"`
	EventType   EventType              `json:"eventType"`
	Quantity    int                    `json:"quantity"`
	OrderNumber string                 `json:"orderNumber,omitempty"`
	DedupToken  string                 `json:"dedupToken,omitempty"`
	Source      string                 `json:"source"`
	Operator    string                 `json:"operator,omitempty"`
	ExtraData   map[string]interface{} `json:"extraData,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// DedupToken builds the idempotency token for an order-driven event.
func DedupToken(orderNumber, status, storeID string) string {
	return fmt.Sprintf("%s|%s|%s", orderNumber, status, storeID)
}

// ItemDedupToken scopes the order token to one line item, so each
// item of a multi-line order gets its own event.
func ItemDedupToken(orderNumber, status, storeID, skuID string) string {
	return DedupToken(orderNumber, status, storeID) + "|" + skuID
}

// Snapshot is the current stock level of one SKU, derived from the
// event log.
type Snapshot struct {
	SkuID             string    `json:"skuId"`
	AvailableQuantity int       `json:"availableQuantity"`
	LastEventID       int64     `json:"lastEventId"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
