package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateToken means an event with the same dedup token was
	// already recorded. Callers treat this as an idempotent no-op.
	ErrDuplicateToken = errors.New("duplicate dedup token")

	ErrInvalidEventType = errors.New("invalid event type")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// OversellError is returned when an event would drive a SKU negative
// and the SKU does not allow overselling. The event is not recorded.
type OversellError struct {
	SkuID     string
	Current   int
	Requested int
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("oversell rejected for sku %s: current=%d requested=%d", e.SkuID, e.Current, e.Requested)
}
