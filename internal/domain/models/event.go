package models

import (
	"strings"
	"time"
)

// EventKind tags the variant of a live inventory event.
type EventKind string

const (
	EventInventoryUpdated  EventKind = "inventory.updated"
	EventLowStock          EventKind = "inventory.low_stock"
	EventOutOfStock        EventKind = "inventory.out_of_stock"
	EventTransferInitiated EventKind = "transfer.initiated"
	EventTransferCompleted EventKind = "transfer.completed"
	EventBatchExpiringSoon EventKind = "batch.expiring_soon"
)

// IsTransfer reports whether the kind belongs to the transfer.* family.
func (k EventKind) IsTransfer() bool {
	return strings.HasPrefix(string(k), "transfer.")
}

// Event is the transient notification fanned out to live subscribers after a
// successful mutation. It is never persisted. All identifying fields are
// optional; the channel router inspects whichever are present.
type Event struct {
	Kind              EventKind `json:"type"`
	InventoryID       string    `json:"inventoryId,omitempty"`
	ProductID         string    `json:"productId,omitempty"`
	WarehouseID       string    `json:"warehouseId,omitempty"`
	VariantID         string    `json:"variantId,omitempty"`
	UomID             string    `json:"uomId,omitempty"`
	TransferID        string    `json:"transferId,omitempty"`
	QuantityAvailable *int64    `json:"quantityAvailable,omitempty"`
	PreviousQuantity  *int64    `json:"previousQuantity,omitempty"`
	ChangeAmount      *int64    `json:"changeAmount,omitempty"`
	Version           int64     `json:"version,omitempty"`
	MovementType      string    `json:"movementType,omitempty"`
	MinimumStock      *int64    `json:"minimumStock,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Int64Ptr is a small helper for optional numeric event fields.
func Int64Ptr(v int64) *int64 {
	return &v
}
