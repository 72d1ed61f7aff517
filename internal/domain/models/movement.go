package models

import "time"

// MovementType enumerates the supported stock mutation categories.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether the movement type is one of the known categories.
func (m MovementType) Valid() bool {
	switch m {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// Source identifies which business-rule policy governs a stock decrement.
// Warehouse decrements respect the stock floor; point-of-sale decrements may
// drive the quantity negative (first-pay-first-served oversell tolerance).
type Source string

const (
	SourceWarehouse Source = "warehouse"
	SourcePOS       Source = "pos"
)

// Valid reports whether the source is one of the known policies.
func (s Source) Valid() bool {
	return s == SourceWarehouse || s == SourcePOS
}

// MovementEntry is one immutable line of the audit journal. Exactly one entry
// is appended per accepted mutation; entries are never updated or deleted.
type MovementEntry struct {
	ID          string       `json:"id" bson:"_id"`
	InventoryID string       `json:"inventoryId" bson:"inventoryId"`
	ProductID   string       `json:"productId" bson:"productId"`
	WarehouseID string       `json:"warehouseId" bson:"warehouseId"`
	Type        MovementType `json:"movementType" bson:"movementType"`
	Quantity    int64        `json:"quantity" bson:"quantity"`
	Source      Source       `json:"source" bson:"source"`
	Reason      string       `json:"reason,omitempty" bson:"reason,omitempty"`
	Notes       string       `json:"notes,omitempty" bson:"notes,omitempty"`
	PerformedBy string       `json:"performedBy,omitempty" bson:"performedBy,omitempty"`
	Timestamp   time.Time    `json:"timestamp" bson:"timestamp"`
}
