package models

import (
	"strings"
	"time"
)

// InventoryKey is the composite identity of a stock record. Identifiers are
// opaque strings validated by the upstream CRUD services; a dangling
// productId is tolerated here.
type InventoryKey struct {
	ProductID   string `json:"productId" bson:"productId"`
	WarehouseID string `json:"warehouseId" bson:"warehouseId"`
	VariantID   string `json:"variantId,omitempty" bson:"variantId,omitempty"`
	UomID       string `json:"uomId,omitempty" bson:"uomId,omitempty"`
}

// ID renders the canonical storage key for the composite identity.
func (k InventoryKey) ID() string {
	return strings.Join([]string{k.WarehouseID, k.ProductID, k.VariantID, k.UomID}, "|")
}

// Location holds the optional physical placement of a record inside a warehouse.
type Location struct {
	Rack  string `json:"rack,omitempty" bson:"rack,omitempty"`
	Bin   string `json:"bin,omitempty" bson:"bin,omitempty"`
	Zone  string `json:"zone,omitempty" bson:"zone,omitempty"`
	Aisle string `json:"aisle,omitempty" bson:"aisle,omitempty"`
}

// Empty reports whether no location hint was provided.
func (l Location) Empty() bool {
	return l.Rack == "" && l.Bin == "" && l.Zone == "" && l.Aisle == ""
}

// InventoryRecord is the per-location stock count. Version starts at 1 and
// increases by exactly 1 on every accepted mutation; it is the comparator for
// the conditional write.
type InventoryRecord struct {
	ID                string       `json:"id" bson:"_id"`
	Key               InventoryKey `json:"key" bson:"key"`
	QuantityAvailable int64        `json:"quantityAvailable" bson:"quantityAvailable"`
	QuantityReserved  int64        `json:"quantityReserved" bson:"quantityReserved"`
	QuantityInTransit int64        `json:"quantityInTransit" bson:"quantityInTransit"`
	MinimumStock      *int64       `json:"minimumStock,omitempty" bson:"minimumStock,omitempty"`
	Location          Location     `json:"location" bson:"location"`
	Version           int64        `json:"version" bson:"version"`
	LastModifiedAt    time.Time    `json:"lastModifiedAt" bson:"lastModifiedAt"`
}
