package repository

import (
	"context"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// RecordStore is the keyed ledger record store. Implementations must make the
// version-conditioned write atomic: between the version check and the write
// there is no window for an undetected overwrite.
type RecordStore interface {
	// Get retrieves the record for a composite key.
	// Returns models.ErrRecordNotFound when the key is absent.
	Get(ctx context.Context, key models.InventoryKey) (*models.InventoryRecord, error)

	// Create inserts a brand-new record (version 1).
	// Returns models.ErrRecordExists when a concurrent create won the race.
	Create(ctx context.Context, record *models.InventoryRecord) error

	// UpdateCAS writes the record conditioned on the stored version still
	// equalling expectedVersion. Returns models.ErrOptimisticLock when
	// another writer moved the version first.
	UpdateCAS(ctx context.Context, record *models.InventoryRecord, expectedVersion int64) error

	// ListBelowMinimum returns records whose available quantity is at or
	// below their configured minimum stock.
	ListBelowMinimum(ctx context.Context) ([]models.InventoryRecord, error)
}

// MovementJournal is the append-only audit log of accepted mutations.
type MovementJournal interface {
	Append(ctx context.Context, entry models.MovementEntry) error
	ListByKey(ctx context.Context, key models.InventoryKey, limit int64) ([]models.MovementEntry, error)
}

// SnapshotCache is a best-effort read cache of current records. Errors from a
// cache are advisory; callers log and fall through to the store.
type SnapshotCache interface {
	Put(ctx context.Context, record *models.InventoryRecord) error
	// Get returns models.ErrRecordNotFound on a cache miss.
	Get(ctx context.Context, id string) (*models.InventoryRecord, error)
}
