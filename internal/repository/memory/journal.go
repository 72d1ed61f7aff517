package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// Journal is an in-process append-only movement log.
type Journal struct {
	mu      sync.RWMutex
	entries []models.MovementEntry
}

// NewJournal creates an empty in-memory movement journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append records one accepted mutation.
func (j *Journal) Append(ctx context.Context, entry models.MovementEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

// ListByKey returns the most recent entries for a composite key, newest first.
func (j *Journal) ListByKey(ctx context.Context, key models.InventoryKey, limit int64) ([]models.MovementEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	id := key.ID()
	var out []models.MovementEntry
	for i := len(j.entries) - 1; i >= 0; i-- {
		if j.entries[i].InventoryID != id {
			continue
		}
		out = append(out, j.entries[i])
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}
