package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// Store is an in-process ledger record store over a mutex-guarded map. The
// lock spans each conditional write, so the version check and the write are
// one atomic step, same contract as the database-backed store.
type Store struct {
	mu      sync.RWMutex
	records map[string]models.InventoryRecord
}

// NewStore creates an empty in-memory record store.
func NewStore() *Store {
	return &Store{records: make(map[string]models.InventoryRecord)}
}

// Get retrieves a copy of the record for the composite key.
func (s *Store) Get(ctx context.Context, key models.InventoryKey) (*models.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key.ID()]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	out := rec
	return &out, nil
}

// Create inserts a brand-new record, failing if the key is already present.
func (s *Store) Create(ctx context.Context, record *models.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return models.ErrRecordExists
	}
	s.records[record.ID] = *record
	return nil
}

// UpdateCAS overwrites the record only if the stored version still equals
// expectedVersion.
func (s *Store) UpdateCAS(ctx context.Context, record *models.InventoryRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[record.ID]
	if !ok || current.Version != expectedVersion {
		return models.ErrOptimisticLock
	}
	s.records[record.ID] = *record
	return nil
}

// ListBelowMinimum returns records at or below their minimum stock, ordered
// by key for deterministic sweeps.
func (s *Store) ListBelowMinimum(ctx context.Context) ([]models.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.InventoryRecord
	for _, rec := range s.records {
		if rec.MinimumStock != nil && rec.QuantityAvailable <= *rec.MinimumStock {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
