package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/domain/models"
	"github.com/mamadbah2/stocklive/internal/repository"
)

// maxRetries bounds the conditional-write retry loop. The first attempt is
// free; only lock conflicts consume the budget.
const maxRetries = 3

const defaultBaseDelay = 50 * time.Millisecond

// Dispatcher receives events after a committed mutation. Dispatch must not
// block: the handoff is fire-and-forget and delivery failures never reach the
// mutation caller.
type Dispatcher interface {
	Dispatch(event models.Event)
}

// AdjustRequest describes one stock mutation.
type AdjustRequest struct {
	Key             models.InventoryKey
	Quantity        int64
	MovementType    models.MovementType
	ExpectedVersion int64
	Source          models.Source
	Location        models.Location
	Reason          string
	Notes           string
	PerformedBy     string
}

// AdjustResult is the outcome of an accepted mutation.
type AdjustResult struct {
	Record           *models.InventoryRecord
	Movement         *models.MovementEntry
	PreviousQuantity int64
	NewQuantity      int64
	Created          bool
}

// Service is the concurrency controller and business-rule engine around the
// record store. No lock is held across the read/compute/write span;
// correctness comes from the version-conditioned write.
type Service struct {
	store      repository.RecordStore
	journal    repository.MovementJournal
	cache      repository.SnapshotCache
	dispatcher Dispatcher
	baseDelay  time.Duration
	logger     *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithSnapshotCache attaches a best-effort read cache.
func WithSnapshotCache(cache repository.SnapshotCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithDispatcher attaches the post-commit event dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithBaseDelay overrides the first retry backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// NewService wires a ledger service instance.
func NewService(store repository.RecordStore, journal repository.MovementJournal, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:     store,
		journal:   journal,
		baseDelay: defaultBaseDelay,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adjust applies one mutation to the record identified by req.Key.
//
// Each attempt re-reads the record, checks the caller's expected version,
// computes the candidate quantity under the source policy and writes it
// conditioned on the version read in this attempt. A lost conditional write
// backs off and tries again; a stale caller version fails immediately and is
// never retried here, because only the caller can refresh its view.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := s.attempt(ctx, req)
		if errors.Is(err, models.ErrOptimisticLock) || errors.Is(err, models.ErrRecordExists) {
			s.logger.Debug("conditional write lost race",
				zap.String("inventoryId", req.Key.ID()),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		s.afterCommit(ctx, result)
		return result, nil
	}

	s.logger.Warn("optimistic lock retries exhausted", zap.String("inventoryId", req.Key.ID()))
	return nil, models.ErrRetriesExhausted
}

func (s *Service) validate(req *AdjustRequest) error {
	if req.Key.ProductID == "" || req.Key.WarehouseID == "" {
		return &models.ValidationError{Message: "productId and warehouseId are required"}
	}
	if !req.MovementType.Valid() {
		return models.ErrInvalidMovementType
	}
	if req.ExpectedVersion < 1 {
		return &models.ValidationError{Message: "version must be a positive integer"}
	}
	if req.Source == "" {
		req.Source = models.SourceWarehouse
	}
	if !req.Source.Valid() {
		return &models.ValidationError{Message: fmt.Sprintf("unknown source %q", req.Source)}
	}
	return nil
}

// attempt runs one full read/compute/conditional-write pass.
func (s *Service) attempt(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	record, err := s.store.Get(ctx, req.Key)
	if errors.Is(err, models.ErrRecordNotFound) {
		return s.create(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("read inventory record: %w", err)
	}

	if req.ExpectedVersion != record.Version {
		return nil, &models.VersionMismatchError{Current: record.Version, Provided: req.ExpectedVersion}
	}

	previous := record.QuantityAvailable
	next, err := s.candidateQuantity(previous, req)
	if err != nil {
		return nil, err
	}

	updated := *record
	updated.QuantityAvailable = next
	if !req.Location.Empty() {
		updated.Location = req.Location
	}
	updated.Version = record.Version + 1
	updated.LastModifiedAt = time.Now().UTC()

	if err := s.store.UpdateCAS(ctx, &updated, record.Version); err != nil {
		return nil, err
	}

	movement, err := s.appendMovement(ctx, &updated, req, next-previous)
	if err != nil {
		return nil, err
	}

	return &AdjustResult{
		Record:           &updated,
		Movement:         movement,
		PreviousQuantity: previous,
		NewQuantity:      next,
	}, nil
}

// create handles the lazy first mutation of a key. Only expectedVersion 1 may
// create; the conditional insert resolves the same-key create race.
func (s *Service) create(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	if req.ExpectedVersion != 1 {
		return nil, &models.VersionMismatchError{
			Current:  1,
			Provided: req.ExpectedVersion,
			Reason:   "inventory record does not exist",
		}
	}

	initial := req.Quantity
	if req.MovementType != models.MovementAdjustment {
		initial = abs(req.Quantity)
	}

	record := &models.InventoryRecord{
		ID:                req.Key.ID(),
		Key:               req.Key,
		QuantityAvailable: initial,
		Location:          req.Location,
		Version:           1,
		LastModifiedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}

	movement, err := s.appendMovement(ctx, record, req, initial)
	if err != nil {
		return nil, err
	}

	return &AdjustResult{
		Record:           record,
		Movement:         movement,
		PreviousQuantity: 0,
		NewQuantity:      initial,
		Created:          true,
	}, nil
}

// candidateQuantity applies the source-dependent business rules.
func (s *Service) candidateQuantity(previous int64, req AdjustRequest) (int64, error) {
	switch req.MovementType {
	case models.MovementIn:
		return previous + abs(req.Quantity), nil
	case models.MovementOut:
		amount := abs(req.Quantity)
		// POS checkouts may oversell: first-pay-first-served, the count
		// goes negative and the floor is not enforced.
		if req.Source == models.SourceWarehouse && previous < amount {
			return 0, &models.InsufficientStockError{Available: previous, Requested: amount}
		}
		return previous - amount, nil
	case models.MovementAdjustment:
		return req.Quantity, nil
	default:
		return 0, models.ErrInvalidMovementType
	}
}

func (s *Service) appendMovement(ctx context.Context, record *models.InventoryRecord, req AdjustRequest, delta int64) (*models.MovementEntry, error) {
	quantity := delta
	if req.MovementType == models.MovementAdjustment {
		quantity = req.Quantity
	}

	entry := models.MovementEntry{
		ID:          uuid.New().String(),
		InventoryID: record.ID,
		ProductID:   record.Key.ProductID,
		WarehouseID: record.Key.WarehouseID,
		Type:        req.MovementType,
		Quantity:    quantity,
		Source:      req.Source,
		Reason:      req.Reason,
		Notes:       req.Notes,
		PerformedBy: req.PerformedBy,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.journal.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append movement entry: %w", err)
	}
	return &entry, nil
}

// afterCommit runs the best-effort post-commit side effects: snapshot cache
// refresh and event dispatch. Neither participates in the atomic unit and
// neither failure reaches the caller.
func (s *Service) afterCommit(ctx context.Context, result *AdjustResult) {
	if s.cache != nil {
		if err := s.cache.Put(ctx, result.Record); err != nil {
			s.logger.Warn("snapshot cache refresh failed",
				zap.String("inventoryId", result.Record.ID), zap.Error(err))
		}
	}

	if s.dispatcher == nil {
		return
	}

	for _, event := range s.events(result) {
		s.dispatcher.Dispatch(event)
	}
}

// events derives the notifications for one accepted mutation.
func (s *Service) events(result *AdjustResult) []models.Event {
	rec := result.Record
	base := models.Event{
		Kind:              models.EventInventoryUpdated,
		InventoryID:       rec.ID,
		ProductID:         rec.Key.ProductID,
		WarehouseID:       rec.Key.WarehouseID,
		VariantID:         rec.Key.VariantID,
		UomID:             rec.Key.UomID,
		QuantityAvailable: models.Int64Ptr(rec.QuantityAvailable),
		PreviousQuantity:  models.Int64Ptr(result.PreviousQuantity),
		ChangeAmount:      models.Int64Ptr(result.NewQuantity - result.PreviousQuantity),
		Version:           rec.Version,
		MovementType:      string(result.Movement.Type),
		Timestamp:         time.Now().UTC(),
	}

	events := []models.Event{base}

	switch {
	case rec.QuantityAvailable <= 0:
		outOfStock := base
		outOfStock.Kind = models.EventOutOfStock
		events = append(events, outOfStock)
	case rec.MinimumStock != nil && rec.QuantityAvailable <= *rec.MinimumStock:
		lowStock := base
		lowStock.Kind = models.EventLowStock
		lowStock.MinimumStock = rec.MinimumStock
		events = append(events, lowStock)
	}

	return events
}

// GetRecord reads the current record for a key, serving from the snapshot
// cache when warm.
func (s *Service) GetRecord(ctx context.Context, key models.InventoryKey) (*models.InventoryRecord, error) {
	if s.cache != nil {
		rec, err := s.cache.Get(ctx, key.ID())
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, models.ErrRecordNotFound) {
			s.logger.Warn("snapshot cache read failed", zap.String("inventoryId", key.ID()), zap.Error(err))
		}
	}
	return s.store.Get(ctx, key)
}

// Movements returns recent journal entries for a key, newest first.
func (s *Service) Movements(ctx context.Context, key models.InventoryKey, limit int64) ([]models.MovementEntry, error) {
	return s.journal.ListByKey(ctx, key, limit)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
