package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/domain/models"
	"github.com/mamadbah2/stocklive/internal/repository"
	"github.com/mamadbah2/stocklive/internal/service/ledger"
)

// Scheduler manages scheduled tasks. Its one job is the low-stock sweep:
// scan records sitting at or below their minimum stock and emit the matching
// events, so items whose threshold was crossed outside the write path (e.g.
// after a collaborator changed the minimum) still get flagged.
type Scheduler struct {
	cron       *cron.Cron
	store      repository.RecordStore
	dispatcher ledger.Dispatcher
	schedule   string
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(schedule string, store repository.RecordStore, dispatcher ledger.Dispatcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:       cron.New(),
		store:      store,
		dispatcher: dispatcher,
		schedule:   schedule,
		logger:     logger,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.sweepLowStock); err != nil {
		s.logger.Error("failed to schedule low-stock sweep", zap.Error(err))
		return
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sweepLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := s.store.ListBelowMinimum(ctx)
	if err != nil {
		s.logger.Error("low-stock sweep failed", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	for _, rec := range records {
		event := models.Event{
			Kind:              models.EventLowStock,
			InventoryID:       rec.ID,
			ProductID:         rec.Key.ProductID,
			WarehouseID:       rec.Key.WarehouseID,
			VariantID:         rec.Key.VariantID,
			UomID:             rec.Key.UomID,
			QuantityAvailable: models.Int64Ptr(rec.QuantityAvailable),
			MinimumStock:      rec.MinimumStock,
			Version:           rec.Version,
			Timestamp:         now,
		}
		if rec.QuantityAvailable <= 0 {
			event.Kind = models.EventOutOfStock
		}
		s.dispatcher.Dispatch(event)
	}

	s.logger.Info("low-stock sweep completed", zap.Int("flagged", len(records)))
}
