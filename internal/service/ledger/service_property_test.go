package ledger

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// For any serial sequence of accepted adjustments on one key the final
// quantity equals the fold of all deltas (adjustment overwrites) and the
// version equals the count of accepted mutations.
func TestAdjustSerialFoldProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc, _, _ := newTestService()
		ctx := context.Background()
		key := testKey()

		initial := rapid.Int64Range(0, 1000).Draw(rt, "initial")
		if _, err := svc.Adjust(ctx, AdjustRequest{
			Key: key, Quantity: initial, MovementType: models.MovementIn, ExpectedVersion: 1,
		}); err != nil {
			rt.Fatalf("create: %v", err)
		}

		expected := initial
		accepted := int64(1)

		steps := rapid.IntRange(0, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			movementType := rapid.SampledFrom([]models.MovementType{
				models.MovementIn, models.MovementOut, models.MovementAdjustment,
			}).Draw(rt, "movementType")
			quantity := rapid.Int64Range(-500, 500).Draw(rt, "quantity")
			source := rapid.SampledFrom([]models.Source{
				models.SourceWarehouse, models.SourcePOS,
			}).Draw(rt, "source")

			_, err := svc.Adjust(ctx, AdjustRequest{
				Key:             key,
				Quantity:        quantity,
				MovementType:    movementType,
				ExpectedVersion: accepted,
				Source:          source,
			})

			amount := quantity
			if amount < 0 {
				amount = -amount
			}

			if movementType == models.MovementOut && source == models.SourceWarehouse && expected < amount {
				var stockErr *models.InsufficientStockError
				if !errors.As(err, &stockErr) {
					rt.Fatalf("step %d: got %v, want InsufficientStockError", i, err)
				}
				continue
			}
			if err != nil {
				rt.Fatalf("step %d: unexpected error: %v", i, err)
			}

			switch movementType {
			case models.MovementIn:
				expected += amount
			case models.MovementOut:
				expected -= amount
			case models.MovementAdjustment:
				expected = quantity
			}
			accepted++
		}

		rec, err := svc.GetRecord(ctx, key)
		if err != nil {
			rt.Fatalf("read back: %v", err)
		}
		if rec.QuantityAvailable != expected {
			rt.Errorf("quantity: got %d, want fold %d", rec.QuantityAvailable, expected)
		}
		if rec.Version != accepted {
			rt.Errorf("version: got %d, want %d accepted mutations", rec.Version, accepted)
		}
	})
}
