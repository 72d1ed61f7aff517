package broadcast

import (
	"sort"
	"testing"

	"pgregory.net/rapid"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestChannelsFor(t *testing.T) {
	cases := []struct {
		name  string
		event models.Event
		want  []string
	}{
		{
			name: "full identity",
			event: models.Event{
				Kind: models.EventInventoryUpdated,
				ProductID: "P1", WarehouseID: "W1", VariantID: "V1",
			},
			want: []string{
				"product:P1", "product:P1:warehouse:W1", "variant:V1", "warehouse:W1",
			},
		},
		{
			name:  "product only",
			event: models.Event{Kind: models.EventInventoryUpdated, ProductID: "P1"},
			want:  []string{"product:P1"},
		},
		{
			name:  "warehouse only",
			event: models.Event{Kind: models.EventLowStock, WarehouseID: "W2"},
			want:  []string{"warehouse:W2"},
		},
		{
			name:  "uom adds its channel",
			event: models.Event{Kind: models.EventInventoryUpdated, ProductID: "P1", UomID: "U1"},
			want:  []string{"product:P1", "uom:U1"},
		},
		{
			name:  "transfer family includes transfer channel",
			event: models.Event{Kind: models.EventTransferInitiated, WarehouseID: "W1", TransferID: "T9"},
			want:  []string{"transfer:T9", "warehouse:W1"},
		},
		{
			name:  "transfer id ignored outside transfer family",
			event: models.Event{Kind: models.EventInventoryUpdated, WarehouseID: "W1", TransferID: "T9"},
			want:  []string{"warehouse:W1"},
		},
		{
			name:  "empty event",
			event: models.Event{Kind: models.EventInventoryUpdated},
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sorted(ChannelsFor(tc.event))
			want := sorted(tc.want)
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("got %v, want %v", got, want)
				}
			}
		})
	}
}

// The rules are additive: every present identifier contributes its channel,
// and the global channel is never produced.
func TestChannelsForProperty(t *testing.T) {
	id := rapid.StringMatching(`[A-Za-z0-9-]{1,8}`)
	maybe := func(rt *rapid.T, label string) string {
		if rapid.Bool().Draw(rt, label+"_present") {
			return id.Draw(rt, label)
		}
		return ""
	}

	rapid.Check(t, func(rt *rapid.T) {
		event := models.Event{
			Kind:        models.EventInventoryUpdated,
			ProductID:   maybe(rt, "product"),
			WarehouseID: maybe(rt, "warehouse"),
			VariantID:   maybe(rt, "variant"),
			UomID:       maybe(rt, "uom"),
		}

		got := make(map[string]bool)
		for _, c := range ChannelsFor(event) {
			got[c] = true
		}

		if got[GlobalChannel] {
			rt.Error("router must never produce the global channel")
		}
		if (event.VariantID != "") != got["variant:"+event.VariantID] {
			rt.Error("variant rule violated")
		}
		if (event.ProductID != "") != got["product:"+event.ProductID] {
			rt.Error("product rule violated")
		}
		if (event.WarehouseID != "") != got["warehouse:"+event.WarehouseID] {
			rt.Error("warehouse rule violated")
		}
		both := event.ProductID != "" && event.WarehouseID != ""
		if both != got["product:"+event.ProductID+":warehouse:"+event.WarehouseID] {
			rt.Error("product+warehouse rule violated")
		}
	})
}

func TestChannelFromParams(t *testing.T) {
	cases := []struct {
		name   string
		params models.ChannelParams
		want   string
	}{
		{"variant wins", models.ChannelParams{ProductID: "P1", WarehouseID: "W1", VariantID: "V1"}, "variant:V1"},
		{"product and warehouse", models.ChannelParams{ProductID: "P1", WarehouseID: "W1"}, "product:P1:warehouse:W1"},
		{"product only", models.ChannelParams{ProductID: "P1"}, "product:P1"},
		{"warehouse only", models.ChannelParams{WarehouseID: "W1"}, "warehouse:W1"},
		{"empty", models.ChannelParams{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ChannelFromParams(tc.params); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
