package models

import "testing"

func TestParseClientMessage(t *testing.T) {
	cases := []struct {
		name  string
		input string
		check func(t *testing.T, msg ClientMessage)
	}{
		{
			name:  "subscribe with channel",
			input: `{"type":"subscribe","channel":"product:P1"}`,
			check: func(t *testing.T, msg ClientMessage) {
				sub, ok := msg.(SubscribeMessage)
				if !ok || sub.Channel != "product:P1" {
					t.Errorf("got %#v", msg)
				}
			},
		},
		{
			name:  "subscribe with legacy payload",
			input: `{"type":"subscribe","payload":{"productId":"P1","warehouseId":"W1"}}`,
			check: func(t *testing.T, msg ClientMessage) {
				sub, ok := msg.(SubscribeMessage)
				if !ok || sub.Params == nil || sub.Params.ProductID != "P1" {
					t.Errorf("got %#v", msg)
				}
			},
		},
		{
			name:  "unsubscribe",
			input: `{"type":"unsubscribe","channel":"global"}`,
			check: func(t *testing.T, msg ClientMessage) {
				unsub, ok := msg.(UnsubscribeMessage)
				if !ok || unsub.Channel != "global" {
					t.Errorf("got %#v", msg)
				}
			},
		},
		{
			name:  "ping",
			input: `{"type":"ping"}`,
			check: func(t *testing.T, msg ClientMessage) {
				if _, ok := msg.(PingMessage); !ok {
					t.Errorf("got %#v", msg)
				}
			},
		},
		{
			name:  "unknown kind",
			input: `{"type":"teleport"}`,
			check: func(t *testing.T, msg ClientMessage) {
				unknown, ok := msg.(UnknownMessage)
				if !ok || unknown.Type != "teleport" {
					t.Errorf("got %#v", msg)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := ParseClientMessage([]byte(tc.input))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			tc.check(t, msg)
		})
	}
}

func TestParseClientMessageMalformed(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{`)); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestInventoryKeyID(t *testing.T) {
	full := InventoryKey{ProductID: "P1", WarehouseID: "W1", VariantID: "V1", UomID: "U1"}
	if got := full.ID(); got != "W1|P1|V1|U1" {
		t.Errorf("got %q", got)
	}

	partial := InventoryKey{ProductID: "P1", WarehouseID: "W1"}
	if got := partial.ID(); got != "W1|P1||" {
		t.Errorf("got %q", got)
	}
	if full.ID() == partial.ID() {
		t.Error("distinct keys must not collide")
	}
}
