package broadcast

import (
	"errors"
	"sync"
	"testing"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// fakeConn records every frame the hub writes to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []any
	fail   bool
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) setFail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

func (c *fakeConn) acks() []models.Ack {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Ack
	for _, f := range c.frames {
		if ack, ok := f.(models.Ack); ok {
			out = append(out, ack)
		}
	}
	return out
}

func (c *fakeConn) events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Event
	for _, f := range c.frames {
		if event, ok := f.(models.Event); ok {
			out = append(out, event)
		}
	}
	return out
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func TestHubConnectDefaultsToGlobal(t *testing.T) {
	hub := newTestHub(t)
	conn := &fakeConn{}

	id := hub.Connect(conn)
	if id == "" {
		t.Fatal("expected a connection id")
	}

	stats := hub.Stats()
	if stats.Connections != 1 {
		t.Errorf("got %d connections, want 1", stats.Connections)
	}
	if stats.Channels[GlobalChannel] != 1 {
		t.Errorf("got %d global subscribers, want 1", stats.Channels[GlobalChannel])
	}

	acks := conn.acks()
	if len(acks) != 1 || acks[0].Type != models.AckConnected {
		t.Fatalf("got acks %v, want one connected ack", acks)
	}
	if acks[0].ConnectionID != id {
		t.Errorf("connected ack carries id %q, want %q", acks[0].ConnectionID, id)
	}
}

func TestHubControlMessages(t *testing.T) {
	hub := newTestHub(t)
	conn := &fakeConn{}
	id := hub.Connect(conn)

	hub.HandleMessage(id, models.SubscribeMessage{Channel: "product:P1"})
	hub.HandleMessage(id, models.SubscribeMessage{Params: &models.ChannelParams{WarehouseID: "W1"}})
	hub.HandleMessage(id, models.PingMessage{})
	hub.HandleMessage(id, models.UnknownMessage{Type: "teleport"})
	hub.HandleMessage(id, models.UnsubscribeMessage{Channel: "product:P1"})
	hub.HandleMessage(id, models.SubscribeMessage{})

	// Stats flows through the same inbox, so its reply doubles as a barrier.
	stats := hub.Stats()
	if stats.Connections != 1 {
		t.Fatalf("session dropped: got %d connections, want 1", stats.Connections)
	}
	if stats.Channels["warehouse:W1"] != 1 {
		t.Error("expected warehouse:W1 subscription from params form")
	}
	if stats.Channels["product:P1"] != 0 {
		t.Error("expected product:P1 to be unsubscribed")
	}

	acks := conn.acks()
	wantTypes := []string{
		models.AckConnected, models.AckSubscribed, models.AckSubscribed,
		models.AckPong, models.AckError, models.AckUnsubscribed, models.AckError,
	}
	if len(acks) != len(wantTypes) {
		t.Fatalf("got %d acks, want %d", len(acks), len(wantTypes))
	}
	for i, want := range wantTypes {
		if acks[i].Type != want {
			t.Errorf("ack %d: got %s, want %s", i, acks[i].Type, want)
		}
	}
}

func TestHubBroadcastMatching(t *testing.T) {
	hub := newTestHub(t)

	globalConn := &fakeConn{}
	hub.Connect(globalConn)

	otherConn := &fakeConn{}
	otherID := hub.Connect(otherConn)
	hub.HandleMessage(otherID, models.UnsubscribeMessage{Channel: GlobalChannel})
	hub.HandleMessage(otherID, models.SubscribeMessage{Channel: "product:P2"})

	matchConn := &fakeConn{}
	matchID := hub.Connect(matchConn)
	hub.HandleMessage(matchID, models.UnsubscribeMessage{Channel: GlobalChannel})
	hub.HandleMessage(matchID, models.SubscribeMessage{Channel: "product:P1"})

	hub.Broadcast(models.Event{
		Kind: models.EventInventoryUpdated, ProductID: "P1", WarehouseID: "W1",
	})
	hub.Stats()

	if got := len(globalConn.events()); got != 1 {
		t.Errorf("global subscriber got %d events, want 1", got)
	}
	if got := len(otherConn.events()); got != 0 {
		t.Errorf("product:P2 subscriber got %d events, want 0", got)
	}
	if got := len(matchConn.events()); got != 1 {
		t.Errorf("product:P1 subscriber got %d events, want 1", got)
	}
}

func TestHubRemovesDeadSessionMidBroadcast(t *testing.T) {
	hub := newTestHub(t)

	dead := &fakeConn{}
	hub.Connect(dead)
	alive := &fakeConn{}
	hub.Connect(alive)

	dead.setFail()
	hub.Broadcast(models.Event{Kind: models.EventInventoryUpdated, ProductID: "P1"})

	stats := hub.Stats()
	if stats.Connections != 1 {
		t.Errorf("got %d connections, want dead session removed", stats.Connections)
	}
	if !dead.closed {
		t.Error("dead connection should be closed")
	}
	if got := len(alive.events()); got != 1 {
		t.Errorf("surviving subscriber got %d events, want 1", got)
	}
}

func TestHubDisconnect(t *testing.T) {
	hub := newTestHub(t)
	conn := &fakeConn{}
	id := hub.Connect(conn)

	hub.Disconnect(id)

	stats := hub.Stats()
	if stats.Connections != 0 {
		t.Errorf("got %d connections, want 0", stats.Connections)
	}

	hub.Broadcast(models.Event{Kind: models.EventInventoryUpdated, ProductID: "P1"})
	hub.Stats()
	if got := len(conn.events()); got != 0 {
		t.Errorf("disconnected session got %d events, want 0", got)
	}
}

func TestHubStatsConnectionTimes(t *testing.T) {
	hub := newTestHub(t)
	hub.Connect(&fakeConn{})
	hub.Connect(&fakeConn{})

	stats := hub.Stats()
	if stats.OldestConnectedAt == nil || stats.NewestConnectedAt == nil {
		t.Fatal("expected connection time bounds")
	}
	if stats.NewestConnectedAt.Before(*stats.OldestConnectedAt) {
		t.Error("newest connection precedes oldest")
	}
}
