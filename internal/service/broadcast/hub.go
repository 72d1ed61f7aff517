package broadcast

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// defaultInboxSize bounds the actor mailbox. Broadcast handoff is
// fire-and-forget: when the mailbox is full the event is dropped and logged,
// never back-pressured into the mutation path.
const defaultInboxSize = 256

// Conn is the transport surface of one live subscriber connection.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// session is owned exclusively by the hub loop. Nothing outside the loop may
// read or mutate it.
type session struct {
	id          string
	conn        Conn
	channels    map[string]struct{}
	connectedAt time.Time
	lastPingAt  time.Time
}

// Stats is a read-only aggregate over the session table.
type Stats struct {
	Connections       int            `json:"connections"`
	Channels          map[string]int `json:"channels"`
	OldestConnectedAt *time.Time     `json:"oldestConnectedAt,omitempty"`
	NewestConnectedAt *time.Time     `json:"newestConnectedAt,omitempty"`
}

type command interface {
	command()
}

type connectCmd struct {
	conn  Conn
	reply chan string
}

type disconnectCmd struct {
	id string
}

type messageCmd struct {
	id  string
	msg models.ClientMessage
}

type broadcastCmd struct {
	event models.Event
}

type statsCmd struct {
	reply chan Stats
}

func (connectCmd) command()    {}
func (disconnectCmd) command() {}
func (messageCmd) command()    {}
func (broadcastCmd) command()  {}
func (statsCmd) command()      {}

// Hub is the event broadcaster actor. A single goroutine drains the inbox and
// processes every connect, disconnect, control message and broadcast one at a
// time in arrival order; that serialization is the only concurrency control
// the session table needs.
type Hub struct {
	inbox    chan command
	sessions map[string]*session
	logger   *zap.Logger
	quit     chan struct{}
	done     chan struct{}
}

// NewHub creates a hub. Call Start before handing it to producers.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		inbox:    make(chan command, defaultInboxSize),
		sessions: make(map[string]*session),
		logger:   logger,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the actor loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop shuts the loop down and closes every live connection. Producers that
// race with Stop get no-ops rather than panics, so lingering websocket
// readers can unwind on their own.
func (h *Hub) Stop() {
	close(h.quit)
	<-h.done
}

// Connect registers a new subscriber session with the default global
// subscription and returns its connection ID. The connected acknowledgment is
// written by the actor. Returns "" if the hub is stopping.
func (h *Hub) Connect(conn Conn) string {
	reply := make(chan string, 1)
	select {
	case h.inbox <- connectCmd{conn: conn, reply: reply}:
	case <-h.quit:
		return ""
	}
	select {
	case id := <-reply:
		return id
	case <-h.quit:
		return ""
	}
}

// Disconnect removes a session from the table.
func (h *Hub) Disconnect(id string) {
	select {
	case h.inbox <- disconnectCmd{id: id}:
	case <-h.quit:
	}
}

// HandleMessage routes one parsed client control message to the session.
func (h *Hub) HandleMessage(id string, msg models.ClientMessage) {
	select {
	case h.inbox <- messageCmd{id: id, msg: msg}:
	case <-h.quit:
	}
}

// Broadcast hands an event to the actor without blocking. A full mailbox
// drops the event: liveness of the write path wins over delivery.
func (h *Hub) Broadcast(event models.Event) {
	select {
	case h.inbox <- broadcastCmd{event: event}:
	case <-h.quit:
	default:
		h.logger.Warn("hub inbox full, dropping event", zap.String("kind", string(event.Kind)))
	}
}

// Dispatch implements the ledger dispatcher contract.
func (h *Hub) Dispatch(event models.Event) {
	h.Broadcast(event)
}

// Stats returns a snapshot of the session table aggregates.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	select {
	case h.inbox <- statsCmd{reply: reply}:
	case <-h.quit:
		return Stats{Channels: map[string]int{}}
	}
	select {
	case stats := <-reply:
		return stats
	case <-h.quit:
		return Stats{Channels: map[string]int{}}
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for id := range h.sessions {
				h.removeSession(id, true)
			}
			return
		case cmd := <-h.inbox:
			switch c := cmd.(type) {
			case connectCmd:
				c.reply <- h.handleConnect(c.conn)
			case disconnectCmd:
				h.removeSession(c.id, false)
			case messageCmd:
				h.handleMessage(c.id, c.msg)
			case broadcastCmd:
				h.handleBroadcast(c.event)
			case statsCmd:
				c.reply <- h.snapshotStats()
			}
		}
	}
}

func (h *Hub) handleConnect(conn Conn) string {
	now := time.Now().UTC()
	sess := &session{
		id:          uuid.New().String(),
		conn:        conn,
		channels:    map[string]struct{}{GlobalChannel: {}},
		connectedAt: now,
		lastPingAt:  now,
	}
	h.sessions[sess.id] = sess

	h.send(sess, models.Ack{
		Type:         models.AckConnected,
		ConnectionID: sess.id,
		Channels:     sess.channelList(),
		Timestamp:    now,
	})

	h.logger.Info("subscriber connected", zap.String("connectionId", sess.id))
	return sess.id
}

func (h *Hub) handleMessage(id string, msg models.ClientMessage) {
	sess, ok := h.sessions[id]
	if !ok {
		return
	}

	switch m := msg.(type) {
	case models.SubscribeMessage:
		channel := m.Channel
		if channel == "" && m.Params != nil {
			channel = ChannelFromParams(*m.Params)
		}
		if channel == "" {
			h.send(sess, models.Ack{Type: models.AckError, Message: "subscribe requires a channel or identifying payload", Timestamp: time.Now().UTC()})
			return
		}
		sess.channels[channel] = struct{}{}
		h.send(sess, models.Ack{Type: models.AckSubscribed, Channel: channel, Channels: sess.channelList(), Timestamp: time.Now().UTC()})

	case models.UnsubscribeMessage:
		channel := m.Channel
		if channel == "" && m.Params != nil {
			channel = ChannelFromParams(*m.Params)
		}
		if channel == "" {
			h.send(sess, models.Ack{Type: models.AckError, Message: "unsubscribe requires a channel or identifying payload", Timestamp: time.Now().UTC()})
			return
		}
		delete(sess.channels, channel)
		h.send(sess, models.Ack{Type: models.AckUnsubscribed, Channel: channel, Channels: sess.channelList(), Timestamp: time.Now().UTC()})

	case models.PingMessage:
		sess.lastPingAt = time.Now().UTC()
		h.send(sess, models.Ack{Type: models.AckPong, Timestamp: sess.lastPingAt})

	case models.UnknownMessage:
		// Unknown kinds get an error reply; the session is never dropped
		// for them.
		h.send(sess, models.Ack{Type: models.AckError, Message: "unknown message type: " + m.Type, Timestamp: time.Now().UTC()})
	}
}

// handleBroadcast fans the event out to every matching session. A failed
// delivery removes that session and the loop moves on to the rest.
func (h *Hub) handleBroadcast(event models.Event) {
	channels := ChannelsFor(event)

	var failed []string
	delivered := 0
	for id, sess := range h.sessions {
		if !sess.matches(channels) {
			continue
		}
		if err := sess.conn.WriteJSON(event); err != nil {
			h.logger.Warn("event delivery failed, dropping session",
				zap.String("connectionId", id), zap.Error(err))
			failed = append(failed, id)
			continue
		}
		delivered++
	}

	for _, id := range failed {
		h.removeSession(id, true)
	}

	h.logger.Debug("event broadcast",
		zap.String("kind", string(event.Kind)),
		zap.Strings("channels", channels),
		zap.Int("delivered", delivered))
}

// send writes an acknowledgment; a transport error means the connection is
// dead and the session is removed.
func (h *Hub) send(sess *session, ack models.Ack) {
	if err := sess.conn.WriteJSON(ack); err != nil {
		h.logger.Warn("ack delivery failed, dropping session",
			zap.String("connectionId", sess.id), zap.Error(err))
		h.removeSession(sess.id, true)
	}
}

func (h *Hub) removeSession(id string, closeConn bool) {
	sess, ok := h.sessions[id]
	if !ok {
		return
	}
	delete(h.sessions, id)
	if closeConn {
		_ = sess.conn.Close()
	}
	h.logger.Info("subscriber disconnected", zap.String("connectionId", id))
}

func (h *Hub) snapshotStats() Stats {
	stats := Stats{
		Connections: len(h.sessions),
		Channels:    make(map[string]int),
	}

	for _, sess := range h.sessions {
		for channel := range sess.channels {
			stats.Channels[channel]++
		}
		connectedAt := sess.connectedAt
		if stats.OldestConnectedAt == nil || connectedAt.Before(*stats.OldestConnectedAt) {
			t := connectedAt
			stats.OldestConnectedAt = &t
		}
		if stats.NewestConnectedAt == nil || connectedAt.After(*stats.NewestConnectedAt) {
			t := connectedAt
			stats.NewestConnectedAt = &t
		}
	}

	return stats
}

func (s *session) matches(channels []string) bool {
	if _, ok := s.channels[GlobalChannel]; ok {
		return true
	}
	for _, channel := range channels {
		if _, ok := s.channels[channel]; ok {
			return true
		}
	}
	return false
}

func (s *session) channelList() []string {
	out := make([]string, 0, len(s.channels))
	for channel := range s.channels {
		out = append(out, channel)
	}
	return out
}
