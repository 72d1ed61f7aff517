package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/domain/models"
	"github.com/mamadbah2/stocklive/internal/service/broadcast"
)

// LiveHub is the broadcaster surface the transport adapter depends on.
type LiveHub interface {
	Connect(conn broadcast.Conn) string
	Disconnect(id string)
	HandleMessage(id string, msg models.ClientMessage)
	Broadcast(event models.Event)
	Stats() broadcast.Stats
}

// LiveHandler bridges websocket connections and the internal trigger endpoint
// to the hub.
type LiveHandler struct {
	hub      LiveHub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewLiveHandler constructs the live-update transport adapter.
func NewLiveHandler(hub LiveHub, logger *zap.Logger) *LiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Identifier channels carry no secrets; origin policy is left
			// to the fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve upgrades the request and pumps inbound control messages into the hub
// until the connection dies. All writes to the socket happen inside the hub
// loop, so the single gorilla writer constraint holds.
func (h *LiveHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := h.hub.Connect(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(id)
			_ = conn.Close()
			return
		}

		msg, err := models.ParseClientMessage(data)
		if err != nil {
			h.hub.HandleMessage(id, models.UnknownMessage{Type: "malformed"})
			continue
		}
		h.hub.HandleMessage(id, msg)
	}
}

// Trigger accepts a JSON inventory event from a collaborator and forwards it
// to the broadcaster.
func (h *LiveHandler) Trigger(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Warn("invalid trigger payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}
	if event.Kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event type is required"})
		return
	}

	h.hub.Broadcast(event)
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// Stats reports the hub's session-table aggregates.
func (h *LiveHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}
