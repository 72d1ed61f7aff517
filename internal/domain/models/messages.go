package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChannelParams is the legacy parameter form of a subscribe/unsubscribe
// request: instead of naming a channel the client names identifiers and the
// hub derives the channel with the router precedence (minus uom/transfer).
type ChannelParams struct {
	ProductID   string `json:"productId,omitempty"`
	WarehouseID string `json:"warehouseId,omitempty"`
	VariantID   string `json:"variantId,omitempty"`
}

// ClientMessage is the tagged union of inbound live-feed control messages.
type ClientMessage interface {
	clientMessage()
}

// SubscribeMessage adds a channel to the session, given explicitly or via the
// legacy parameter form.
type SubscribeMessage struct {
	Channel string
	Params  *ChannelParams
}

// UnsubscribeMessage removes a channel from the session.
type UnsubscribeMessage struct {
	Channel string
	Params  *ChannelParams
}

// PingMessage is a keepalive; the hub records it and replies pong.
type PingMessage struct{}

// UnknownMessage carries an unrecognized type tag. The hub answers it with an
// error acknowledgment but never drops the session for it.
type UnknownMessage struct {
	Type string
}

func (SubscribeMessage) clientMessage()   {}
func (UnsubscribeMessage) clientMessage() {}
func (PingMessage) clientMessage()        {}
func (UnknownMessage) clientMessage()     {}

type clientEnvelope struct {
	Type    string         `json:"type"`
	Channel string         `json:"channel,omitempty"`
	Payload *ChannelParams `json:"payload,omitempty"`
}

// ParseClientMessage decodes one inbound frame into its message variant.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode client message: %w", err)
	}

	switch env.Type {
	case "subscribe":
		return SubscribeMessage{Channel: env.Channel, Params: env.Payload}, nil
	case "unsubscribe":
		return UnsubscribeMessage{Channel: env.Channel, Params: env.Payload}, nil
	case "ping":
		return PingMessage{}, nil
	default:
		return UnknownMessage{Type: env.Type}, nil
	}
}

// Ack is a server→client acknowledgment frame.
type Ack struct {
	Type         string    `json:"type"`
	ConnectionID string    `json:"connectionId,omitempty"`
	Channel      string    `json:"channel,omitempty"`
	Channels     []string  `json:"channels,omitempty"`
	Message      string    `json:"message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Acknowledgment type tags.
const (
	AckConnected    = "connected"
	AckSubscribed   = "subscribed"
	AckUnsubscribed = "unsubscribed"
	AckPong         = "pong"
	AckError        = "error"
)
