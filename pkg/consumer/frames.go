package consumer

import (
	"encoding/json"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
)

// Frame types.
const (
	FramePing                  = "ping"
	FrameSubscribe             = "subscribe"
	FramePong                  = "pong"
	FrameConnectionEstablished = "connection_established"
	FrameSubscriptionConfirmed = "subscription_confirmed"
	FrameError                 = "error"
)

const establishedMessage = "Connected to notifications"

// inbound is any client frame.
type inbound struct {
	Type              string          `json:"type"`
	Timestamp         json.RawMessage `json:"timestamp,omitempty"`
	NotificationTypes []string        `json:"notification_types,omitempty"`
}

func establishedFrame(connID string, id identity.Identity) broadcast.Payload {
	return broadcast.Payload{
		"type":          FrameConnectionEstablished,
		"connection_id": connID,
		"user_id":       id.UserID,
		"role":          id.Role,
		"message":       establishedMessage,
	}
}

func pongFrame(ts json.RawMessage) broadcast.Payload {
	p := broadcast.Payload{"type": FramePong}
	if len(ts) > 0 {
		p["timestamp"] = ts
	}
	return p
}

func subscriptionFrame(types []string) broadcast.Payload {
	if types == nil {
		types = []string{}
	}
	return broadcast.Payload{
		"type":               FrameSubscriptionConfirmed,
		"notification_types": types,
	}
}

func errorFrame(msg string) broadcast.Payload {
	return broadcast.Payload{
		"type":    FrameError,
		"message": msg,
	}
}
