package event

import "encoding/json"

// WsEvent is the envelope for every frame exchanged over the socket.
// Payload stays raw so each handler decodes only its own shape.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New wraps a payload struct into an envelope. The payload types in this
// repo cannot fail to marshal, so the error is dropped.
func New(name string, payload interface{}) WsEvent {
	raw, _ := json.Marshal(payload)
	return WsEvent{Event: name, Payload: raw}
}
