package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/typerace/go/internal/session"
)

// ClientMessageType identifies a frame sent by a browser client.
type ClientMessageType string

const (
	ClientMessageJoin  ClientMessageType = "join"
	ClientMessageInput ClientMessageType = "input"
	ClientMessageLeave ClientMessageType = "leave"
)

// ClientMessage is a frame received from a browser client.
type ClientMessage struct {
	Type   ClientMessageType `json:"type"`
	RoomID string            `json:"room_id,omitempty"` // join
	Value  string            `json:"value,omitempty"`   // input: the full typed string so far
}

// ParseClientMessage decodes and validates a client frame.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("unmarshal client message: %w", err)
	}
	switch msg.Type {
	case ClientMessageJoin, ClientMessageInput, ClientMessageLeave:
		return msg, nil
	default:
		return ClientMessage{}, fmt.Errorf("unknown client message type %q", msg.Type)
	}
}

// ServerMessageType identifies a frame pushed to a browser client.
type ServerMessageType string

const (
	ServerMessageView  ServerMessageType = "view"
	ServerMessageError ServerMessageType = "error"
)

// ServerMessage is a frame pushed to a browser client. View frames carry the
// full session view; clients render each frame as a complete replacement of
// the previous one.
type ServerMessage struct {
	Type  ServerMessageType `json:"type"`
	View  *session.View     `json:"view,omitempty"`
	Error string            `json:"error,omitempty"`
}

// NewViewMessage wraps a session view in a server frame.
func NewViewMessage(view session.View) ServerMessage {
	return ServerMessage{Type: ServerMessageView, View: &view}
}

// NewErrorMessage wraps a user-facing error in a server frame.
func NewErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: ServerMessageError, Error: err.Error()}
}
