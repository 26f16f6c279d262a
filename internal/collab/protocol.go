package collab

import (
	"encoding/json"

	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/engine"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

type Message struct {
	Type       string          `json:"type"`
	DocumentID string          `json:"documentId,omitempty"`
	ClientID   string          `json:"clientId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Seq        int64           `json:"seq,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	// Cursor is in canvas space.
	Cursor      *geom.Vector2 `json:"cursor,omitempty"`
	Selection   []string      `json:"selection,omitempty"`
	DisplayName string        `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync    = "doc.sync"
	TypeDocRequest = "doc.request"

	// Commands
	TypeCmdSubmit    = "cmd.submit"
	TypeCmdAck       = "cmd.ack"
	TypeCmdNack      = "cmd.nack"
	TypeCmdBroadcast = "cmd.broadcast"
)

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	ServerSeq int64  `json:"serverSeq"`
}

type DocSyncPayload struct {
	Document  *document.Document `json:"document"`
	ServerSeq int64              `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// CommandSubmitPayload is the payload for cmd.submit messages.
type CommandSubmitPayload struct {
	Command engine.Command `json:"command"`
}

// CommandAckPayload confirms a command to its sender. ServerSeq only
// advances for commands that changed the document.
type CommandAckPayload struct {
	CommandID string        `json:"commandId"`
	ServerSeq int64         `json:"serverSeq"`
	Result    engine.Result `json:"result"`
}

type CommandNackPayload struct {
	CommandID string `json:"commandId"`
	Reason    string `json:"reason"`
}

// CommandBroadcastPayload tells the other clients in a room that the
// document changed.
type CommandBroadcastPayload struct {
	Command   engine.Command `json:"command"`
	UserID    string         `json:"userId"`
	ServerSeq int64          `json:"serverSeq"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
