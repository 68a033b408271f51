package chat

import (
	"encoding/json"
	"fmt"
)

// Wire contract: every websocket message is a JSON frame
// {"event": "...", "data": {...}}. Inbound payloads are decoded into the
// typed structs below exactly once, at the boundary.

// Inbound events (client -> server).
const (
	EvSendMessage   = "send-message"
	EvTyping        = "typing"
	EvReadMessage   = "read-message"
	EvEditMessage   = "edit-message"
	EvDeleteMessage = "delete-message"
	EvPing          = "ping"
)

// Outbound events (server -> client).
const (
	EvOnlineUsers    = "online-users"
	EvUserOnline     = "user-online"
	EvUserOffline    = "user-offline"
	EvReceiveMessage = "receive-message"
	EvMessageSent    = "message-sent"
	EvMessageError   = "message-error"
	EvMessageRead    = "message-read"
	EvMessageEdited  = "message-edited"
	EvMessageDeleted = "message-deleted"
	EvPong           = "pong"
)

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return f, nil
}

// MarshalFrame builds a wire frame. Marshal errors only happen for
// non-encodable payloads, which would be a programming bug; callers treat
// them as fatal for the frame, not the connection.
func MarshalFrame(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// ---- inbound payloads ----

type SendMessage struct {
	ToUserID   string `json:"toUserId"`
	Ciphertext string `json:"ciphertext"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

type TypingReq struct {
	ToUserID string `json:"toUserId"`
}

type ReadMessage struct {
	MessageID string `json:"messageId"`
}

type EditMessage struct {
	MessageID  string `json:"messageId"`
	Ciphertext string `json:"ciphertext"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

type DeleteMessage struct {
	MessageID string `json:"messageId"`
}

// ---- outbound payloads ----

type OnlineUsers struct {
	UserIDs []string `json:"userIds"`
}

type UserPresence struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

type ReceiveMessage struct {
	FromUserID   string `json:"fromUserId"`
	FromUsername string `json:"fromUsername"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	Ciphertext   string `json:"ciphertext"`
	MessageID    string `json:"messageId"`
	Timestamp    int64  `json:"timestamp"`
}

type MessageSent struct {
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

type MessageError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type TypingNotice struct {
	FromUserID   string `json:"fromUserId"`
	FromUsername string `json:"fromUsername"`
}

type MessageRead struct {
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

type MessageEdited struct {
	MessageID  string `json:"messageId"`
	Ciphertext string `json:"ciphertext"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

type MessageDeleted struct {
	MessageID string `json:"messageId"`
}

type Pong struct{}
