package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Client -> server events.
const (
	EventJoin        = "join"
	EventSendMessage = "send_message"
	EventSendMeme    = "send_meme"
	EventTyping      = "typing"
)

// Server -> client events.
const (
	EventReceiveMessage = "receive_message"
	EventReceiveMeme    = "receive_meme"
	EventMessageAck     = "message_ack"
	EventErrorAck       = "error_ack"
	EventTypingNotice   = "typing"
	EventOnlineUsers    = "online_users"
)

// WsEvent is the tagged envelope every socket frame uses: the event name
// discriminates which payload shape Payload holds.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New marshals payload into an outbound envelope. Marshal failures are
// programmer errors (all payload types here are marshalable), so they surface
// as an error rather than a panic.
func New(name string, payload any) (WsEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return WsEvent{Event: name, Payload: raw}, nil
}

// JoinPayload announces the connection's identity. Idempotent; a repeat join
// from the same socket is a no-op, a join from a new socket replaces the old one.
type JoinPayload struct {
	UserID string `json:"userId"`
}

func (p JoinPayload) Validate() error {
	if p.UserID == "" {
		return errors.New("userId is required")
	}
	return nil
}

// SendMessagePayload is the inbound text-message event. ClientRef is an opaque
// client-generated id echoed back on the ack so the sender can reconcile its
// optimistic entry with the persisted copy.
type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	ClientRef  string `json:"clientRef,omitempty"`
}

func (p SendMessagePayload) Validate() error {
	if p.SenderID == "" || p.ReceiverID == "" {
		return errors.New("senderId and receiverId are required")
	}
	if p.Message == "" {
		return errors.New("message text is required")
	}
	return nil
}

// SendMemePayload is the inbound meme-message event.
type SendMemePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	MemeID     string `json:"memeId"`
	ClientRef  string `json:"clientRef,omitempty"`
}

func (p SendMemePayload) Validate() error {
	if p.SenderID == "" || p.ReceiverID == "" {
		return errors.New("senderId and receiverId are required")
	}
	if p.MemeID == "" {
		return errors.New("memeId is required")
	}
	return nil
}

// TypingPayload is the fire-and-forget typing signal.
type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

func (p TypingPayload) Validate() error {
	if p.ReceiverID == "" {
		return errors.New("receiverId is required")
	}
	return nil
}

// MessagePayload is the persisted message view pushed to the receiver and, with
// ClientRef set, acknowledged back to the sender. The timestamp is the
// server-assigned one, so both ends render the canonical copy.
type MessagePayload struct {
	MessageID string    `json:"messageId"`
	SenderID  string    `json:"senderId"`
	Kind      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	MemeID    string    `json:"memeId,omitempty"`
	CreatedAt time.Time `json:"timeStamp"`
	ClientRef string    `json:"clientRef,omitempty"`
}

// TypingNotice carries the implicit sender of a typing signal.
type TypingNotice struct {
	SenderID string `json:"senderId"`
}

// OnlineUsersPayload is the roster broadcast on any presence change.
type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

// ErrorAck tells a sender its event was rejected or failed. Code distinguishes
// a validation reject from a persistence failure, so a failed send is never
// confused with "sent but recipient offline".
type ErrorAck struct {
	ClientRef string `json:"clientRef,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Error codes for ErrorAck.
const (
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodePersistFailed  = "persist_failed"
	ErrCodeNotJoined      = "not_joined"
)
