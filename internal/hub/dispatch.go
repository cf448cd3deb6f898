package hub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/khushik17/wee-Chat/internal/event"
	"github.com/khushik17/wee-Chat/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ConversationStore is the slice of the conversation repository the dispatch
// pipeline needs: the atomic append-or-create.
type ConversationStore interface {
	AppendMessage(ctx context.Context, sender, receiver string, msg model.Message) (*model.Conversation, error)
}

// connSession extends Session with the lifecycle hooks the dispatcher needs.
// *Client satisfies it; dispatch tests use in-memory fakes.
type connSession interface {
	Session
	setUserID(id string)
	Close()
}

// Dispatcher runs the validate -> persist -> push -> acknowledge pipeline for
// inbound socket events. Each event runs to completion inside one worker; the
// per-conversation ordering and uniqueness guarantees come from the store's
// atomic append, not from worker scheduling.
type Dispatcher struct {
	store    ConversationStore
	presence PresenceTable
	logger   *zap.Logger
	hub      *Hub

	now   func() time.Time
	newID func() string
}

// NewDispatcher builds a dispatcher. The hub reference is completed by NewHub.
func NewDispatcher(store ConversationStore, presence PresenceTable, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		presence: presence,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

func (d *Dispatcher) setHub(h *Hub) {
	d.hub = h
}

// HandleEvent routes one inbound envelope by its event name.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev event.WsEvent, c connSession) {
	switch ev.Event {
	case event.EventJoin:
		d.handleJoin(ev, c)
	case event.EventSendMessage:
		d.handleSendMessage(ctx, ev, c)
	case event.EventSendMeme:
		d.handleSendMeme(ctx, ev, c)
	case event.EventTyping:
		d.handleTyping(ev, c)
	default:
		log.Printf("unknown event type: %s", ev.Event)
	}
}

// handleJoin announces the socket's identity. A newer socket for the same
// identity replaces the old one, which is closed after the swap.
func (d *Dispatcher) handleJoin(ev event.WsEvent, c connSession) {
	var payload event.JoinPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		d.sendError(c, "", event.ErrCodeInvalidPayload, "failed to parse join payload")
		return
	}
	if err := payload.Validate(); err != nil {
		d.sendError(c, "", event.ErrCodeInvalidPayload, err.Error())
		return
	}

	// A socket re-joining under a different identity gives up its previous
	// entry first, exactly as a disconnect would. Without this the old
	// identity would stay in the roster forever, still pointing at a socket
	// that now answers for someone else.
	if prev := c.UserID(); prev != "" && prev != payload.UserID {
		d.presence.Remove(c)
	}

	c.setUserID(payload.UserID)
	replaced := d.presence.Announce(payload.UserID, c)
	if replaced != nil {
		if old, ok := replaced.(connSession); ok {
			old.Close()
		}
	}

	d.logger.Info("user joined", zap.String("user_id", payload.UserID))
	if d.hub != nil {
		d.hub.BroadcastRoster()
	}
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, ev event.WsEvent, c connSession) {
	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		d.sendError(c, "", event.ErrCodeInvalidPayload, "failed to parse message payload")
		return
	}
	if err := payload.Validate(); err != nil {
		d.sendError(c, payload.ClientRef, event.ErrCodeInvalidPayload, err.Error())
		return
	}
	if c.UserID() == "" {
		d.sendError(c, payload.ClientRef, event.ErrCodeNotJoined, "announce identity before sending")
		return
	}
	if payload.SenderID != c.UserID() {
		d.sendError(c, payload.ClientRef, event.ErrCodeInvalidPayload, "senderId does not match announced identity")
		return
	}

	msg := model.Message{
		MessageID: d.newID(),
		Sender:    payload.SenderID,
		Kind:      model.MessageKindText,
		Content:   payload.Message,
		CreatedAt: d.now(),
	}

	d.dispatch(ctx, c, payload.ReceiverID, msg, payload.ClientRef, event.EventReceiveMessage)
}

func (d *Dispatcher) handleSendMeme(ctx context.Context, ev event.WsEvent, c connSession) {
	var payload event.SendMemePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		d.sendError(c, "", event.ErrCodeInvalidPayload, "failed to parse meme payload")
		return
	}
	if err := payload.Validate(); err != nil {
		d.sendError(c, payload.ClientRef, event.ErrCodeInvalidPayload, err.Error())
		return
	}
	if c.UserID() == "" {
		d.sendError(c, payload.ClientRef, event.ErrCodeNotJoined, "announce identity before sending")
		return
	}
	if payload.SenderID != c.UserID() {
		d.sendError(c, payload.ClientRef, event.ErrCodeInvalidPayload, "senderId does not match announced identity")
		return
	}

	memeID, err := primitive.ObjectIDFromHex(payload.MemeID)
	if err != nil {
		d.sendError(c, payload.ClientRef, event.ErrCodeInvalidPayload, "memeId is not a valid id")
		return
	}

	msg := model.Message{
		MessageID: d.newID(),
		Sender:    payload.SenderID,
		Kind:      model.MessageKindMeme,
		MemeID:    &memeID,
		CreatedAt: d.now(),
	}

	d.dispatch(ctx, c, payload.ReceiverID, msg, payload.ClientRef, event.EventReceiveMeme)
}

// dispatch is the shared tail of the pipeline: persist, then push to the
// receiver if present, then acknowledge the sender with the persisted copy.
// Persist strictly precedes the push; a failed persist produces an error ack
// and nothing is delivered.
func (d *Dispatcher) dispatch(ctx context.Context, c connSession, receiverID string, msg model.Message, clientRef, receiveEvent string) {
	if _, err := d.store.AppendMessage(ctx, msg.Sender, receiverID, msg); err != nil {
		d.logger.Error("message persist failed",
			zap.String("sender", msg.Sender),
			zap.String("receiver", receiverID),
			zap.Error(err),
		)
		d.sendError(c, clientRef, event.ErrCodePersistFailed, "message could not be saved")
		return
	}

	view := messageView(msg)

	// Presence miss is not an error: the message is stored and surfaces on the
	// receiver's next history fetch.
	if receiver, ok := d.presence.Lookup(receiverID); ok {
		if push, err := event.New(receiveEvent, view); err == nil {
			receiver.Push(push)
		}
	}

	view.ClientRef = clientRef
	if ack, err := event.New(event.EventMessageAck, view); err == nil {
		c.Push(ack)
	}
}

// handleTyping relays a best-effort typing signal. No persistence, no ack, no
// delivery when the receiver is offline.
func (d *Dispatcher) handleTyping(ev event.WsEvent, c connSession) {
	var payload event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return
	}
	if payload.Validate() != nil || c.UserID() == "" {
		return
	}

	receiver, ok := d.presence.Lookup(payload.ReceiverID)
	if !ok {
		return
	}

	if notice, err := event.New(event.EventTypingNotice, event.TypingNotice{SenderID: c.UserID()}); err == nil {
		receiver.Push(notice)
	}
}

func (d *Dispatcher) sendError(c connSession, clientRef, code, message string) {
	ack, err := event.New(event.EventErrorAck, event.ErrorAck{ClientRef: clientRef, Code: code, Message: message})
	if err != nil {
		return
	}
	c.Push(ack)
}

func messageView(msg model.Message) event.MessagePayload {
	view := event.MessagePayload{
		MessageID: msg.MessageID,
		SenderID:  msg.Sender,
		Kind:      msg.Kind,
		Message:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if msg.MemeID != nil {
		view.MemeID = msg.MemeID.Hex()
	}
	return view
}
