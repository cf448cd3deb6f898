package chatclient

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/khushik17/wee-Chat/internal/event"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 15 * time.Second
)

// Handlers receives decoded server events. Nil fields are skipped. Handlers
// run on the read loop goroutine, so they must not block.
type Handlers struct {
	OnMessage     func(event.MessagePayload) // receive_message and receive_meme
	OnAck         func(event.MessagePayload)
	OnErrorAck    func(event.ErrorAck)
	OnTyping      func(event.TypingNotice)
	OnOnlineUsers func([]string)
}

// Conn is a client connection to the chat socket. It owns the join handshake
// and serializes outbound writes.
type Conn struct {
	userID   string
	ws       *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

// Dial connects to the socket endpoint, announces userID with a join event,
// and starts the read loop.
func Dial(url, userID string, handlers Handlers) (*Conn, error) {
	if userID == "" {
		return nil, errors.New("chatclient: userID is required")
	}

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		userID:   userID,
		ws:       ws,
		handlers: handlers,
		done:     make(chan struct{}),
	}

	if err := c.send(event.EventJoin, event.JoinPayload{UserID: userID}); err != nil {
		_ = ws.Close()
		return nil, err
	}

	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

// SendMessage sends a text message. clientRef links the eventual ack back to
// the caller's optimistic echo; pass the value Timeline.AppendLocal returned.
func (c *Conn) SendMessage(receiverID, text, clientRef string) error {
	return c.send(event.EventSendMessage, event.SendMessagePayload{
		SenderID:   c.userID,
		ReceiverID: receiverID,
		Message:    text,
		ClientRef:  clientRef,
	})
}

func (c *Conn) SendMeme(receiverID, memeID, clientRef string) error {
	return c.send(event.EventSendMeme, event.SendMemePayload{
		SenderID:   c.userID,
		ReceiverID: receiverID,
		MemeID:     memeID,
		ClientRef:  clientRef,
	})
}

// Typing fires a best-effort typing signal. Callers throttle; the server
// does not.
func (c *Conn) Typing(receiverID string) error {
	return c.send(event.EventTyping, event.TypingPayload{ReceiverID: receiverID})
}

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Conn) send(name string, payload any) error {
	ev, err := event.New(name, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(ev)
}

func (c *Conn) readLoop() {
	defer c.Close()

	for {
		var ev event.WsEvent
		if err := c.ws.ReadJSON(&ev); err != nil {
			return
		}
		c.route(ev)
	}
}

func (c *Conn) route(ev event.WsEvent) {
	switch ev.Event {
	case event.EventReceiveMessage, event.EventReceiveMeme:
		if c.handlers.OnMessage == nil {
			return
		}
		var msg event.MessagePayload
		if json.Unmarshal(ev.Payload, &msg) == nil {
			c.handlers.OnMessage(msg)
		}
	case event.EventMessageAck:
		if c.handlers.OnAck == nil {
			return
		}
		var msg event.MessagePayload
		if json.Unmarshal(ev.Payload, &msg) == nil {
			c.handlers.OnAck(msg)
		}
	case event.EventErrorAck:
		if c.handlers.OnErrorAck == nil {
			return
		}
		var ack event.ErrorAck
		if json.Unmarshal(ev.Payload, &ack) == nil {
			c.handlers.OnErrorAck(ack)
		}
	case event.EventTypingNotice:
		if c.handlers.OnTyping == nil {
			return
		}
		var notice event.TypingNotice
		if json.Unmarshal(ev.Payload, &notice) == nil {
			c.handlers.OnTyping(notice)
		}
	case event.EventOnlineUsers:
		if c.handlers.OnOnlineUsers == nil {
			return
		}
		var roster event.OnlineUsersPayload
		if json.Unmarshal(ev.Payload, &roster) == nil {
			c.handlers.OnOnlineUsers(roster.UserIDs)
		}
	}
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.Close()
				return
			}
		}
	}
}
