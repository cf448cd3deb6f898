package hub

import (
	"context"
	"sync"
	"testing"

	"github.com/khushik17/wee-Chat/internal/event"
)

// newDetachedClient builds a client with no underlying websocket connection.
// The connClosed gate is pre-released so Close never reaches for the conn.
func newDetachedClient() *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:         "detached",
		egress:     make(chan event.WsEvent, sendBufSize),
		ctx:        ctx,
		cancel:     cancel,
		connClosed: make(chan struct{}),
	}
	c.connClosedOnce.Do(func() { close(c.connClosed) })
	return c
}

func TestClient_PushAfterCloseReportsFailure(t *testing.T) {
	c := newDetachedClient()
	ev, err := event.New(event.EventTypingNotice, event.TypingNotice{SenderID: "alice"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if !c.Push(ev) {
		t.Fatal("push before close should succeed with a free buffer")
	}

	c.Close()
	if c.Push(ev) {
		t.Fatal("push after close must report failure")
	}
	if !c.IsClosed() {
		t.Fatal("client should report closed after Close")
	}
}

func TestClient_ConcurrentPushAndCloseIsSafe(t *testing.T) {
	ev, err := event.New(event.EventTypingNotice, event.TypingNotice{SenderID: "alice"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	// Pushers racing Close must always land in the buffer or fail cleanly.
	// Any panic fails the test.
	for i := 0; i < 200; i++ {
		c := newDetachedClient()

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 32; j++ {
					c.Push(ev)
				}
			}()
		}
		c.Close()
		wg.Wait()

		if c.Push(ev) {
			t.Fatal("push after close must report failure")
		}
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	c := newDetachedClient()
	c.Close()
	c.Close()
	if !c.IsClosed() {
		t.Fatal("client should stay closed")
	}
}
