package hub

import (
	"testing"

	"github.com/khushik17/wee-Chat/internal/event"

	"go.uber.org/zap"
)

func newTestHub() *Hub {
	presence := NewPresenceTable()
	d := NewDispatcher(newFakeStore(), presence, zap.NewNop())
	return NewHub(presence, d)
}

func TestHub_StopReturnsWithQueuedEvents(t *testing.T) {
	h := newTestHub()

	// Events still sitting in the queue must not keep Stop from returning.
	for i := 0; i < 8; i++ {
		h.inbound <- inboundEvent{event: event.WsEvent{Event: "noop"}}
	}

	h.Stop()
}

func TestHub_InboundStaysOpenAfterStop(t *testing.T) {
	h := newTestHub()
	h.Stop()

	// A reader that finished a frame right at shutdown may still hand it off.
	// The handoff lands in the buffer or times out; it must never panic.
	select {
	case h.inbound <- inboundEvent{event: event.WsEvent{Event: "noop"}}:
	default:
	}
}
