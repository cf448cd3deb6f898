// Package chatclient implements the client-side view of a conversation: it
// merges fetched history with live socket events and reconciles optimistic
// local echoes against server acknowledgements.
package chatclient

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khushik17/wee-Chat/internal/event"
)

// TypingExpiry is how long a typing notice stays visible without a refresh.
const TypingExpiry = 3 * time.Second

// Entry is one rendered message. Pending entries are local echoes that have
// not been acknowledged yet; their timestamp and id are provisional.
type Entry struct {
	MessageID string
	ClientRef string
	SenderID  string
	Kind      string
	Text      string
	MemeID    string
	CreatedAt time.Time
	Pending   bool
}

// Timeline is the merged message view for one counterpart. All methods are
// safe for concurrent use; the socket read loop and the UI can share one.
type Timeline struct {
	mu      sync.Mutex
	selfID  string
	entries []Entry
	seen    map[string]bool

	typingUntil time.Time

	now    func() time.Time
	newRef func() string
}

func NewTimeline(selfID string) *Timeline {
	return &Timeline{
		selfID: selfID,
		seen:   make(map[string]bool),
		now:    time.Now,
		newRef: func() string { return uuid.New().String() },
	}
}

// LoadHistory replaces the fetched portion of the timeline. Pending local
// echoes survive the reload; anything acknowledged is deduplicated by
// message id against the fetched list.
func (t *Timeline) LoadHistory(history []event.MessagePayload) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []Entry
	for _, e := range t.entries {
		if e.Pending {
			pending = append(pending, e)
		}
	}

	t.entries = t.entries[:0]
	t.seen = make(map[string]bool, len(history))
	for _, msg := range history {
		t.appendLocked(entryFrom(msg, false))
	}
	for _, e := range pending {
		t.entries = append(t.entries, e)
	}
}

// AppendLocal adds an optimistic echo for a just-sent text message and
// returns the clientRef to put on the outgoing send_message event.
func (t *Timeline) AppendLocal(text string) string {
	return t.appendLocal(event.MessagePayload{
		SenderID: t.selfID,
		Kind:     "text",
		Message:  text,
	})
}

// AppendLocalMeme is AppendLocal for meme sends.
func (t *Timeline) AppendLocalMeme(memeID string) string {
	return t.appendLocal(event.MessagePayload{
		SenderID: t.selfID,
		Kind:     "meme",
		MemeID:   memeID,
	})
}

func (t *Timeline) appendLocal(msg event.MessagePayload) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ref := t.newRef()
	e := entryFrom(msg, true)
	e.ClientRef = ref
	e.CreatedAt = t.now()
	t.entries = append(t.entries, e)
	return ref
}

// ApplyAck reconciles a message_ack against the pending echo with the same
// clientRef: the provisional entry takes the server-assigned id and
// timestamp. An ack with no matching echo (say, after a reload) just appends.
func (t *Timeline) ApplyAck(msg event.MessagePayload) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen[msg.MessageID] {
		return
	}

	for i := range t.entries {
		if t.entries[i].Pending && t.entries[i].ClientRef == msg.ClientRef && msg.ClientRef != "" {
			e := entryFrom(msg, false)
			e.ClientRef = msg.ClientRef
			t.entries[i] = e
			t.seen[msg.MessageID] = true
			t.resortLocked()
			return
		}
	}

	t.appendLocked(entryFrom(msg, false))
}

// ApplyErrorAck drops the pending echo the failed send referred to and
// returns whether one was removed.
func (t *Timeline) ApplyErrorAck(ack event.ErrorAck) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ack.ClientRef == "" {
		return false
	}
	for i := range t.entries {
		if t.entries[i].Pending && t.entries[i].ClientRef == ack.ClientRef {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// ApplyReceive merges a live receive_message or receive_meme push. Duplicate
// pushes of the same message id are dropped.
func (t *Timeline) ApplyReceive(msg event.MessagePayload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendLocked(entryFrom(msg, false))
}

// NoticeTyping records a typing signal from the counterpart.
func (t *Timeline) NoticeTyping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.typingUntil = t.now().Add(TypingExpiry)
}

// TypingActive reports whether the counterpart's typing indicator should
// still render. Notices expire on their own; no stop event exists.
func (t *Timeline) TypingActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Before(t.typingUntil)
}

// Entries returns a copy of the current timeline in render order.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Timeline) appendLocked(e Entry) {
	if e.MessageID != "" {
		if t.seen[e.MessageID] {
			return
		}
		t.seen[e.MessageID] = true
	}
	t.entries = append(t.entries, e)
	t.resortLocked()
}

// resortLocked keeps entries in timestamp order. The sort is stable so
// same-timestamp messages keep their arrival order, and pending echoes with
// local timestamps stay near the tail where they were appended.
func (t *Timeline) resortLocked() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].CreatedAt.Before(t.entries[j].CreatedAt)
	})
}

func entryFrom(msg event.MessagePayload, pending bool) Entry {
	return Entry{
		MessageID: msg.MessageID,
		SenderID:  msg.SenderID,
		Kind:      msg.Kind,
		Text:      msg.Message,
		MemeID:    msg.MemeID,
		CreatedAt: msg.CreatedAt,
		Pending:   pending,
	}
}
