package hub

import (
	"sort"
	"sync"

	"github.com/khushik17/wee-Chat/internal/event"
)

// Session is the delivery handle the presence table tracks: one live socket
// that can be pushed to. *Client satisfies it; tests use fakes.
type Session interface {
	// UserID returns the identity announced on this session, or "" before join.
	UserID() string

	// Push enqueues an event for delivery. Returns false if the session is
	// closed or its buffer stayed full past the send timeout.
	Push(ev event.WsEvent) bool
}

// PresenceTable maps a user identity to its single active session. It is the
// only process-wide shared mutable structure in the realtime path, so every
// operation is atomic under one lock. A new announce for an identity replaces
// the previous session (most-recent-connection-wins); removal is value-checked
// so a stale socket's disconnect can never evict its replacement.
type PresenceTable interface {
	// Announce registers s for identity, returning the session it replaced
	// (nil if none, or if s was already the registered session).
	Announce(identity string, s Session) Session

	// Lookup returns the active session for identity, if any.
	Lookup(identity string) (Session, bool)

	// Remove deletes the entry for s's identity only if it still points at s.
	// Returns whether an entry was removed.
	Remove(s Session) bool

	// Snapshot returns the sorted set of online identities.
	Snapshot() []string
}

type memoryPresence struct {
	mu     sync.RWMutex
	byUser map[string]Session
}

// NewPresenceTable returns the in-process presence table.
func NewPresenceTable() PresenceTable {
	return &memoryPresence{byUser: make(map[string]Session)}
}

func (p *memoryPresence) Announce(identity string, s Session) Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.byUser[identity]
	if prev == s {
		// Repeat join from the same socket is idempotent.
		return nil
	}
	p.byUser[identity] = s
	return prev
}

func (p *memoryPresence) Lookup(identity string) (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.byUser[identity]
	return s, ok
}

func (p *memoryPresence) Remove(s Session) bool {
	identity := s.UserID()
	if identity == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-check current value at removal time: if the identity reconnected on a
	// newer session, this disconnect must not evict it.
	current, ok := p.byUser[identity]
	if !ok || current != s {
		return false
	}
	delete(p.byUser, identity)
	return true
}

func (p *memoryPresence) Snapshot() []string {
	p.mu.RLock()
	identities := make([]string, 0, len(p.byUser))
	for id := range p.byUser {
		identities = append(identities, id)
	}
	p.mu.RUnlock()

	sort.Strings(identities)
	return identities
}
