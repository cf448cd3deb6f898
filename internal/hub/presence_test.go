package hub

import (
	"reflect"
	"sync"
	"testing"

	"github.com/khushik17/wee-Chat/internal/event"
)

// fakeSession is an in-memory Session/connSession for presence and dispatch tests.
type fakeSession struct {
	mu     sync.Mutex
	userID string
	pushed []event.WsEvent
	closed bool
}

func newFakeSession(userID string) *fakeSession {
	return &fakeSession{userID: userID}
}

func (f *fakeSession) UserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

func (f *fakeSession) setUserID(id string) {
	f.mu.Lock()
	f.userID = id
	f.mu.Unlock()
}

func (f *fakeSession) Push(ev event.WsEvent) bool {
	f.mu.Lock()
	f.pushed = append(f.pushed, ev)
	f.mu.Unlock()
	return true
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSession) events() []event.WsEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.WsEvent, len(f.pushed))
	copy(out, f.pushed)
	return out
}

func TestPresence_AnnounceAndLookup(t *testing.T) {
	p := NewPresenceTable()
	c1 := newFakeSession("alice")

	if replaced := p.Announce("alice", c1); replaced != nil {
		t.Fatalf("expected no replaced session, got %v", replaced)
	}

	got, ok := p.Lookup("alice")
	if !ok || got != Session(c1) {
		t.Fatalf("lookup returned %v ok=%v, want c1", got, ok)
	}

	if _, ok := p.Lookup("bob"); ok {
		t.Fatal("lookup of unknown identity should miss")
	}
}

func TestPresence_AnnounceOverwritesAndReturnsReplaced(t *testing.T) {
	p := NewPresenceTable()
	c1 := newFakeSession("alice")
	c2 := newFakeSession("alice")

	p.Announce("alice", c1)
	replaced := p.Announce("alice", c2)
	if replaced != Session(c1) {
		t.Fatalf("expected c1 to be replaced, got %v", replaced)
	}

	got, _ := p.Lookup("alice")
	if got != Session(c2) {
		t.Fatal("lookup should return the newest session")
	}
}

func TestPresence_RepeatAnnounceSameSessionIsIdempotent(t *testing.T) {
	p := NewPresenceTable()
	c1 := newFakeSession("alice")

	p.Announce("alice", c1)
	if replaced := p.Announce("alice", c1); replaced != nil {
		t.Fatalf("re-announcing the same session must not report a replacement, got %v", replaced)
	}
}

func TestPresence_StaleDisconnectDoesNotEvictNewerSession(t *testing.T) {
	p := NewPresenceTable()
	c1 := newFakeSession("alice")
	c2 := newFakeSession("alice")

	p.Announce("alice", c1)
	p.Announce("alice", c2)

	// The old socket disconnects after being replaced.
	if removed := p.Remove(c1); removed {
		t.Fatal("stale session removal must be a no-op")
	}

	got, ok := p.Lookup("alice")
	if !ok || got != Session(c2) {
		t.Fatal("newer session must survive the stale disconnect")
	}

	// The current socket's disconnect does evict.
	if removed := p.Remove(c2); !removed {
		t.Fatal("current session removal should evict the entry")
	}
	if _, ok := p.Lookup("alice"); ok {
		t.Fatal("identity should be offline after its current session leaves")
	}
}

func TestPresence_RemoveWithoutIdentityIsNoop(t *testing.T) {
	p := NewPresenceTable()
	anon := newFakeSession("")

	if removed := p.Remove(anon); removed {
		t.Fatal("removing a never-joined session must be a no-op")
	}
}

func TestPresence_SnapshotIsSorted(t *testing.T) {
	p := NewPresenceTable()
	p.Announce("carol", newFakeSession("carol"))
	p.Announce("alice", newFakeSession("alice"))
	p.Announce("bob", newFakeSession("bob"))

	want := []string{"alice", "bob", "carol"}
	if got := p.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
}
