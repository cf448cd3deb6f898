package hub

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/khushik17/wee-Chat/internal/event"

	"github.com/gorilla/websocket"
)

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// Hub owns every live websocket client and fans inbound events out to a worker
// pool. Presence bookkeeping and the dispatch pipeline live in the Dispatcher;
// the hub only does connection lifecycle and broadcast.
type Hub struct {
	presence   PresenceTable
	dispatcher *Dispatcher

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	clients   map[string]*Client // client ID -> client, all sockets including pre-join
	clientsMu sync.RWMutex

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub wires the hub to its dispatcher and starts the manager loop plus the
// inbound worker pool.
func NewHub(presence PresenceTable, dispatcher *Dispatcher) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		presence:   presence,
		dispatcher: dispatcher,
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundEvent, 4096), // buffer for burst handling
		clients:    make(map[string]*Client),
		ctx:        ctx,
		cancel:     cancel,
	}

	dispatcher.setHub(h)

	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.dispatcher.HandleEvent(h.ctx, in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	_, tracked := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	if !tracked {
		return
	}

	c.Close()

	// Value-checked removal: if this identity already reconnected on a newer
	// socket, the presence entry stays and no roster change is broadcast.
	if h.presence.Remove(c) {
		h.BroadcastRoster()
	}
	log.Printf("client %s removed", c.ID)
}

// Broadcast pushes ev to every connected client.
func (h *Hub) Broadcast(ev event.WsEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		c.Push(ev)
	}
}

// BroadcastRoster sends the current online-user set to every connection.
func (h *Hub) BroadcastRoster() {
	ev, err := event.New(event.EventOnlineUsers, event.OnlineUsersPayload{UserIDs: h.presence.Snapshot()})
	if err != nil {
		log.Printf("failed to build roster event: %v", err)
		return
	}
	h.Broadcast(ev)
}

// ClientCount returns how many sockets are connected (joined or not).
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// OnlineCount returns how many identities are present.
func (h *Hub) OnlineCount() int {
	return len(h.presence.Snapshot())
}

// QueueDepth reports the backlog of unprocessed inbound events.
func (h *Hub) QueueDepth() int {
	return len(h.inbound)
}

// Stop closes every connection and drains the worker pool. The inbound channel
// stays open: a read pump that finished a frame right at shutdown may still
// hand it off, and workers leave through the cancelled context instead.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for _, c := range h.clients {
		c.Close()
	}
	h.clientsMu.RUnlock()

	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the socket. Identity arrives later
// over the join event, matching the announce-after-connect contract.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, allowedOrigins []string) {
	upgrader := websocketUpgrader
	if len(allowedOrigins) > 0 {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(conn, h)
}
