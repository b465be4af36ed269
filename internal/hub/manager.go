package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/event"
	"github.com/arjin21/omerpubgbagimliligi/internal/metrics"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/service"
	"github.com/gorilla/websocket"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

// clientBucket holds one shard of the user -> connections map. A user may
// hold several entries at once (multi-device).
type clientBucket struct {
	sync.RWMutex
	users map[string]map[string]*Client
}

// MessageSink accepts inbound socket messages for validation/persistence.
type MessageSink interface {
	Send(ctx context.Context, in service.SendInput) (*model.Message, error)
}

// ConversationResolver verifies conversation membership for typing fan-out.
type ConversationResolver interface {
	Get(ctx context.Context, conversationID, requester string) (*model.Conversation, error)
}

// Hub maintains the mapping from user identity to live connections and
// routes realtime events to them. Push delivery is best effort and
// at-most-once per call; events for users without a live connection are
// dropped, never queued.
type Hub struct {
	shards     [shardCount]*clientBucket
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	sink     MessageSink
	resolver ConversationResolver
	presence *PresenceStore // nil when redis is unconfigured

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(presence *PresenceStore) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		presence:   presence,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &clientBucket{
			users: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}

					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// SetMessageSink wires the message service in after construction. Must be
// called before serving connections.
func (h *Hub) SetMessageSink(sink MessageSink) {
	h.sink = sink
}

// SetConversationResolver wires the conversation service in after
// construction.
func (h *Hub) SetConversationResolver(r ConversationResolver) {
	h.resolver = r
}

// Notify delivers an event to every currently registered connection of the
// user. Users with no live connection simply miss the push; the data is
// already durable upstream.
func (h *Hub) Notify(userID string, eventName string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify marshal error for user %s: %v", userID, err)
		return
	}
	ev := event.WsEvent{Event: eventName, Payload: raw}

	clients := h.clientsFor(userID)
	if len(clients) == 0 {
		metrics.NotifyDropped.Inc()
		return
	}

	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			metrics.NotifyDropped.Inc()
			log.Printf("egress full for client %s of user %s", c.ID, userID)
			if kickOnFull {
				h.unregister <- c
			}
		}
	}
}

// BroadcastTyping fans a typing indicator out to all participants except
// its author. Purely ephemeral; never persisted.
func (h *Hub) BroadcastTyping(conversationID, fromUser string, participantIds []string, isTyping bool) {
	payload := model.TypingIndicator{
		ConversationID: conversationID,
		UserID:         fromUser,
		IsTyping:       isTyping,
	}
	for _, id := range participantIds {
		if id == fromUser {
			continue
		}
		h.Notify(id, event.EventTyping, payload)
	}
}

func (h *Hub) clientsFor(userID string) []*Client {
	sh := getShard(userID)
	b := h.shards[sh]

	b.RLock()
	defer b.RUnlock()

	conns, ok := b.users[userID]
	if !ok || len(conns) == 0 {
		return nil
	}

	clients := make([]*Client, 0, len(conns))
	for _, c := range conns {
		clients = append(clients, c)
	}
	return clients
}

func getShard(userID string) uint32 {
	if userID == "" {
		return 0
	}

	h := sha1.Sum([]byte(userID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

func (h *Hub) addClient(c *Client) {
	sh := getShard(c.userID)
	b := h.shards[sh]
	b.Lock()
	defer b.Unlock()

	conns, ok := b.users[c.userID]
	if !ok {
		conns = make(map[string]*Client)
		b.users[c.userID] = conns
	}

	conns[c.ID] = c
	metrics.WsConnections.Inc()
	log.Printf("client %s registered for user %s (shard %d)", c.ID, c.userID, sh)

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.presence.AddConnection(ctx, c.userID, c.ID); err != nil {
			log.Printf("presence add failed for user %s: %v", c.userID, err)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	sh := getShard(c.userID)
	b := h.shards[sh]
	b.Lock()
	defer b.Unlock()

	if conns, ok := b.users[c.userID]; ok {
		if _, exists := conns[c.ID]; exists {
			delete(conns, c.ID)
			metrics.WsConnections.Dec()
		}

		if len(conns) == 0 {
			delete(b.users, c.userID)
		}

		c.Close()
		log.Printf("client %s removed for user %s (shard %d)", c.ID, c.userID, sh)

		if h.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			lastConn := len(conns) == 0
			if err := h.presence.RemoveConnection(ctx, c.userID, c.ID, lastConn); err != nil {
				log.Printf("presence remove failed for user %s: %v", c.userID, err)
			}
		}
	}
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

func (h *Hub) Stop() {
	h.cancel()

	// Close all client connections
	for _, shard := range h.shards {
		shard.RLock()
		for _, conns := range shard.users {
			for _, client := range conns {
				client.Close()
			}
		}
		shard.RUnlock()
	}

	close(h.inbound)
	h.wg.Wait()
}

var (
	websocketUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	allowedOrigins = map[string]bool{
		"http://localhost:4200": true,
	}
)

func checkOrigin(r *http.Request) bool {
	return allowedOrigins[r.Header.Get("Origin")]
}

// SetAllowedOrigins replaces the websocket origin allowlist. Called once
// during container wiring.
func SetAllowedOrigins(origins []string) {
	m := make(map[string]bool, len(origins))
	for _, o := range origins {
		m[o] = true
	}
	allowedOrigins = m
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(userID, conn, h)
}
