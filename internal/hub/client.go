package hub

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/event"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound messages
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound messages
	kickOnFull         = true                   // when true, disconnect client when egress is full
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one live websocket connection of a user. A user can hold
// several clients at once (multi-device).
type Client struct {
	ID      string
	userID  string
	conn    *websocket.Conn
	manager *Hub
	egress  chan event.WsEvent

	// conversations joined on this socket (join_conversation)
	conversations   map[string]struct{}
	conversationsMu sync.RWMutex

	// cancel or stop goroutine
	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

// RegisterClient creates a new client with a single WebSocket connection
func RegisterClient(userID string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	clientID := uuid.New().String()

	client := &Client{
		ID:             clientID,
		userID:         userID,
		conn:           conn,
		manager:        h,
		egress:         make(chan event.WsEvent, sendBufSize),
		conversations:  make(map[string]struct{}),
		cancel:         cancel,
		ctx:            ctx,
		connClosed:     make(chan struct{}),
		connClosedOnce: sync.Once{},
	}

	select {
	case h.register <- client:
		go client.ReadMessages()
		go client.WriteMessages()
		log.Printf("client %s registered for user %s", clientID, userID)
		return client
	case <-time.After(registerTimeout):
		log.Printf("failed to register client %s: timeout", clientID)
		cancel()
		conn.Close()
		return nil
	}
}

func (c *Client) UserID() string { return c.userID }

func (c *Client) ReadMessages() {
	defer func() {
		select {
		case c.manager.unregister <- c:
			// unregistered successfully
		case <-time.After(unregisterTimeout):
			log.Printf("failed to unregister client %s: timeout", c.ID)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {

				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					log.Printf("client disconnected: %v", c.ID)
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					log.Printf("unexpected close for %s: %v", c.ID, err)
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					log.Printf("client %s timed out - closing connection", c.ID)
					return
				}

				log.Printf("error reading from client %s: %v", c.ID, err)
				return
			}

			// Non-blocking send into inbound processing queue to avoid blocking reader
			select {
			case c.manager.inbound <- inboundMessage{client: c, event: ev}:
				// accepted for processing
			case <-time.After(inboundSendTimeout):
				log.Printf("inbound send timeout: dropping client %s", c.ID)
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		// Safe close of connClosed channel using sync.Once
		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
					log.Printf("connection closed: %v", err)
				}
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Println("write error: ", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Println("ping error: ", err)
				return
			}
		}
	}
}

func (c *Client) pongHandler(pongMsg string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) Close() {
	c.once.Do(func() {
		// Mark as closed BEFORE closing the channel
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		c.cancel()
		close(c.egress)

		// Wait for WriteMessages to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// WriteMessages closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
				log.Printf("safety timeout: force closed connection for client %s", c.ID)
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// SafeSend attempts to send an event to the client's egress channel.
// Returns true if sent successfully, false if client is closed or timeout.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	// Check if closed first (fast path)
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}

// -----------------------------------------------------------------
// Conversation membership on this socket
// -----------------------------------------------------------------

// JoinConversation records that this socket is watching a conversation.
func (c *Client) JoinConversation(conversationID string) {
	c.conversationsMu.Lock()
	defer c.conversationsMu.Unlock()
	c.conversations[conversationID] = struct{}{}
}

// LeaveConversation forgets a joined conversation.
func (c *Client) LeaveConversation(conversationID string) {
	c.conversationsMu.Lock()
	defer c.conversationsMu.Unlock()
	delete(c.conversations, conversationID)
}

// Conversations returns the conversations joined on this socket.
func (c *Client) Conversations() []string {
	c.conversationsMu.RLock()
	defer c.conversationsMu.RUnlock()

	out := make([]string, 0, len(c.conversations))
	for id := range c.conversations {
		out = append(out, id)
	}
	return out
}
