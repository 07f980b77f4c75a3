package websocket

import (
	"context"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Constants for WebSocket configuration (adjust as needed)
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound frames buffered per client before it is considered too slow.
	sendBufferSize = 64

	hubQueueSize = 1024
)

// Hub keeps client's registry and handle messages delivery. Clients join an
// auction room, a user channel, or both.
type Hub struct {
	clients map[*Client]struct{}
	// rooms and users index clients by auction ID and user ID
	rooms map[string]map[*Client]struct{}
	users map[string]map[*Client]struct{}

	deliver    chan *Message
	register   chan *Client
	unregister chan *Client
	stats      chan chan Stats
	// InboundMessages is listened to by module specific handlers (e.g., auction handler)
	InboundMessages chan *ClientMessage
}

// Client represents a ws individual connection
type Client struct {
	Hub *Hub
	// The websocket connection, nil in tests.
	Conn *websocket.Conn
	// Buffered channel of outbound messages.
	Send chan []byte
	// Room is the auction ID this client watches, empty for user only connections.
	Room string
	// UserID is the authenticated user behind the connection, empty for anonymous viewers.
	UserID string
	// Unique identifier for the client
	ID string
}

// Message is an outbound frame addressed to a room, a user or one client.
type Message struct {
	Room   string
	UserID string
	Client *Client
	Data   []byte
}

// ClientMessage is used for wraping the client and data message received.
// is used to send inbound messages from the client to the hub handlers
type ClientMessage struct {
	Client *Client
	Data   []byte
}

// Stats is a point in time view of the registry.
type Stats struct {
	Clients int `json:"clients"`
	Rooms   int `json:"rooms"`
	Users   int `json:"users"`
}

func NewHub() *Hub {
	return &Hub{
		clients:         make(map[*Client]struct{}),
		rooms:           make(map[string]map[*Client]struct{}),
		users:           make(map[string]map[*Client]struct{}),
		deliver:         make(chan *Message, hubQueueSize),
		register:        make(chan *Client, hubQueueSize),
		unregister:      make(chan *Client, hubQueueSize),
		stats:           make(chan chan Stats),
		InboundMessages: make(chan *ClientMessage, hubQueueSize),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, id, room, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		Room:   room,
		UserID: userID,
		ID:     id,
	}
}

// Run starts the hub listening in their channels
func (h *Hub) Run(ctx context.Context) {
	log.Info("Websocket Hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("WebSocket Hub shutting down", zap.Int("clients", len(h.clients)))
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			index(h.rooms, client.Room, client)
			index(h.users, client.UserID, client)
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("room", client.Room),
				zap.String("userID", client.UserID),
				zap.String("remote_addr", client.remoteAddr()),
				zap.Int("total_clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				log.Info("Client unregistered",
					zap.String("clientID", client.ID),
					zap.String("room", client.Room),
					zap.String("remote_addr", client.remoteAddr()),
					zap.Int("total_clients", len(h.clients)),
				)
			}

		case msg := <-h.deliver:
			h.dispatch(msg)

		case reply := <-h.stats:
			reply <- Stats{Clients: len(h.clients), Rooms: len(h.rooms), Users: len(h.users)}
		}
	}
}

func (h *Hub) dispatch(msg *Message) {
	var targets map[*Client]struct{}
	switch {
	case msg.Client != nil:
		if _, ok := h.clients[msg.Client]; !ok {
			return
		}
		targets = map[*Client]struct{}{msg.Client: {}}
	case msg.Room != "":
		targets = h.rooms[msg.Room]
	case msg.UserID != "":
		targets = h.users[msg.UserID]
	}

	for client := range targets {
		select {
		case client.Send <- msg.Data:
		default:
			// too slow to keep up, drop it rather than stall the room
			h.remove(client)
			log.Warn("Failed to Send message to client, unregistering",
				zap.String("clientID", client.ID),
				zap.String("room", client.Room),
				zap.String("remote_addr", client.remoteAddr()),
			)
		}
	}
}

// remove must only be called from Run.
func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	unindex(h.rooms, client.Room, client)
	unindex(h.users, client.UserID, client)
	close(client.Send)
}

func index(m map[string]map[*Client]struct{}, key string, c *Client) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = make(map[*Client]struct{})
	}
	m[key][c] = struct{}{}
}

func unindex(m map[string]map[*Client]struct{}, key string, c *Client) {
	if clients, ok := m[key]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(m, key)
		}
	}
}

// RegisterClient register a new client in the hub
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("room", client.Room),
		)
		client.close()
	}
}

// UnregisterClient delete a client from the hub
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID),
			zap.String("room", client.Room),
		)
	}
}

// BroadcastToRoom sends data to every client watching an auction.
func (h *Hub) BroadcastToRoom(room string, data []byte) {
	h.enqueue(&Message{Room: room, Data: data})
}

// SendToUser sends data to every connection of a user.
func (h *Hub) SendToUser(userID string, data []byte) {
	h.enqueue(&Message{UserID: userID, Data: data})
}

// Reply sends data to one client. It is a no-op once the client is gone.
func (h *Hub) Reply(client *Client, data []byte) {
	h.enqueue(&Message{Client: client, Data: data})
}

// Stats blocks until the hub reports its registry size or ctx is done.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) enqueue(msg *Message) {
	select {
	case h.deliver <- msg:
	default:
		log.Error("Deliver channel is full, message dropped",
			zap.String("room", msg.Room),
			zap.String("userID", msg.UserID),
		)
	}
}

func (c *Client) remoteAddr() string {
	if c.Conn == nil || c.Conn.Conn == nil {
		return ""
	}
	return c.Conn.RemoteAddr().String()
}

func (c *Client) close() {
	if c.Conn != nil && c.Conn.Conn != nil {
		_ = c.Conn.Close()
	}
}

// ReadPump reads client frames and forwards them to InboundMessages.
// Este método debe ejecutarse en una goroutine por cada cliente.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("room", c.Room),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("room", c.Room),
					zap.String("remote_addr", c.remoteAddr()),
					zap.Error(err),
				)
			}
			return
		}

		log.Debug("Received message from client",
			zap.String("clientID", c.ID),
			zap.String("room", c.Room),
			zap.ByteString("message", message),
		)

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub InboundMessages channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("room", c.Room),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// invoking WriteControl and WriteMessage from a single goroutine.
// Each frame carries exactly one JSON message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The Hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("room", c.Room),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.String("room", c.Room),
					zap.Error(err),
				)
				return
			}
		}
	}
}
