package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Event types carried over a chat socket.
const (
	EventChatMessage = "chat_message"
	EventTyping      = "typing"
)

// Event is one frame exchanged on a conversation socket.
type Event struct {
	Type       string   `json:"type"`
	SenderID   string   `json:"sender_id,omitempty"`
	ReceiverID string   `json:"receiver_id,omitempty"`
	Text       string   `json:"message,omitempty"`
	FileKeys   []string `json:"file_keys,omitempty"`
	FileTypes  []string `json:"file_types,omitempty"`
	SentAt     string   `json:"sent_at,omitempty"`
}

// RoomID names the conversation room for a user pair, independent of who
// connected first.
func RoomID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

type outbound struct {
	room    string
	payload []byte
}

// Hub fans events out to every socket joined to a room.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	rooms      map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Run owns room membership until ctx is done. Call it once, in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
			}
			return
		case c := <-h.register:
			if h.rooms[c.room] == nil {
				h.rooms[c.room] = make(map[*Client]bool)
			}
			h.rooms[c.room][c] = true
		case c := <-h.unregister:
			if clients, ok := h.rooms[c.room]; ok && clients[c] {
				delete(clients, c)
				close(c.send)
				if len(clients) == 0 {
					delete(h.rooms, c.room)
				}
			}
		case msg := <-h.broadcast:
			for c := range h.rooms[msg.room] {
				select {
				case c.send <- msg.payload:
				default:
					// Slow consumer: drop it rather than stall the room.
					delete(h.rooms[msg.room], c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast sends the event to everyone in the room.
func (h *Hub) Broadcast(room string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.broadcast <- outbound{room: room, payload: payload}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one websocket joined to a conversation room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	room   string
	userID string
	send   chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, room, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		room:   room,
		userID: userID,
		send:   make(chan []byte, 16),
	}
}

// Join registers the client with its room.
func (c *Client) Join() {
	c.hub.register <- c
}

// ReadPump consumes inbound frames until the socket closes. Every valid
// event is handed to onEvent with the sender forced to the authenticated
// user.
func (c *Client) ReadPump(onEvent func(Event)) {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("chat socket closed", "room", c.room, "error", err)
			}
			return
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		ev.Type = strings.TrimSpace(ev.Type)
		if ev.Type != EventChatMessage && ev.Type != EventTyping {
			continue
		}
		ev.SenderID = c.userID
		onEvent(ev)
	}
}

// WritePump pushes broadcasts and pings until the send channel closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
