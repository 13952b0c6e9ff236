package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"livechat/models"
)

// InsertEvent is the wire shape of a change-feed notification: a raw
// just-inserted row, scoped to one room. Consumers are expected to re-read
// the row by id for the joined author email.
type InsertEvent struct {
	Type  string         `json:"type"` // always "insert"
	Table string         `json:"table"`
	Row   models.Message `json:"row"`
}

// Hub pushes message-insert events to every subscriber of the affected room.
// Subscribers are either websocket connections or in-process channels; both
// are scoped to exactly one room.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	mu     sync.RWMutex
	locals map[string]map[*LocalSub]bool
}

type outbound struct {
	roomID string
	data   []byte
	row    models.Message
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	roomID string
	userID string
	email  string
}

// LocalSub is an in-process change-feed subscription.
type LocalSub struct {
	hub    *Hub
	roomID string
	Events chan models.Message

	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		locals:     make(map[string]map[*LocalSub]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case out := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[out.roomID] {
				select {
				case client.send <- out.data:
				default:
					close(client.send)
					delete(h.rooms[out.roomID], client)
				}
			}
			for sub := range h.locals[out.roomID] {
				select {
				case sub.Events <- out.row:
				default:
					// Slow local subscriber drops the event rather than
					// blocking the feed.
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true

	log.Printf("Feed subscriber %s joined room %s. Subscribers in room: %d",
		client.email, client.roomID, len(h.rooms[client.roomID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.rooms[client.roomID]; exists {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			log.Printf("Feed subscriber %s left room %s. Remaining: %d",
				client.email, client.roomID, len(clients))

			if len(clients) == 0 {
				delete(h.rooms, client.roomID)
			}
		}
	}
}

// Subscribe registers an in-process subscription for a room's insert events.
func (h *Hub) Subscribe(roomID string) *LocalSub {
	sub := &LocalSub{
		hub:    h,
		roomID: roomID,
		Events: make(chan models.Message, 64),
	}

	h.mu.Lock()
	if h.locals[roomID] == nil {
		h.locals[roomID] = make(map[*LocalSub]bool)
	}
	h.locals[roomID][sub] = true
	h.mu.Unlock()

	return sub
}

func (s *LocalSub) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.locals[s.roomID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.hub.locals, s.roomID)
			}
		}
		s.hub.mu.Unlock()
		close(s.Events)
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS: allow all, the API sits behind its own origin checks
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the connection to the room's
// feed. Callers must have verified approved membership already.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID, userID, email string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for %s: %v", email, err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		roomID: roomID,
		userID: userID,
		email:  email,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// The feed is one-way: the read pump only services keepalives and detects
// the peer going away. Messages are written through the HTTP API.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(300 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(300 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &probe); err != nil {
			continue
		}
		if probe.Type == "ping" {
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			c.conn.WriteMessage(websocket.TextMessage, pong)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(240 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte(c.userID)); err != nil {
				return
			}
		}
	}
}

// BroadcastInsert fans a stored message out to the room's subscribers as a
// change-feed insert event.
func (h *Hub) BroadcastInsert(msg models.Message) {
	event := InsertEvent{Type: "insert", Table: "messages", Row: msg}
	b, _ := json.Marshal(event)
	h.broadcast <- outbound{roomID: msg.RoomID, data: b, row: msg}
}

// SubscriberCount returns the number of live subscribers for a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID]) + len(h.locals[roomID])
}
