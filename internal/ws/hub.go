package ws

import (
	"encoding/json"
	"sync"
)

// Client is a single WebSocket connection with user context.
type Client struct {
	UserID     uint
	AdminLevel string
	Send       chan []byte
	room       *Room
	mu         sync.Mutex
	closed     bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.room != nil {
		c.room.Leave(c)
	}
}

// Room is a chat room for one admin scope, e.g. all STATE admins of Kano.
type Room struct {
	Key     string
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func newRoom(key string) *Room {
	return &Room{Key: key, clients: make(map[*Client]struct{})}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.room = r
	r.clients[c] = struct{}{}
}

func (r *Room) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends the payload to every member. Pass from to skip the sender.
func (r *Room) Broadcast(from *Client, payload interface{}) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if c != from {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// Hub holds the scope rooms, created lazily as admins connect.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

func (h *Hub) GetOrCreateRoom(key string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[key]; ok {
		return r
	}
	r := newRoom(key)
	h.rooms[key] = r
	return r
}

func (h *Hub) GetRoom(key string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[key]
}
