// Package ws streams payment events (tips, access fees, settlements) to
// room subscribers over WebSocket.
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"streampay/internal/service"
)

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client // room id -> client id -> client
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Client)}
}

func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.RoomID]
	if !ok {
		clients = make(map[string]*Client)
		h.rooms[c.RoomID] = clients
	}
	clients[c.ID] = c
	log.Printf("Hub.Subscribe: user=%s room=%s subscribers=%d", c.UserID, c.RoomID, len(clients))
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}
	delete(clients, c.ID)
	if len(clients) == 0 {
		delete(h.rooms, c.RoomID)
	}
}

// PublishPayment implements service.EventPublisher. Slow subscribers are
// skipped rather than blocking the payment path.
func (h *Hub) PublishPayment(roomID string, event service.PaymentEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Hub.PublishPayment: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[roomID] {
		select {
		case c.Send <- msg:
		default:
			log.Printf("Hub.PublishPayment: dropping event for slow client user=%s room=%s", c.UserID, roomID)
		}
	}
}

// Subscribers returns the current subscriber count for a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
