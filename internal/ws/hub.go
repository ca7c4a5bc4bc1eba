package ws

import (
	"encoding/json"
	"sync"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

// Hub fans task events out to the owner's connected clients. A user only ever
// receives events for their own todos.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	Subscribers.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	c.closeSend()
	Subscribers.Dec()
}

// Publish implements service.EventPublisher. Clients whose buffer is full are dropped.
func (h *Hub) Publish(userID int64, ev domain.TaskEvent) {
	msg, err := json.Marshal(Envelope{Type: MsgEvent, Event: &ev})
	if err != nil {
		logger.Error("ws: marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws: dropping slow subscriber", "user_id", userID)
			h.removeLocked(c)
		}
	}
}

// DisconnectUser closes every subscription of userID, e.g. after account deletion.
func (h *Hub) DisconnectUser(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[userID] {
		h.removeLocked(c)
	}
}

// reply queues msg for c if it is still subscribed.
func (h *Hub) reply(c *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.UserID][c]; !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

func (h *Hub) Count(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
