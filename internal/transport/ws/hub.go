package ws

import (
	"sync"
)

type Conn interface {
	ID() string
	UserID() int64
	Send(msg Message) error
	Close() error
}

// Hub tracks live connections and their chat-room subscriptions. A connection
// may sit in any number of rooms; the reverse index makes disconnect cleanup
// O(rooms joined), not O(all rooms).
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Conn                // connID -> connection
	rooms  map[int64]map[string]Conn      // chatID -> connID -> connection
	joined map[string]map[int64]struct{}  // connID -> set of chatIDs
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]Conn),
		rooms:  make(map[int64]map[string]Conn),
		joined: make(map[string]map[int64]struct{}),
	}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID()] = c
	h.joined[c.ID()] = make(map[int64]struct{})
}

// Remove drops the connection from every room it joined. Idempotent, so a
// transport firing the disconnect path twice does no harm.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range h.joined[connID] {
		h.leaveLocked(connID, chatID)
	}
	delete(h.joined, connID)
	delete(h.conns, connID)
}

// Join is idempotent; joining a room twice equals joining once.
func (h *Hub) Join(connID string, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}

	rs, ok := h.rooms[chatID]
	if !ok {
		rs = make(map[string]Conn)
		h.rooms[chatID] = rs
	}
	rs[connID] = c
	h.joined[connID][chatID] = struct{}{}
}

// Leave is a no-op for rooms never joined.
func (h *Hub) Leave(connID string, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(connID, chatID)
	if set, ok := h.joined[connID]; ok {
		delete(set, chatID)
	}
}

func (h *Hub) leaveLocked(connID string, chatID int64) {
	if rs, ok := h.rooms[chatID]; ok {
		delete(rs, connID)
		if len(rs) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// BroadcastRoom sends to every subscriber of the room. The recipient set is
// snapshotted under the read lock; sends happen outside it so one slow
// connection cannot stall a concurrent join/leave.
func (h *Hub) BroadcastRoom(chatID int64, msg Message) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.rooms[chatID]))
	for _, c := range h.rooms[chatID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		_ = c.Send(msg) // best-effort
	}
}

// BroadcastAll sends to every live connection regardless of subscriptions.
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		_ = c.Send(msg) // best-effort
	}
}

// Subscribed reports whether the connection currently sits in the room.
func (h *Hub) Subscribed(connID string, chatID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.joined[connID][chatID]
	return ok
}
