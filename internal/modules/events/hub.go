// Package events fans booking lifecycle events out to connected
// dashboard clients over WebSocket.
package events

import (
	"sync"
	"time"

	"carrental/internal/modules/booking"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Hub tracks one connection per user. A second connection from the
// same user replaces the first.
type Hub struct {
	connections map[int64]*websocket.Conn
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*websocket.Conn),
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if oldConn, exists := h.connections[userID]; exists && oldConn != nil {
		_ = oldConn.Close()
	}

	h.connections[userID] = conn
}

func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.connections[userID]; exists && conn != nil {
		_ = conn.Close()
		delete(h.connections, userID)
	}
}

func (h *Hub) SendToUser(userID int64, message interface{}) bool {
	h.mutex.RLock()
	conn, exists := h.connections[userID]
	h.mutex.RUnlock()

	if !exists || conn == nil {
		return false
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(message); err != nil {
		h.Unregister(userID)
		return false
	}

	return true
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

// envelope is the wire frame for every hub push.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PublishBookingEvent broadcasts a booking transition to every
// connected client. Writes run in a goroutine so the booking operation
// never waits on a slow socket.
func (h *Hub) PublishBookingEvent(evt booking.Event) {
	h.mutex.RLock()
	userIDs := make([]int64, 0, len(h.connections))
	for id := range h.connections {
		userIDs = append(userIDs, id)
	}
	h.mutex.RUnlock()

	msg := envelope{Type: "booking_event", Data: evt}
	go func() {
		for _, id := range userIDs {
			h.SendToUser(id, msg)
		}
	}()
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, userID)
	}
}
