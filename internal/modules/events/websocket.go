package events

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"carrental/internal/modules/session"
	"carrental/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// TODO: restrict origins once the frontend host is fixed
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub      *Hub
	tokens   *token.Service
	sessions *session.Service
}

func NewWSHandler(hub *Hub, tokens *token.Service, sessions *session.Service) *WSHandler {
	return &WSHandler{hub: hub, tokens: tokens, sessions: sessions}
}

// HandleWebSocket upgrades GET /ws/events?token=... into the live feed.
// Authentication rides on a query parameter because browsers cannot set
// headers on WebSocket upgrades.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required. Use ?token=YOUR_TOKEN",
		})
		return
	}

	claims, err := h.tokens.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return
	}
	if _, err := h.sessions.Validate(c.Request.Context(), claims.SessionID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Session is no longer valid",
		})
		return
	}

	userID := claims.PrincipalID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(userID, conn)
	log.Printf("User %d connected to the events feed", userID)

	defer func() {
		h.hub.Unregister(userID)
		conn.Close()
		log.Printf("User %d disconnected from the events feed", userID)
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(conn)

	h.readLoop(conn, userID)
}

func (h *WSHandler) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}

type clientMessage struct {
	Type string `json:"type"`
}

// readLoop drains the client side. The feed is push-only; the only
// accepted inbound frame is an application-level ping.
func (h *WSHandler) readLoop(conn *websocket.Conn, userID int64) {
	for {
		_, rawMsg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %d: %v", userID, err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(rawMsg, &msg); err != nil {
			conn.WriteJSON(envelope{Type: "error", Data: "invalid JSON"})
			continue
		}

		switch msg.Type {
		case "ping":
			conn.WriteJSON(envelope{Type: "pong"})
		default:
			conn.WriteJSON(envelope{Type: "error", Data: "unknown message type: " + msg.Type})
		}
	}
}
