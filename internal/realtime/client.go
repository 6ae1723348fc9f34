package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection in an agency room.
type Client struct {
	ID       string
	AgencyID uuid.UUID
	UserID   uuid.UUID
	Role     string
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// TokenValidator validates the token query parameter and returns the
// principal.
type TokenValidator func(token string) (userID, role string, err error)

// AccessChecker reports whether the user may watch the agency's feed.
type AccessChecker func(ctx context.Context, agencyID, userID uuid.UUID) (bool, error)

// ServeWs handles the WebSocket upgrade and runs the client loop. The token
// travels in the query string since browsers cannot set headers on WebSocket
// connects.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenValidator, access AccessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		agencyIDStr := c.Query("agency_id")
		token := c.Query("token")
		if agencyIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agency_id and token required"})
			return
		}
		agencyID, err := uuid.Parse(agencyIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agency_id"})
			return
		}
		userIDStr, role, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, _ := uuid.Parse(userIDStr)

		if access != nil {
			ok, err := access(c.Request.Context(), agencyID, userID)
			if err != nil || !ok {
				c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for this agency"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			AgencyID: agencyID,
			UserID:   userID,
			Role:     role,
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

// readPump drains inbound frames. The feed is one-directional; inbound
// messages only keep the read deadline fresh.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
