package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live-quiz-service/config"
	"live-quiz-service/internal/game"
	ws "live-quiz-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins in prod
	},
}

type WebSocketHandler struct {
	hub      *ws.Hub
	registry *game.Registry
	config   *config.Config
}

func NewWebSocketHandler(hub *ws.Hub, registry *game.Registry, cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		registry: registry,
		config:   cfg,
	}
}

// HandleWebSocket upgrades a connection and hands it to the hub.
//
// Players connect bare and join with a join-game message. A teacher
// reclaiming their game passes ?code= plus their token; if the token's
// user created that game the connection is attached as host before the
// first message flows.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	code := c.Query("code")

	var hostSessionID, hostUserID string
	if code != "" {
		session, err := h.registry.ResolveByCode(code)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game with that code"})
			return
		}

		claims := hostClaims(c, h.config.Auth.JWTSecret)
		if claims == nil {
			return
		}
		if claims.UserID != session.HostUserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not the host of this game"})
			return
		}
		hostSessionID = session.ID
		hostUserID = claims.UserID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, uuid.NewString())
	if hostSessionID != "" {
		client.IsHost = true
		client.SessionID = hostSessionID
		client.UserID = hostUserID
	}

	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
