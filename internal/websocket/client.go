package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB
)

// Client is one live connection. It maps to at most one (session, role)
// pair: hosts arrive already bound to their session, players bind when
// their join-game message is accepted.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	ID        string // connection id, the key players are tracked under
	SessionID string // empty until attached
	IsHost    bool
	UserID    string // set for hosts, from the validated token
}

func NewClient(hub *Hub, conn *websocket.Conn, connectionID string) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		ID:   connectionID,
	}
}

// ReadPump relays inbound frames to the hub. Its deferred unregister is
// the one place disconnects are detected: if this goroutine exits for any
// reason the hub learns about it, so no ghost players stay "connected".
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			c.SendError("BAD_MESSAGE", "Invalid message format")
			continue
		}

		c.Hub.HandleMessage <- &ClientMessage{
			Client:  c,
			Message: msg,
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw queues bytes without blocking. A client that cannot keep up
// loses its connection rather than stalling the session.
func (c *Client) SendRaw(data []byte) {
	select {
	case c.Send <- data:
	default:
		log.Printf("Client %s send channel full, dropping connection", c.ID)
		c.Conn.Close()
	}
}

func (c *Client) SendError(code, message string) {
	c.SendMessage(protocol.Message{
		Type:    protocol.MessageTypeError,
		Payload: protocol.ErrorPayload{Code: code, Message: message},
	})
}
