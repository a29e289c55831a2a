package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"live-quiz-service/internal/game"
	"live-quiz-service/internal/models"
	"live-quiz-service/internal/protocol"
	"live-quiz-service/internal/repository"
	"live-quiz-service/pkg/cache"
)

type ClientMessage struct {
	Client  *Client
	Message protocol.Message
}

// Hub is the connection gateway. It owns the connection -> (session, role)
// mapping and nothing else: all gameplay truth lives in the game sessions,
// which reach back out through the game.Events interface the hub
// implements.
type Hub struct {
	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage

	registry    *game.Registry
	resultRepo  *repository.ResultRepository
	redisClient *cache.RedisClient

	mu       sync.RWMutex
	conns    map[string]*Client            // connection id -> client
	sessions map[string]map[string]*Client // session id -> connection id -> client
}

func NewHub(resultRepo *repository.ResultRepository, redisClient *cache.RedisClient) *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		resultRepo:    resultRepo,
		redisClient:   redisClient,
		conns:         make(map[string]*Client),
		sessions:      make(map[string]map[string]*Client),
	}
}

// SetRegistry breaks the construction cycle: the registry needs the hub
// as its Events sink and the hub needs the registry for lookups.
func (h *Hub) SetRegistry(registry *game.Registry) {
	h.registry = registry
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case clientMsg := <-h.HandleMessage:
			h.handleClientMessage(clientMsg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.conns[client.ID] = client
	h.mu.Unlock()

	log.Printf("Client registered: conn=%s, isHost=%v", client.ID, client.IsHost)

	// Hosts arrive pre-bound to a session; players bind on join-game.
	if client.IsHost {
		session, err := h.registry.ResolveByID(client.SessionID)
		if err != nil {
			client.SendError(game.ErrorCode(err), "Game no longer exists")
			client.Conn.Close()
			return
		}
		h.attach(client, session.ID)
		if err := session.HostReconnect(client.ID); err != nil {
			client.SendError(game.ErrorCode(err), err.Error())
			client.Conn.Close()
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.conns[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, client.ID)
	sessionID := client.SessionID
	if sessionID != "" {
		if clients, ok := h.sessions[sessionID]; ok {
			delete(clients, client.ID)
			if len(clients) == 0 {
				delete(h.sessions, sessionID)
			}
		}
	}
	close(client.Send)
	h.mu.Unlock()

	log.Printf("Client unregistered: conn=%s, session=%s", client.ID, sessionID)

	if sessionID == "" {
		return
	}
	session, err := h.registry.ResolveByID(sessionID)
	if err != nil {
		return
	}
	if client.IsHost {
		session.HostDisconnect(client.ID)
	} else {
		session.Leave(client.ID)
	}
}

func (h *Hub) attach(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.SessionID = sessionID
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]*Client)
	}
	h.sessions[sessionID][client.ID] = client
}

func (h *Hub) handleClientMessage(clientMsg *ClientMessage) {
	client := clientMsg.Client
	msg := clientMsg.Message

	if msg.Type == protocol.MessageTypePing {
		client.SendMessage(protocol.Message{Type: protocol.MessageTypePong})
		return
	}

	log.Printf("Received message: type=%s, conn=%s, session=%s", msg.Type, client.ID, client.SessionID)

	if msg.Type == protocol.MessageTypeJoinGame {
		h.handleJoinGame(client, msg.Payload)
		return
	}

	if client.SessionID == "" {
		client.SendError("NOT_JOINED", "Join a game first")
		return
	}
	session, err := h.registry.ResolveByID(client.SessionID)
	if err != nil {
		client.SendError(game.ErrorCode(err), "Game no longer exists")
		return
	}

	switch msg.Type {
	case protocol.MessageTypeSelectAnimal:
		var payload protocol.SelectAnimalPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			client.SendError("BAD_MESSAGE", "Invalid select-animal payload")
			return
		}
		h.reportError(client, session.SelectAnimal(client.ID, payload.Animal))

	case protocol.MessageTypeCustomizeAvatar:
		var payload protocol.CustomizeAvatarPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			client.SendError("BAD_MESSAGE", "Invalid customize-avatar payload")
			return
		}
		h.reportError(client, session.CustomizeAvatar(client.ID, payload.Customization))

	case protocol.MessageTypePlayerReady:
		h.reportError(client, session.SetReady(client.ID))

	case protocol.MessageTypeSubmitAnswer:
		var payload protocol.SubmitAnswerPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			client.SendError("BAD_MESSAGE", "Invalid submit-answer payload")
			return
		}
		h.reportError(client, session.SubmitAnswer(client.ID, payload.QuestionID, payload.Answer, payload.TimeRemaining))

	case protocol.MessageTypeLeave:
		session.Leave(client.ID)
		client.Conn.Close()

	case protocol.MessageTypeStartGame:
		h.requireHost(client, func() error { return session.StartGame(client.ID) })

	case protocol.MessageTypeAdvanceQuestion:
		h.requireHost(client, func() error { return session.AdvanceQuestion(client.ID) })

	case protocol.MessageTypeKick:
		var payload protocol.KickPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			client.SendError("BAD_MESSAGE", "Invalid kick payload")
			return
		}
		h.requireHost(client, func() error { return session.Kick(client.ID, payload.TargetPlayerID) })

	default:
		client.SendError("BAD_MESSAGE", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Hub) handleJoinGame(client *Client, raw any) {
	if client.SessionID != "" {
		client.SendError("ALREADY_JOINED", "Connection is already in a game")
		return
	}

	var payload protocol.JoinGamePayload
	if err := decodePayload(raw, &payload); err != nil || payload.PlayerName == "" {
		client.SendError("BAD_MESSAGE", "Invalid join-game payload")
		return
	}

	session, err := h.registry.ResolveByCode(payload.GameCode)
	if err != nil {
		client.SendError(game.ErrorCode(err), "No game with that code")
		return
	}

	// Attach before joining so the join broadcast reaches this connection's
	// session peers; on failure the attachment is rolled back.
	h.attach(client, session.ID)
	if _, err := session.Join(client.ID, payload.PlayerName); err != nil {
		h.detach(client)
		client.SendError(game.ErrorCode(err), err.Error())
	}
}

func (h *Hub) detach(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.sessions[client.SessionID]; ok {
		delete(clients, client.ID)
		if len(clients) == 0 {
			delete(h.sessions, client.SessionID)
		}
	}
	client.SessionID = ""
}

func (h *Hub) requireHost(client *Client, op func() error) {
	if !client.IsHost {
		client.SendError(game.ErrorCode(game.ErrUnauthorized), game.ErrUnauthorized.Error())
		return
	}
	h.reportError(client, op())
}

func (h *Hub) reportError(client *Client, err error) {
	if err != nil {
		client.SendError(game.ErrorCode(err), err.Error())
	}
}

// Broadcast implements game.Events. Marshals once, fans out non-blocking.
func (h *Hub) Broadcast(sessionID string, msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal broadcast: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.sessions[sessionID] {
		client.SendRaw(data)
	}
}

// SendTo implements game.Events.
func (h *Hub) SendTo(connectionID string, msg protocol.Message) {
	h.mu.RLock()
	client, ok := h.conns[connectionID]
	h.mu.RUnlock()

	if ok {
		client.SendMessage(msg)
	}
}

// SessionClosed implements game.Events: evicts the session from the
// registry and drops any connections still attached to it.
func (h *Hub) SessionClosed(sessionID string) {
	h.registry.Remove(sessionID)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[sessionID]))
	for _, c := range h.sessions[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Conn.Close()
	}
	log.Printf("Session %s evicted, %d connections closed", sessionID, len(clients))
}

// PersistResults implements game.Events. Runs in the background: the
// session must never wait on postgres or redis.
func (h *Hub) PersistResults(results *models.GameResults) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if h.resultRepo != nil {
			if err := h.resultRepo.SaveResults(ctx, results); err != nil {
				log.Printf("Failed to persist results for game %s: %v", results.GameID, err)
			}
		}

		if h.redisClient != nil {
			data, err := json.Marshal(results)
			if err != nil {
				return
			}
			key := fmt.Sprintf("game:%s:results", results.GameID)
			if err := h.redisClient.Set(ctx, key, string(data), 24*time.Hour); err != nil {
				log.Printf("Failed to cache results for game %s: %v", results.GameID, err)
			}
		}
	}()
}

// decodePayload round-trips the loosely-typed payload into its concrete
// struct.
func decodePayload(payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
