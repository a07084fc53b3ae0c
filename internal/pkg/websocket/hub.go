package websocket

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
)

// GlobalScope is the scope of the sitewide chat; event chats use the event id
const GlobalScope = "global"

// Message types pushed to clients
const (
	TypeMessage        = "message"
	TypeMessageDeleted = "message_deleted"
	TypeTyping         = "typing"
	TypeParticipants   = "participants"
	TypeEventDeleted   = "event_deleted"
	TypeError          = "error"
)

const broadcastBuffer = 256

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients organized by scope
	clients map[string]map[*Client]bool

	// Outbound messages for a whole scope
	broadcast chan *Message

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Frames read from clients, consumed by the MessageHandler
	inbound chan *Frame

	stop chan struct{}
	once sync.Once

	// Logger for Hub operations
	logger zerolog.Logger
}

// Message represents a message sent over WebSocket
type Message struct {
	Type      string              `json:"type"`
	Scope     string              `json:"scope"`
	Message   *models.ChatMessage `json:"message,omitempty"`
	MessageID string              `json:"messageId,omitempty"`
	UserID    models.UserID       `json:"userId,omitempty"`
	UserName  string              `json:"userName,omitempty"`
	IsTyping  *bool               `json:"isTyping,omitempty"`
	Count     *int                `json:"count,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Frame is a message read from a client together with its sender
type Frame struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	IsTyping *bool  `json:"isTyping,omitempty"`

	client *Client
}

// Scope returns the chat the frame was sent to
func (f *Frame) Scope() string {
	return f.client.scope
}

// Sender returns the identity the client connected with
func (f *Frame) Sender() (models.UserID, string) {
	return f.client.userID, f.client.userName
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Frame, broadcastBuffer),
		clients:    make(map[string]map[*Client]bool),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations, broadcasts, etc.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Stop disconnects every client and ends Run
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.scope]; !ok {
		h.clients[client.scope] = make(map[*Client]bool)
	}
	h.clients[client.scope][client] = true

	h.logger.Info().
		Str("scope", client.scope).
		Str("userID", client.userID.String()).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.scope]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.scope)
	}

	h.logger.Info().
		Str("scope", client.scope).
		Str("userID", client.userID.String()).
		Msg("Client unregistered")
}

// broadcastMessage sends a message to all clients in its scope. Clients whose
// buffer is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("scope", message.Scope).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[message.Scope]
	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().Str("scope", message.Scope).Str("userID", client.userID.String()).Msg("Dropping slow client")
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("scope", message.Scope).
		Str("type", message.Type).
		Int("clientCount", len(clients)).
		Msg("Message broadcasted to scope")
}

// sendTo writes a message to a single client without blocking
func (h *Hub) sendTo(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.scope][client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// Publish queues a message for every client of its scope. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Publish(message *Message) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Str("scope", message.Scope).Str("type", message.Type).Msg("Broadcast queue full, dropping message")
	}
}

// GetClientsCount returns the number of connected clients for a scope
func (h *Hub) GetClientsCount(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[scope])
}
