package voicecall

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"alrah-ai-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Hub tracks live voice-call connections. One user may hold several
// connections (multi-device), and Redis relays frames between instances so
// an event published on one node reaches clients connected to another.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// ActiveClients reports how many connections are currently registered.
func (h *Hub) ActiveClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// deliverLocal writes a frame to the matching local connections, "*" meaning
// everyone. Clients whose send buffer is full are handed to the unregister
// channel only after the lock is released; Run alone closes their channels,
// so a stalled client is dropped exactly once.
func (h *Hub) deliverLocal(targetUserID string, data []byte) {
	var stalled []*Client

	h.mu.RLock()
	if targetUserID == "*" {
		for _, clients := range h.clients {
			for _, client := range clients {
				select {
				case client.Send <- data:
				default:
					stalled = append(stalled, client)
				}
			}
		}
	} else if clients, ok := h.clients[targetUserID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				stalled = append(stalled, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserID})
		h.unregister <- client
	}
}

// Broadcast pushes a JSON frame to every connected client, local and remote.
func (h *Hub) Broadcast(frame map[string]interface{}) {
	data, _ := json.Marshal(frame)

	h.deliverLocal("*", data)

	if h.rdb != nil {
		payload := map[string]interface{}{
			"target_user_id": "*",
			"message":        data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// Send pushes a JSON frame to every connection of one user.
func (h *Hub) Send(userID string, frame map[string]interface{}) {
	data, _ := json.Marshal(frame)

	h.deliverLocal(userID, data)

	if h.rdb != nil {
		payload := map[string]interface{}{
			"target_user_id": userID,
			"message":        data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// subscribeToRedis relays frames published by other instances to locally
// connected clients. All instances listen on one channel and filter by the
// target user id, "*" meaning everyone.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.deliverLocal(payload.TargetUserID, payload.Message)
	}
}
