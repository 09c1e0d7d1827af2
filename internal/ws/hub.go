package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Hub управляет WebSocket подключениями. Клиенты подписываются на проект и
// получают события жизненного цикла его документов.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	ctx        context.Context
}

type message struct {
	projectID uuid.UUID
	payload   []byte
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.projectID, msg.payload)
		}
	}
}

// Register добавляет клиента. После остановки хаба вызов возвращается сразу:
// поздние подключения не должны виснуть на канале, который никто не читает.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// BroadcastToProject отправляет событие всем подписчикам проекта.
// Сообщение следует контракту WebSocket API: "type" — имя события,
// "data" — полезная нагрузка.
func (h *Hub) BroadcastToProject(projectID uuid.UUID, event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- message{projectID: projectID, payload: raw}:
	case <-h.ctx.Done():
		// Хаб остановлен, событие просто теряется.
	}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.projectID]; !ok {
		h.clients[client.projectID] = make(map[*Client]struct{})
	}
	h.clients[client.projectID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.projectID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.projectID)
		}
	}
}

func (h *Hub) send(projectID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[projectID] {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент: закрываем соединение, не блокируя рассылку.
			go client.Close()
		}
	}
}
