package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"patio-backend/internal/middleware"
	"patio-backend/internal/timeutil"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// BoardUpdate is pushed to every connected client of a company whenever the
// queue changes. Clients refetch the board on receipt; the payload carries
// no card data on purpose.
type BoardUpdate struct {
	Type      string    `json:"type"`
	CompanyID string    `json:"empresa_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans board-change notifications out to websocket clients, grouped by
// company so one tenant never sees another tenant's activity.
type Hub struct {
	clientsMux sync.Mutex
	clients    map[string]map[*websocket.Conn]bool // companyID -> conns
	broadcast  chan BoardUpdate
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]map[*websocket.Conn]bool),
		broadcast: make(chan BoardUpdate, 64),
	}
}

// Run drains the broadcast channel. Call in a goroutine at startup.
func (h *Hub) Run() {
	for update := range h.broadcast {
		h.clientsMux.Lock()
		for client := range h.clients[update.CompanyID] {
			if err := client.WriteJSON(update); err != nil {
				client.Close()
				delete(h.clients[update.CompanyID], client)
			}
		}
		h.clientsMux.Unlock()
	}
}

// BoardChanged implements services.BoardNotifier. Never blocks the mutation
// path: when the channel is full the update is dropped, clients poll anyway.
func (h *Hub) BoardChanged(companyID string) {
	update := BoardUpdate{Type: "fila_atualizada", CompanyID: companyID, Timestamp: timeutil.Now()}
	select {
	case h.broadcast <- update:
	default:
	}
}

// Handle upgrades the connection and parks it until the client goes away.
// The authenticated company id decides which updates the client receives.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	companyID := actor.CompanyID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[WS] upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	if h.clients[companyID] == nil {
		h.clients[companyID] = make(map[*websocket.Conn]bool)
	}
	h.clients[companyID][conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients[companyID], conn)
			h.clientsMux.Unlock()
			break
		}
	}
}
