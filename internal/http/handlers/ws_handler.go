package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/creator-ads/backend/internal/auth"
	"github.com/creator-ads/backend/internal/config"
	"github.com/creator-ads/backend/internal/events"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WSHub pushes lifecycle and decision events to connected owners so the UI
// can follow a launch without polling the API.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamCampaigns, func(event events.Event) {
		h.dispatch(event)
	})
}

// dispatch delivers the event to the owner it concerns, falling back to a
// broadcast when the payload carries no owner.
func (h *WSHub) dispatch(event events.Event) {
	ownerStr, _ := event.Payload["owner_id"].(string)
	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		h.broadcast(event)
		return
	}
	h.SendToOwner(ownerID, event)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.connections {
		for _, conn := range conns {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

func (h *WSHub) SendToOwner(ownerID uuid.UUID, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[ownerID] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (h *WSHub) register(ownerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	h.connections[ownerID] = append(h.connections[ownerID], conn)
	h.mu.Unlock()
}

func (h *WSHub) unregister(ownerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[ownerID]
	for i, c := range conns {
		if c == conn {
			h.connections[ownerID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[ownerID]) == 0 {
		delete(h.connections, ownerID)
	}
}

// HandleWS authenticates via a token query param, then keeps the connection
// registered until the client goes away.
func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
		_ = conn.Close()
		return
	}

	ownerID := claims.OwnerID
	h.register(ownerID, conn)
	defer func() {
		h.unregister(ownerID, conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
