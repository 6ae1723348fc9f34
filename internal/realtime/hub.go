// Package realtime streams submission and review events to agency dashboards
// over WebSocket, with Redis pub/sub fan-out across server instances.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Event is a portal event addressed to one agency's dashboard room.
type Event struct {
	Type     string    `json:"type"`
	AgencyID uuid.UUID `json:"agency_id"`
	Payload  any       `json:"payload,omitempty"`
}

// Publisher publishes events to other server instances.
type Publisher interface {
	PublishAgencyEvent(agencyID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to an agency channel and invokes handler for
// incoming events.
type Subscriber interface {
	SubscribeAgency(agencyID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains agency_id -> set of connections and broadcasts events.
// Local broadcast plus publish to Redis for horizontal scaling.
type Hub struct {
	rooms  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per agency
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client to its agency room, starting the Redis subscription
// for that agency on first join.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.AgencyID] == nil {
		h.rooms[c.AgencyID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeAgency(c.AgencyID, func(event string, payload []byte) {
				h.broadcastLocal(c.AgencyID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.AgencyID] = cancel
			}
		}
	}
	h.rooms[c.AgencyID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined agency room",
		zap.String("client_id", c.ID), zap.String("agency_id", c.AgencyID.String()))
}

// Unregister removes a client from its agency room, cancelling the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.AgencyID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.AgencyID)
			if cancel, ok := h.subs[c.AgencyID]; ok {
				cancel()
				delete(h.subs, c.AgencyID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left agency room",
		zap.String("client_id", c.ID), zap.String("agency_id", c.AgencyID.String()))
}

// Publish delivers the event to local clients of the agency room and to other
// instances via Redis.
func (h *Hub) Publish(e Event) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return
	}
	h.broadcastLocal(e.AgencyID, e.Type, json.RawMessage(data))
	if h.pub != nil {
		if err := h.pub.PublishAgencyEvent(e.AgencyID, e.Type, data); err != nil {
			h.logger.Warn("publish agency event", zap.Error(err))
		}
	}
}

func (h *Hub) broadcastLocal(agencyID uuid.UUID, event string, payload json.RawMessage) {
	msg := WSMessage{Event: event, Data: payload}

	h.mu.RLock()
	clients := h.rooms[agencyID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
