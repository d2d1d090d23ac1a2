package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/holden/retroboard/internal/database/models"
)

// EventSessionUpdated is published whenever a session's display name,
// team linkage, or account linkage changes.
const EventSessionUpdated = "session_updated"

type Event struct {
	Type    string          `json:"type"`
	Session *models.Session `json:"session"`
}

const subscriberBuffer = 16

// Hub is the connection registry for the realtime adapter layer. The
// session service publishes through it; transport handlers (SSE) consume
// it. Slow subscribers lose events instead of blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan Event
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
// The caller must Unsubscribe when done.
func (h *Hub) Subscribe() (uuid.UUID, <-chan Event) {
	id := uuid.New()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	return id, ch
}

func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

// SessionUpdated broadcasts a session change to all subscribers.
// Implements the session service's Notifier.
func (h *Hub) SessionUpdated(s *models.Session) {
	h.publish(Event{Type: EventSessionUpdated, Session: s})
}

func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropping event for slow subscriber", "subscriber", id, "type", ev.Type)
		}
	}
}

// SubscriberCount reports how many clients are currently connected.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
