package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

const defaultHeartbeatInterval = 30 * time.Second

// ProfileReader loads the profile sent when a stream opens
type ProfileReader interface {
	Get(ctx context.Context, userID string) (*entities.UserProfile, error)
}

// SSEHandler streams a user's ledger events over Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	profiles  ProfileReader
	heartbeat time.Duration
	clients   map[string]int // user id -> open streams
	mu        sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, profiles ProfileReader) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		profiles:  profiles,
		heartbeat: defaultHeartbeatInterval,
		clients:   make(map[string]int),
	}
}

// WithHeartbeat overrides the heartbeat interval
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	h.heartbeat = interval
	return h
}

// StreamMyUpdates handles GET /api/stream/me. The first event carries the
// caller's current profile; later events carry post-commit totals.
func (h *SSEHandler) StreamMyUpdates(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, string(apperrors.ErrorTypeInternal), "streaming not supported")
		return
	}

	profile, err := h.profiles.Get(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	channel := providers.GetUserChannel(user.ID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "live updates are unavailable")
		return
	}

	h.registerClient(user.ID)
	defer h.unregisterClient(user.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.sendEvent(w, "connected", map[string]interface{}{
		"profile":   profile,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("user_id", user.ID).Msg("client disconnected from stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) registerClient(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID]++
}

func (h *SSEHandler) unregisterClient(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID]--
	if h.clients[userID] <= 0 {
		delete(h.clients, userID)
	}
}

// sendEvent writes one SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of open streams
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
