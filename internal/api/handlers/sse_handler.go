package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
)

const defaultHeartbeat = 30 * time.Second

// SlotEventSource streams booking events for one doctor
type SlotEventSource interface {
	Events(ctx context.Context, doctorID string) (<-chan *entities.BookingEvent, error)
}

// SSEHandler pushes slot changes to open slot pickers
type SSEHandler struct {
	source    SlotEventSource
	heartbeat time.Duration
	clients   atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(source SlotEventSource) *SSEHandler {
	return &SSEHandler{source: source, heartbeat: defaultHeartbeat, done: make(chan struct{})}
}

// Shutdown ends every open stream
func (h *SSEHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
}

// WithHeartbeat overrides the keep-alive interval
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	if interval > 0 {
		h.heartbeat = interval
	}
	return h
}

// StreamSlotUpdates handles SSE connections for a doctor's slot changes.
// An optional ?date= narrows the stream to one calendar day.
// GET /api/doctors/{id}/slots/stream
func (h *SSEHandler) StreamSlotUpdates(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(entities.BookingDateLayout, date); err != nil {
			respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := h.source.Events(ctx, doctorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if events == nil {
		respondWithError(w, http.StatusServiceUnavailable, "live slot updates are not enabled")
		return
	}

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	logger := observability.LoggerFromContext(ctx)
	h.clients.Add(1)
	defer h.clients.Add(-1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.sendEvent(w, "connected", map[string]interface{}{
		"doctor_id": doctorID,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("doctor_id", doctorID).Msg("Client disconnected from slot stream")
			return
		case <-h.done:
			h.sendEvent(w, "shutdown", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil || (date != "" && event.Date != date) {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// sendEvent writes one SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected stream clients
func (h *SSEHandler) ClientCount() int {
	return int(h.clients.Load())
}
