package notification

import (
	"log/slog"
	"sync"

	"github.com/hubspot/mobile-chat-sdk-go/internal/event"
)

// Router turns opened push notifications into "new chat opened" events.
// The host calls HandleOpened from its own notification delegate.
type Router struct {
	logger *slog.Logger
	hub    *event.Hub[ChatData]

	mu       sync.RWMutex
	callback func(ChatData)
}

// NewRouter creates a router publishing on its own hub.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		logger: log.With(slog.String("component", "push_router")),
		hub:    event.NewHub[ChatData](),
	}
}

// SetCallback installs an optional callback invoked for every chat
// notification before it is published. nil removes it.
func (r *Router) SetCallback(fn func(ChatData)) {
	r.mu.Lock()
	r.callback = fn
	r.mu.Unlock()
}

// HandleOpened classifies payload. Chat notifications reach the callback and
// all subscribers; anything else is logged, since it hints at a host
// forwarding notifications it does not own.
func (r *Router) HandleOpened(payload map[string]any, requestID string) (ChatData, bool) {
	if !IsChatNotification(payload) {
		r.logger.Info("push message is not a chat notification, this may be a misconfiguration",
			slog.String("request_id", requestID))
		return ChatData{}, false
	}
	data, ok := Extract(payload)
	if !ok {
		return ChatData{}, false
	}

	r.mu.RLock()
	cb := r.callback
	r.mu.RUnlock()
	if cb != nil {
		cb(data)
	}
	r.hub.Publish(data)
	return data, true
}

// Subscribe returns the stream of opened chat notifications.
func (r *Router) Subscribe() (string, <-chan ChatData, func()) {
	return r.hub.Subscribe()
}

// Close ends every subscription.
func (r *Router) Close() {
	r.hub.Close()
}
