package bridge

import (
	"log/slog"

	"github.com/hubspot/mobile-chat-sdk-go/internal/event"
)

// ThreadOpener is told when the page reports the open thread.
type ThreadOpener interface {
	HandleThreadOpened(threadID string)
}

// Handler is the native end of the page message channel. Every message is
// also published on its message stream.
type Handler struct {
	logger  *slog.Logger
	threads ThreadOpener
	session *Session
	hub     *event.Hub[Message]
}

// NewHandler creates a handler. session may be nil.
func NewHandler(log *slog.Logger, threads ThreadOpener, session *Session) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		logger:  log.With(slog.String("component", "bridge")),
		threads: threads,
		session: session,
		hub:     event.NewHub[Message](),
	}
}

// HandleMessage processes one page message body. Bodies that are not
// objects carry nothing to act on.
func (h *Handler) HandleMessage(body any) (Message, bool) {
	dict, ok := body.(map[string]any)
	if !ok {
		return Message{}, false
	}
	msg := Parse(dict)
	h.dispatch(msg)
	return msg, true
}

// HandleRaw decodes a JSON body and processes it.
func (h *Handler) HandleRaw(raw []byte) (Message, error) {
	msg, err := Decode(raw)
	if err != nil {
		return Message{}, err
	}
	h.dispatch(msg)
	return msg, nil
}

func (h *Handler) dispatch(msg Message) {
	switch msg.Kind {
	case KindInfo:
		h.logger.Debug("bridge info", slog.String("info", msg.Info))
	case KindWidgetLoaded:
		if h.session != nil {
			h.session.DidLoadWidget()
		}
	case KindThreadOpened:
		h.logger.Info("thread opened", slog.String("thread_id", msg.ThreadID))
		if h.threads != nil {
			h.threads.HandleThreadOpened(msg.ThreadID)
		}
	}
	h.hub.Publish(msg)
}

// Subscribe returns the stream of page messages.
func (h *Handler) Subscribe() (string, <-chan Message, func()) {
	return h.hub.Subscribe()
}

// Close ends every message subscription.
func (h *Handler) Close() {
	h.hub.Close()
}
