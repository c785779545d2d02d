package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/hubspot/mobile-chat-sdk-go/internal/bridge"
	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
	"github.com/hubspot/mobile-chat-sdk-go/internal/notification"
)

const bridgeReadLimit = 64 * 1024

// Frame types exchanged on the bridge socket.
const (
	frameSetup        = "setup"
	frameLoad         = "load"
	frameState        = "state"
	frameMessage      = "message"
	frameNavigation   = "navigation"
	framePolicy       = "policy"
	frameOpenExternal = "open_external"
	frameReload       = "reload"
	frameError        = "error"
)

// inboundFrame is sent by the web view host.
type inboundFrame struct {
	Type string `json:"type"`
	// message
	Body json.RawMessage `json:"body,omitempty"`
	// navigation: event is commit, finish or fail
	Event     string `json:"event,omitempty"`
	NavID     string `json:"nav_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	// policy
	ID              string `json:"id,omitempty"`
	NavigationType  string `json:"navigation_type,omitempty"`
	TargetMainFrame bool   `json:"target_main_frame,omitempty"`
	URL             string `json:"url,omitempty"`
}

// outboundFrame is sent to the web view host.
type outboundFrame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Handler   string          `json:"handler,omitempty"`
	Scripts   []string        `json:"scripts,omitempty"`
	NavID     string          `json:"nav_id,omitempty"`
	URL       string          `json:"url,omitempty"`
	ID        string          `json:"id,omitempty"`
	Decision  string          `json:"decision,omitempty"`
	State     string          `json:"state,omitempty"`
	Display   string          `json:"display,omitempty"`
	Message   *bridge.Message `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// BridgeHandler drives one chat session per websocket connection. The peer
// plays the web view: it runs the injected scripts, loads the URLs it is
// told to, and forwards page messages and navigation events.
type BridgeHandler struct {
	logger   *slog.Logger
	manager  *manager.Manager
	upgrader websocket.Upgrader
}

// NewBridgeHandler creates a BridgeHandler. An empty allowedOrigins list
// accepts any origin.
func NewBridgeHandler(log *slog.Logger, m *manager.Manager, allowedOrigins []string) *BridgeHandler {
	return &BridgeHandler{
		logger:   log.With(slog.String("handler", "bridge")),
		manager:  m,
		upgrader: makeUpgrader(allowedOrigins),
	}
}

func makeUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || originSet[origin]
		},
	}
}

// Register registers the bridge route.
func (h *BridgeHandler) Register(e *echo.Echo) {
	e.GET("/bridge/ws", h.Serve)
}

// Serve upgrades the connection and runs the session until the peer goes
// away. Query: chatflow, push_chatflow, thread_id.
func (h *BridgeHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(bridgeReadLimit)

	var push *notification.ChatData
	if flow := strings.TrimSpace(c.QueryParam("push_chatflow")); flow != "" {
		push = &notification.ChatData{Chatflow: &flow}
		if thread := strings.TrimSpace(c.QueryParam("thread_id")); thread != "" {
			push.ThreadID = &thread
		}
	}
	session := bridge.NewSession(h.logger, h.manager, push, strings.TrimSpace(c.QueryParam("chatflow")))
	messages := bridge.NewHandler(h.logger, h.manager, session)
	defer messages.Close()

	log := h.logger.With(slog.String("session_id", session.ID()))
	bc := &bridgeConn{conn: conn, logger: log, session: session, messages: messages}
	return bc.run()
}

type bridgeConn struct {
	conn     *websocket.Conn
	logger   *slog.Logger
	session  *bridge.Session
	messages *bridge.Handler
}

func (b *bridgeConn) run() error {
	if err := b.write(outboundFrame{
		Type:      frameSetup,
		SessionID: b.session.ID(),
		Handler:   bridge.HandlerName,
		Scripts:   bridge.Scripts(),
	}); err != nil {
		return nil
	}
	if err := b.load(); err != nil {
		return nil
	}

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("bridge read failed", slog.Any("error", err))
			}
			return nil
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			if err := b.write(outboundFrame{Type: frameError, Error: "invalid frame"}); err != nil {
				return nil
			}
			continue
		}
		if err := b.handle(frame); err != nil {
			return nil
		}
	}
}

func (b *bridgeConn) handle(frame inboundFrame) error {
	switch frame.Type {
	case frameMessage:
		msg, err := b.messages.HandleRaw(frame.Body)
		if err != nil {
			b.logger.Debug("ignoring page message", slog.Any("error", err))
			return nil
		}
		return b.write(outboundFrame{Type: frameMessage, Message: &msg})
	case frameNavigation:
		switch frame.Event {
		case "commit":
			b.session.DidCommit(frame.NavID)
		case "finish":
			b.session.DidFinish(frame.NavID)
		case "fail":
			err := errors.New(frame.Error)
			if frame.Cancelled {
				err = bridge.ErrNavigationCancelled
			}
			b.session.DidFail(frame.NavID, err)
		default:
			return b.write(outboundFrame{Type: frameError, Error: "unknown navigation event"})
		}
		return b.writeState()
	case framePolicy:
		return b.decide(frame)
	case frameReload:
		return b.load()
	default:
		return b.write(outboundFrame{Type: frameError, Error: "unknown frame type"})
	}
}

// load asks the session to navigate and reports the resulting state.
func (b *bridgeConn) load() error {
	var navErr error
	b.session.Load(bridge.NavigatorFunc(func(navID string, u *url.URL) {
		navErr = b.write(outboundFrame{Type: frameLoad, NavID: navID, URL: u.String()})
	}))
	if navErr != nil {
		return navErr
	}
	return b.writeState()
}

func (b *bridgeConn) decide(frame inboundFrame) error {
	action := bridge.NavigationAction{
		Type:            parseNavigationType(frame.NavigationType),
		TargetMainFrame: frame.TargetMainFrame,
	}
	if frame.URL != "" {
		u, err := url.Parse(frame.URL)
		if err != nil {
			return b.write(outboundFrame{Type: frameError, ID: frame.ID, Error: "invalid url"})
		}
		action.URL = u
	}

	var external *url.URL
	policy := bridge.DecideNavigation(action, func(u *url.URL) { external = u })
	if external != nil {
		if err := b.write(outboundFrame{Type: frameOpenExternal, URL: external.String()}); err != nil {
			return err
		}
	}
	return b.write(outboundFrame{Type: framePolicy, ID: frame.ID, Decision: policy.String()})
}

func (b *bridgeConn) writeState() error {
	frame := outboundFrame{
		Type:    frameState,
		State:   b.session.State().String(),
		Display: string(b.session.Display()),
	}
	if err := b.session.ConfigError(); err != nil {
		frame.Error = err.Error()
	}
	return b.write(frame)
}

func (b *bridgeConn) write(frame outboundFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func parseNavigationType(s string) bridge.NavigationType {
	switch s {
	case "link":
		return bridge.NavigationLinkActivated
	case "form_submit":
		return bridge.NavigationFormSubmitted
	case "back_forward":
		return bridge.NavigationBackForward
	case "reload":
		return bridge.NavigationReload
	case "form_resubmit":
		return bridge.NavigationFormResubmitted
	default:
		return bridge.NavigationOther
	}
}
