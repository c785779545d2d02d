package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/notification"
)

// ErrNavigationCancelled is reported by a navigator when a load was
// cancelled, for example because a newer load replaced it.
var ErrNavigationCancelled = errors.New("navigation cancelled")

// LoadState tracks the main navigation of one view.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Finished
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return "not_loaded"
	}
}

// DisplayState is what the chat surface should show.
type DisplayState string

const (
	DisplayLoading              DisplayState = "loading"
	DisplayReady                DisplayState = "ready"
	DisplayMissingConfiguration DisplayState = "missing_configuration"
	DisplayMissingChatFlow      DisplayState = "missing_chat_flow"
	DisplayFailedToLoad         DisplayState = "failed_to_load"
)

// URLSource builds the chat URL for a session.
type URLSource interface {
	ChatURL(push *notification.ChatData, chatFlow string) (*url.URL, error)
}

// Navigator loads a URL in the host web view. navID identifies the
// navigation in later DidCommit, DidFinish and DidFail calls.
type Navigator interface {
	Load(navID string, u *url.URL)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(navID string, u *url.URL)

// Load implements Navigator.
func (f NavigatorFunc) Load(navID string, u *url.URL) { f(navID, u) }

// Session is the state of one embedded chat view.
type Session struct {
	id       string
	logger   *slog.Logger
	source   URLSource
	push     *notification.ChatData
	chatFlow string

	mu           sync.Mutex
	state        LoadState
	mainNav      string
	configErr    error
	widgetLoaded bool
	url          *url.URL
}

// NewSession creates a session for the given push data and flow, both
// optional.
func NewSession(log *slog.Logger, source URLSource, push *notification.ChatData, chatFlow string) *Session {
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		logger:   log.With(slog.String("component", "chat_session"), slog.String("session_id", id)),
		source:   source,
		push:     push,
		chatFlow: chatFlow,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Load starts the main navigation when one is due. Once the session has
// finished, failed, or hit a configuration error, later triggers are
// ignored so a broken URL cannot cause a reload loop. It reports whether a
// navigation was started.
func (s *Session) Load(nav Navigator) bool {
	s.mu.Lock()
	if s.state == Failed || s.state == Finished || s.configErr != nil {
		s.mu.Unlock()
		return false
	}

	u, err := s.source.ChatURL(s.push, s.chatFlow)
	if err != nil {
		if errors.Is(err, config.ErrMissingConfiguration) || errors.Is(err, config.ErrMissingChatFlow) {
			s.configErr = err
		}
		s.mu.Unlock()
		s.logger.Error("unable to load chat, view will be blank", slog.Any("error", err))
		return false
	}

	navID := uuid.NewString()
	s.state = Loading
	s.url = u
	s.mainNav = navID
	s.mu.Unlock()

	nav.Load(navID, u)
	return true
}

// DidCommit marks the main navigation as loading.
func (s *Session) DidCommit(navID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isMainLocked(navID) {
		s.state = Loading
	}
}

// DidFinish marks the main navigation as finished.
func (s *Session) DidFinish(navID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isMainLocked(navID) {
		s.state = Finished
	}
}

// DidFail records a failed main navigation. Cancellations are transient and
// leave the state alone.
func (s *Session) DidFail(navID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isMainLocked(navID) {
		return
	}
	if errors.Is(err, ErrNavigationCancelled) || errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Warn("chat failed to load", slog.Any("error", err))
	s.state = Failed
}

func (s *Session) isMainLocked(navID string) bool {
	return navID != "" && navID == s.mainNav
}

// DidLoadWidget records the widget-loaded marker from the page.
func (s *Session) DidLoadWidget() {
	s.mu.Lock()
	s.widgetLoaded = true
	s.mu.Unlock()
}

// WidgetLoaded reports whether the page said the widget loaded.
func (s *Session) WidgetLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.widgetLoaded
}

// State returns the main navigation state.
func (s *Session) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// URL returns the URL of the main navigation, nil before Load succeeds.
func (s *Session) URL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// ConfigError returns the configuration error that blocked loading.
func (s *Session) ConfigError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configErr
}

// Display maps the session to what the chat surface shows.
func (s *Session) Display() DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(s.configErr, config.ErrMissingChatFlow):
		return DisplayMissingChatFlow
	case s.configErr != nil:
		return DisplayMissingConfiguration
	case s.state == Failed:
		return DisplayFailedToLoad
	case s.state == Finished:
		return DisplayReady
	default:
		return DisplayLoading
	}
}
