// Package manager owns the SDK state: configuration, visitor identity, push
// token and chat properties. It coordinates the push token sync, chat URL
// construction and background API calls.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"sync"
	"time"

	"github.com/hubspot/mobile-chat-sdk-go/internal/api"
	"github.com/hubspot/mobile-chat-sdk-go/internal/chaturl"
	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/event"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
	"github.com/hubspot/mobile-chat-sdk-go/internal/identity"
	"github.com/hubspot/mobile-chat-sdk-go/internal/notification"
	"github.com/hubspot/mobile-chat-sdk-go/internal/properties"
	"github.com/hubspot/mobile-chat-sdk-go/internal/pushtoken"
)

const backgroundTimeout = 30 * time.Second

// Manager is the single owner of SDK state. Create one per application and
// pass it to the components that need it.
type Manager struct {
	logger    *slog.Logger
	backend   Backend
	finalizer *properties.Finalizer
	syncer    *pushtoken.Syncer
	router    *notification.Router
	changes   *event.Hub[Change]
	now       func() time.Time

	mu       sync.Mutex
	cfg      config.Configuration
	identity identity.UserIdentity
	props    map[string]string

	wg sync.WaitGroup
}

// New creates a manager with no configuration. devices may be nil.
func New(log *slog.Logger, backend Backend, devices properties.DeviceInfoProvider) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		logger:    log.With(slog.String("component", "manager")),
		backend:   backend,
		finalizer: properties.NewFinalizer(log, devices),
		router:    notification.NewRouter(log),
		changes:   event.NewHub[Change](),
		now:       time.Now,
		props:     map[string]string{},
	}
	m.syncer = pushtoken.NewSyncer(log, m.sendToken)
	return m
}

// SetClock replaces the time source of the manager and its token sync.
func (m *Manager) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	m.syncer.SetClock(now)
}

func (m *Manager) sendToken(ctx context.Context, token []byte, portalID string) error {
	h, ok := m.Hublet()
	if !ok {
		return config.ErrMissingConfiguration
	}
	if m.backend == nil {
		return fmt.Errorf("register device token: no backend")
	}
	return m.backend.RegisterDeviceToken(ctx, h, token, portalID)
}

// Configure replaces the configuration with literal values. It always
// succeeds.
func (m *Manager) Configure(cfg config.Configuration) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	m.logger.Info("configured",
		slog.String("portal_id", cfg.PortalID),
		slog.String("hublet", cfg.Hublet),
		slog.String("environment", cfg.Environment.String()))
	m.notify(ChangeConfiguration)
	m.SyncPushToken()
}

// LoadConfiguration loads src and applies it as a whole. On error nothing
// changes.
func (m *Manager) LoadConfiguration(src config.Source) error {
	if src == nil {
		return config.ErrMissingConfiguration
	}
	cfg, err := src.Load()
	if err != nil {
		return err
	}
	if !cfg.Complete() {
		return fmt.Errorf("%w: hublet and portal id are required", config.ErrMissingConfiguration)
	}
	m.Configure(cfg)
	return nil
}

// Configuration returns the current configuration.
func (m *Manager) Configuration() config.Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Hublet derives the hublet from the current configuration.
func (m *Manager) Hublet() (hublet.Hublet, bool) {
	return m.Configuration().HubletModel()
}

// SetUserIdentity stores the visitor identity. An empty token or email
// leaves the previous identity in place. It reports whether the identity
// was stored.
func (m *Manager) SetUserIdentity(token, email string) bool {
	id, ok := identity.New(token, email)
	if !ok {
		return false
	}
	m.mu.Lock()
	m.identity = id
	now := m.now()
	m.mu.Unlock()

	if identity.Expired(token, now) {
		m.logger.Warn("identity token is already expired", slog.String("email", email))
	}
	m.notify(ChangeIdentity)
	m.SyncPushToken()
	return true
}

// UserIdentity returns the stored identity, zero when unset.
func (m *Manager) UserIdentity() identity.UserIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// SetPushToken stores the platform push token and syncs it when possible.
// A different token restarts the sync from NotSent.
func (m *Manager) SetPushToken(token []byte) {
	if m.syncer.SetToken(token) {
		m.notify(ChangePushToken)
	}
	m.SyncPushToken()
}

// PushToken returns the stored token.
func (m *Manager) PushToken() []byte {
	return m.syncer.Token()
}

// PushTokenState returns the token sync state.
func (m *Manager) PushTokenState() pushtoken.SyncState {
	return m.syncer.State()
}

// SyncPushToken sends the token if one is stored, a portal id is configured
// and the sync state allows it.
func (m *Manager) SyncPushToken() bool {
	return m.syncer.SyncIfNeeded(m.Configuration().PortalID)
}

// SetChatProperties replaces the custom chat properties.
func (m *Manager) SetChatProperties(props map[string]string) {
	m.mu.Lock()
	m.props = maps.Clone(props)
	if m.props == nil {
		m.props = map[string]string{}
	}
	m.mu.Unlock()
	m.notify(ChangeChatProperties)
}

// ChatProperties returns a copy of the custom chat properties.
func (m *Manager) ChatProperties() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.props)
}

// FinalizeChatProperties merges the custom properties with the device facts
// of this moment.
func (m *Manager) FinalizeChatProperties(ctx context.Context) map[string]string {
	return m.finalizer.Finalize(ctx, m.ChatProperties(), m.syncer.Token())
}

// ChatURL builds the embed URL from the current state.
func (m *Manager) ChatURL(push *notification.ChatData, chatFlow string) (*url.URL, error) {
	m.mu.Lock()
	req := chaturl.Request{
		Config:   m.cfg,
		Identity: m.identity,
		Push:     push,
		ChatFlow: chatFlow,
	}
	m.mu.Unlock()
	return chaturl.Build(req)
}

// HandleThreadOpened sends the chat properties for threadID in the
// background. Without a portal id and hublet it does nothing.
func (m *Manager) HandleThreadOpened(threadID string) {
	m.mu.Lock()
	cfg := m.cfg
	id := m.identity
	m.mu.Unlock()

	h, ok := cfg.HubletModel()
	if !ok || cfg.PortalID == "" || m.backend == nil {
		return
	}

	m.goBackground(func(ctx context.Context) {
		err := m.backend.SendChatProperties(ctx, h, api.ChatPropertiesRequest{
			PortalID:     cfg.PortalID,
			ThreadID:     threadID,
			VisitorToken: id.Token,
			Email:        id.Email,
			Properties:   m.FinalizeChatProperties(ctx),
		})
		if err != nil {
			m.logger.Error("error sending chat properties", slog.String("thread_id", threadID), slog.Any("error", err))
		}
	})
}

// ClearUserData forgets identity and custom properties, and removes the
// push token from the backend when possible. The push token is cleared once
// the delete attempt settles, whatever its outcome.
func (m *Manager) ClearUserData() {
	m.syncer.Cancel()

	token := m.syncer.Token()
	m.mu.Lock()
	cfg := m.cfg
	m.identity = identity.UserIdentity{}
	m.props = map[string]string{}
	m.mu.Unlock()

	h, ok := cfg.HubletModel()
	if len(token) > 0 && ok && cfg.PortalID != "" {
		m.goBackground(func(ctx context.Context) {
			if m.backend == nil {
				m.logger.Error("error deleting push token from api", slog.String("error", "no backend"))
			} else if err := m.backend.DeleteDeviceToken(ctx, h, token, cfg.PortalID); err != nil {
				m.logger.Error("error deleting push token from api", slog.Any("error", err))
			}
			if m.syncer.ClearToken(token) {
				m.notify(ChangePushToken)
			}
		})
	}
	m.notify(ChangeUserDataCleared)
}

// AcquireUserIdentityToken creates a visitor token with an app access token.
// Development only: access tokens do not belong in shipped apps.
func (m *Manager) AcquireUserIdentityToken(ctx context.Context, accessToken, email, firstName, lastName string) (string, error) {
	h, ok := m.Hublet()
	if !ok {
		return "", config.ErrMissingConfiguration
	}
	if m.backend == nil {
		return "", fmt.Errorf("create visitor token: no backend")
	}
	return m.backend.CreateVisitorToken(ctx, h, api.VisitorTokenRequest{
		AccessToken: accessToken,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
	})
}

// Router returns the push router whose stream carries opened chat
// notifications.
func (m *Manager) Router() *notification.Router {
	return m.router
}

// NewMessages subscribes to opened chat notifications.
func (m *Manager) NewMessages() (string, <-chan notification.ChatData, func()) {
	return m.router.Subscribe()
}

// Subscribe returns the change notification stream.
func (m *Manager) Subscribe() (string, <-chan Change, func()) {
	return m.changes.Subscribe()
}

// Snapshot returns a summary of the state for display.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	cfg := m.cfg
	id := m.identity
	n := len(m.props)
	m.mu.Unlock()

	snap := Snapshot{
		Environment:     cfg.Environment.String(),
		Hublet:          cfg.Hublet,
		PortalID:        cfg.PortalID,
		DefaultChatFlow: cfg.DefaultChatFlow,
		HasIdentity:     id.Valid(),
		Email:           id.Email,
		PushTokenState:  m.syncer.State().String(),
		ChatProperties:  n,
	}
	if token := m.syncer.Token(); len(token) > 0 {
		snap.PushToken = pushtoken.EncodeHex(token)
	}
	return snap
}

// Wait blocks until every background call started so far has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
	m.syncer.Wait()
}

// Close cancels the token sync, waits for background work and ends every
// stream.
func (m *Manager) Close() {
	m.syncer.Cancel()
	m.Wait()
	m.changes.Close()
	m.router.Close()
}

func (m *Manager) goBackground(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (m *Manager) notify(kind ChangeKind) {
	m.mu.Lock()
	now := m.now()
	m.mu.Unlock()
	m.changes.Publish(Change{Kind: kind, At: now})
}
