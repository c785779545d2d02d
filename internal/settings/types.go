package settings

import (
	"context"
	"strings"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
)

// Keys under which configuration overrides are stored.
const (
	KeyOverridePortalID        = "overridePortalId"
	KeyOverrideHublet          = "overrideHublet"
	KeyOverrideEnvironment     = "overrideEnv"
	KeyOverrideDefaultChatFlow = "overrideDefaultChatFlow"
)

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Overrides replace the file configuration for debugging against other
// portals or environments.
type Overrides struct {
	PortalID        string `json:"portal_id"`
	Hublet          string `json:"hublet"`
	Environment     string `json:"environment"`
	DefaultChatFlow string `json:"default_chat_flow,omitempty"`
}

// Complete reports whether portal id, hublet and a valid environment are
// all present. The default chat flow is optional.
func (o Overrides) Complete() bool {
	if strings.TrimSpace(o.PortalID) == "" || strings.TrimSpace(o.Hublet) == "" {
		return false
	}
	_, err := hublet.ParseEnvironment(o.Environment)
	return err == nil
}

// Configuration converts complete overrides. ok is false otherwise.
func (o Overrides) Configuration() (config.Configuration, bool) {
	if !o.Complete() {
		return config.Configuration{}, false
	}
	env, _ := hublet.ParseEnvironment(o.Environment)
	return config.Configuration{
		Environment:     env,
		Hublet:          strings.TrimSpace(o.Hublet),
		PortalID:        strings.TrimSpace(o.PortalID),
		DefaultChatFlow: strings.TrimSpace(o.DefaultChatFlow),
	}, true
}
