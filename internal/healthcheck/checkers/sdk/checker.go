package sdkchecker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/healthcheck"
	"github.com/hubspot/mobile-chat-sdk-go/internal/identity"
	"github.com/hubspot/mobile-chat-sdk-go/internal/pushtoken"
)

const (
	checkTypeConfiguration = "sdk.configuration"
	checkTypePushToken     = "sdk.push_token"
	checkTypeIdentity      = "sdk.identity"
)

// StateReader reads the SDK state under check.
type StateReader interface {
	Configuration() config.Configuration
	UserIdentity() identity.UserIdentity
	PushToken() []byte
	PushTokenState() pushtoken.SyncState
}

// Checker evaluates configuration, push token and identity checks.
type Checker struct {
	logger *slog.Logger
	state  StateReader
	now    func() time.Time
}

// NewChecker creates an SDK health checker.
func NewChecker(log *slog.Logger, state StateReader) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger: log.With(slog.String("checker", "healthcheck_sdk")),
		state:  state,
		now:    time.Now,
	}
}

// ListChecks evaluates the SDK state.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	if c.state == nil {
		c.logger.Warn("sdk healthcheck dependency is unavailable")
		return []healthcheck.CheckResult{
			{
				ID:      checkTypeConfiguration + ".service",
				Type:    checkTypeConfiguration,
				Status:  healthcheck.StatusWarn,
				Summary: "SDK state is not available.",
				Detail:  "state reader is nil",
			},
		}
	}
	return []healthcheck.CheckResult{
		c.configurationCheck(),
		c.pushTokenCheck(),
		c.identityCheck(),
	}
}

func (c *Checker) configurationCheck() healthcheck.CheckResult {
	cfg := c.state.Configuration()
	item := healthcheck.CheckResult{
		ID:      checkTypeConfiguration,
		Type:    checkTypeConfiguration,
		Status:  healthcheck.StatusError,
		Summary: "SDK is not configured.",
		Detail:  config.ErrMissingConfiguration.Error(),
	}
	if !cfg.Complete() {
		return item
	}
	item.Status = healthcheck.StatusOK
	item.Summary = "SDK is configured."
	item.Detail = ""
	item.Metadata = map[string]any{
		"portal_id":   cfg.PortalID,
		"hublet":      cfg.Hublet,
		"environment": cfg.Environment.String(),
	}
	if cfg.DefaultChatFlow == "" {
		item.Status = healthcheck.StatusWarn
		item.Summary = "SDK is configured without a default chat flow."
	}
	return item
}

func (c *Checker) pushTokenCheck() healthcheck.CheckResult {
	item := healthcheck.CheckResult{
		ID:      checkTypePushToken,
		Type:    checkTypePushToken,
		Status:  healthcheck.StatusUnknown,
		Summary: "No push token set.",
	}
	if len(c.state.PushToken()) == 0 {
		return item
	}
	state := c.state.PushTokenState()
	item.Metadata = map[string]any{"state": state.String()}
	switch state.Phase {
	case pushtoken.Sent:
		item.Status = healthcheck.StatusOK
		item.Summary = "Push token is registered."
	case pushtoken.Sending:
		item.Summary = "Push token registration in progress."
	default:
		item.Status = healthcheck.StatusWarn
		item.Summary = "Push token is not registered."
	}
	return item
}

func (c *Checker) identityCheck() healthcheck.CheckResult {
	id := c.state.UserIdentity()
	item := healthcheck.CheckResult{
		ID:      checkTypeIdentity,
		Type:    checkTypeIdentity,
		Status:  healthcheck.StatusOK,
		Summary: "Visitor is anonymous.",
	}
	if !id.Valid() {
		return item
	}
	item.Summary = "Visitor is identified."
	if exp, err := identity.TokenExpiry(id.Token); err == nil {
		item.Metadata = map[string]any{"expires_at": exp.UTC().Format(time.RFC3339)}
		if !exp.After(c.now()) {
			item.Status = healthcheck.StatusWarn
			item.Summary = "Visitor identification token has expired."
		}
	}
	return item
}
