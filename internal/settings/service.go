// Package settings persists small host-side values, such as configuration
// overrides, in a key-value store.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
)

var ErrIncompleteOverrides = errors.New("overrides require portal id, hublet and environment")

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "settings")),
	}
}

// SaveOverrides stores o. Incomplete overrides are rejected.
func (s *Service) SaveOverrides(ctx context.Context, o Overrides) error {
	if !o.Complete() {
		return ErrIncompleteOverrides
	}
	values := map[string]string{
		KeyOverridePortalID:    strings.TrimSpace(o.PortalID),
		KeyOverrideHublet:      strings.TrimSpace(o.Hublet),
		KeyOverrideEnvironment: strings.TrimSpace(o.Environment),
	}
	for key, value := range values {
		if err := s.store.Set(ctx, key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	if flow := strings.TrimSpace(o.DefaultChatFlow); flow != "" {
		if err := s.store.Set(ctx, KeyOverrideDefaultChatFlow, flow); err != nil {
			return fmt.Errorf("save %s: %w", KeyOverrideDefaultChatFlow, err)
		}
	} else if err := s.store.Delete(ctx, KeyOverrideDefaultChatFlow); err != nil {
		return fmt.Errorf("delete %s: %w", KeyOverrideDefaultChatFlow, err)
	}
	s.logger.Info("config overrides saved", slog.String("portal_id", o.PortalID), slog.String("hublet", o.Hublet))
	return nil
}

// LoadOverrides returns whatever overrides are stored; missing keys stay
// empty.
func (s *Service) LoadOverrides(ctx context.Context) (Overrides, error) {
	var o Overrides
	fields := []struct {
		key string
		dst *string
	}{
		{KeyOverridePortalID, &o.PortalID},
		{KeyOverrideHublet, &o.Hublet},
		{KeyOverrideEnvironment, &o.Environment},
		{KeyOverrideDefaultChatFlow, &o.DefaultChatFlow},
	}
	for _, f := range fields {
		value, ok, err := s.store.Get(ctx, f.key)
		if err != nil {
			return Overrides{}, fmt.Errorf("load %s: %w", f.key, err)
		}
		if ok {
			*f.dst = value
		}
	}
	return o, nil
}

// ClearOverrides removes every stored override.
func (s *Service) ClearOverrides(ctx context.Context) error {
	return s.store.Delete(ctx, KeyOverridePortalID, KeyOverrideHublet, KeyOverrideEnvironment, KeyOverrideDefaultChatFlow)
}

// OverrideConfiguration returns the stored overrides as a configuration
// when they are complete.
func (s *Service) OverrideConfiguration(ctx context.Context) (config.Configuration, bool, error) {
	o, err := s.LoadOverrides(ctx)
	if err != nil {
		return config.Configuration{}, false, err
	}
	cfg, ok := o.Configuration()
	return cfg, ok, nil
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}
