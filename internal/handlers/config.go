package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
	"github.com/hubspot/mobile-chat-sdk-go/internal/settings"
)

// ConfigHandler applies, reloads and overrides the SDK configuration.
type ConfigHandler struct {
	logger   *slog.Logger
	manager  *manager.Manager
	settings *settings.Service
	source   config.Source
}

// NewConfigHandler creates a ConfigHandler. source is what POST
// /config/reload reads when no overrides are stored.
func NewConfigHandler(log *slog.Logger, m *manager.Manager, svc *settings.Service, source config.Source) *ConfigHandler {
	return &ConfigHandler{
		logger:   log.With(slog.String("handler", "config")),
		manager:  m,
		settings: svc,
		source:   source,
	}
}

// Register registers config routes.
func (h *ConfigHandler) Register(e *echo.Echo) {
	group := e.Group("/config")
	group.GET("", h.Get)
	group.PUT("", h.Put)
	group.POST("/reload", h.Reload)
	group.DELETE("/overrides", h.ClearOverrides)
}

type putConfigRequest struct {
	settings.Overrides
	// Persist stores the values as overrides so they survive a restart.
	Persist bool `json:"persist"`
}

// Get returns the current state snapshot.
func (h *ConfigHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Snapshot())
}

// Put configures the SDK with literal values.
func (h *ConfigHandler) Put(c echo.Context) error {
	var req putConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg, ok := req.Overrides.Configuration()
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "portal_id, hublet and a valid environment are required")
	}
	if req.Persist && h.settings != nil {
		if err := h.settings.SaveOverrides(c.Request().Context(), req.Overrides); err != nil {
			return httpError(err)
		}
	}
	h.manager.Configure(cfg)
	return c.JSON(http.StatusOK, h.manager.Snapshot())
}

// Reload applies stored overrides when present, else the configured source.
func (h *ConfigHandler) Reload(c echo.Context) error {
	if h.settings != nil {
		cfg, ok, err := h.settings.OverrideConfiguration(c.Request().Context())
		if err != nil {
			return httpError(err)
		}
		if ok {
			h.manager.Configure(cfg)
			return c.JSON(http.StatusOK, h.manager.Snapshot())
		}
	}
	if h.source == nil {
		return httpError(config.ErrMissingConfiguration)
	}
	if err := h.manager.LoadConfiguration(h.source); err != nil {
		h.logger.Warn("reload configuration failed", slog.Any("error", err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, h.manager.Snapshot())
}

// ClearOverrides removes stored overrides. The active configuration is left
// as is until the next reload.
func (h *ConfigHandler) ClearOverrides(c echo.Context) error {
	if h.settings == nil {
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.settings.ClearOverrides(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
