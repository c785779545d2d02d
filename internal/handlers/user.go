package handlers

import (
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
)

// UserHandler manages visitor identity, chat properties and push tokens.
type UserHandler struct {
	logger  *slog.Logger
	manager *manager.Manager
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(log *slog.Logger, m *manager.Manager) *UserHandler {
	return &UserHandler{
		logger:  log.With(slog.String("handler", "user")),
		manager: m,
	}
}

// Register registers user routes.
func (h *UserHandler) Register(e *echo.Echo) {
	e.PUT("/identity", h.SetIdentity)
	e.POST("/identity/token", h.AcquireToken)
	e.GET("/properties", h.GetProperties)
	e.PUT("/properties", h.SetProperties)
	e.PUT("/push/token", h.SetPushToken)
	e.POST("/push/notifications", h.OpenNotification)
	e.DELETE("/user-data", h.ClearUserData)
}

type identityRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type acquireTokenRequest struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	// Apply sets the returned token as the visitor identity.
	Apply bool `json:"apply"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

type notificationRequest struct {
	RequestID string         `json:"request_id"`
	Payload   map[string]any `json:"payload"`
}

// SetIdentity stores the visitor identity. Both fields must be non-empty.
func (h *UserHandler) SetIdentity(c echo.Context) error {
	var req identityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !h.manager.SetUserIdentity(req.Token, req.Email) {
		return echo.NewHTTPError(http.StatusBadRequest, "token and email are required")
	}
	return c.NoContent(http.StatusNoContent)
}

// AcquireToken exchanges an app access token for a visitor token.
func (h *UserHandler) AcquireToken(c echo.Context) error {
	var req acquireTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.AccessToken) == "" || strings.TrimSpace(req.Email) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "access_token and email are required")
	}
	token, err := h.manager.AcquireUserIdentityToken(c.Request().Context(), req.AccessToken, req.Email, req.FirstName, req.LastName)
	if err != nil {
		h.logger.Error("acquire visitor token failed", slog.Any("error", err))
		return httpError(err)
	}
	if req.Apply {
		h.manager.SetUserIdentity(token, req.Email)
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// GetProperties returns the custom chat properties.
func (h *UserHandler) GetProperties(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.ChatProperties())
}

// SetProperties replaces the custom chat properties.
func (h *UserHandler) SetProperties(c echo.Context) error {
	var props map[string]string
	if err := c.Bind(&props); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.manager.SetChatProperties(props)
	return c.NoContent(http.StatusNoContent)
}

// SetPushToken stores a hex encoded device token.
func (h *UserHandler) SetPushToken(c echo.Context) error {
	var req pushTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, err := hex.DecodeString(strings.TrimSpace(req.Token))
	if err != nil || len(token) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "token must be non-empty hex")
	}
	h.manager.SetPushToken(token)
	return c.JSON(http.StatusAccepted, map[string]string{"state": h.manager.PushTokenState().String()})
}

// OpenNotification routes an opened notification payload. Chat
// notifications are published on the new chat stream.
func (h *UserHandler) OpenNotification(c echo.Context) error {
	var req notificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, ok := h.manager.Router().HandleOpened(req.Payload, req.RequestID)
	return c.JSON(http.StatusOK, map[string]any{
		"handled": ok,
		"data":    data,
	})
}

// ClearUserData forgets identity, properties and, in the background, the
// registered push token.
func (h *UserHandler) ClearUserData(c echo.Context) error {
	h.manager.ClearUserData()
	return c.NoContent(http.StatusNoContent)
}
