package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hubspot/mobile-chat-sdk-go/internal/healthcheck"
	sdkchecker "github.com/hubspot/mobile-chat-sdk-go/internal/healthcheck/checkers/sdk"
	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
)

type PingHandler struct {
	logger   *slog.Logger
	manager  *manager.Manager
	checkers []healthcheck.Checker
}

func NewPingHandler(log *slog.Logger, m *manager.Manager) *PingHandler {
	return &PingHandler{
		logger:   log.With(slog.String("handler", "ping")),
		manager:  m,
		checkers: []healthcheck.Checker{sdkchecker.NewChecker(log, m)},
	}
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
	e.GET("/health/checks", h.Checks)
}

func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"configured": h.manager.Configuration().Complete(),
	})
}

func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Checks runs the SDK health checks. The status code stays 200; the body
// carries the verdict.
func (h *PingHandler) Checks(c echo.Context) error {
	return c.JSON(http.StatusOK, healthcheck.Run(c.Request().Context(), h.checkers...))
}
