package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
	"github.com/hubspot/mobile-chat-sdk-go/internal/notification"
)

// ChatHandler serves chat URLs and the stream of opened chat notifications.
type ChatHandler struct {
	logger  *slog.Logger
	manager *manager.Manager
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(log *slog.Logger, m *manager.Manager) *ChatHandler {
	return &ChatHandler{
		logger:  log.With(slog.String("handler", "chat")),
		manager: m,
	}
}

// Register registers chat routes.
func (h *ChatHandler) Register(e *echo.Echo) {
	group := e.Group("/chat")
	group.GET("/url", h.URL)
	group.GET("/events", h.StreamEvents)
}

// URL builds the embed URL. Query: chatflow (explicit flow), push_chatflow
// (flow carried by a push notification).
func (h *ChatHandler) URL(c echo.Context) error {
	var push *notification.ChatData
	if flow := strings.TrimSpace(c.QueryParam("push_chatflow")); flow != "" {
		push = &notification.ChatData{Chatflow: &flow}
	}
	u, err := h.manager.ChatURL(push, strings.TrimSpace(c.QueryParam("chatflow")))
	if err != nil {
		h.logger.Warn("chat url unavailable", slog.Any("error", err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": u.String()})
}

// StreamEvents streams opened chat notifications and SDK state changes as
// server-sent events.
func (h *ChatHandler) StreamEvents(c echo.Context) error {
	// Subscriptions must exist before the headers are flushed.
	_, chats, cancelChats := h.manager.NewMessages()
	defer cancelChats()
	_, changes, cancelChanges := h.manager.Subscribe()
	defer cancelChanges()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	writer := bufio.NewWriter(c.Response().Writer)
	flusher.Flush()

	writeEvent := func(name string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			h.logger.Warn("marshal event failed", slog.String("event", name), slog.Any("error", err))
			return nil
		}
		if _, err := writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", name, string(payload))); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case data, ok := <-chats:
			if !ok {
				return nil
			}
			if err := writeEvent("new_chat", data); err != nil {
				return nil // client disconnected
			}
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := writeEvent("change", change); err != nil {
				return nil
			}
		}
	}
}
