package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hubspot/mobile-chat-sdk-go/internal/api"
	"github.com/hubspot/mobile-chat-sdk-go/internal/bridge"
	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/settings"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	State string `json:"state,omitempty"`
}

// httpError maps SDK errors to status codes. Configuration problems carry
// the display state the chat surface would show.
func httpError(err error) *echo.HTTPError {
	var reqErr *api.RequestError
	var respErr *api.ResponseError
	switch {
	case errors.Is(err, config.ErrMissingChatFlow):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), State: string(bridge.DisplayMissingChatFlow)})
	case errors.Is(err, config.ErrMissingConfiguration):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), State: string(bridge.DisplayMissingConfiguration)})
	case errors.Is(err, settings.ErrIncompleteOverrides), errors.As(err, &reqErr):
		return echo.NewHTTPError(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &respErr):
		return echo.NewHTTPError(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
