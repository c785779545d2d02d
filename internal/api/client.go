// Package api is a thin client for the chat SDK REST endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
	"github.com/hubspot/mobile-chat-sdk-go/internal/pushtoken"
)

const (
	deviceTokenPath  = "livechat-public/v1/mobile-sdk/device-token"
	metadataPath     = "livechat-public/v1/mobile-sdk/metadata"
	visitorTokenPath = "conversations/v3/visitor-identification/tokens/create"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client talks to the API host of a hublet.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client

	mu      sync.RWMutex
	debug   bool
	baseURL string
}

// NewClient creates a client. A nil httpClient gets a default with a timeout.
func NewClient(log *slog.Logger, httpClient *http.Client) *Client {
	if log == nil {
		log = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		logger:     log.With(slog.String("component", "api")),
		httpClient: httpClient,
	}
}

// SetDebug enables debug-level logging of response bodies.
func (c *Client) SetDebug(enabled bool) {
	c.mu.Lock()
	c.debug = enabled
	c.mu.Unlock()
}

// SetBaseURL overrides the hublet API base URL. Empty restores the default.
func (c *Client) SetBaseURL(base string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	c.mu.Unlock()
}

func (c *Client) settings() (bool, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debug, c.baseURL
}

// RegisterDeviceToken stores the push token for portalID.
func (c *Client) RegisterDeviceToken(ctx context.Context, h hublet.Hublet, token []byte, portalID string) error {
	const op = "register device token"
	if len(token) == 0 {
		return &RequestError{Op: op, Err: errors.New("token is required")}
	}
	endpoint, err := c.endpoint(op, h, []string{deviceTokenPath}, url.Values{"portalId": {portalID}})
	if err != nil {
		return err
	}
	body := storeDeviceTokenRequest{DevicePushToken: pushtoken.EncodeHex(token), Platform: Platform}
	resp, err := c.doJSON(ctx, c.httpClient, op, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	c.logBody(op, resp)
	return nil
}

// DeleteDeviceToken removes the push token for portalID.
func (c *Client) DeleteDeviceToken(ctx context.Context, h hublet.Hublet, token []byte, portalID string) error {
	const op = "delete device token"
	if len(token) == 0 {
		return &RequestError{Op: op, Err: errors.New("token is required")}
	}
	endpoint, err := c.endpoint(op, h, []string{deviceTokenPath, pushtoken.EncodeHex(token)}, url.Values{"portalId": {portalID}})
	if err != nil {
		return err
	}
	resp, err := c.doJSON(ctx, c.httpClient, op, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	c.logBody(op, resp)
	return nil
}

// SendChatProperties posts chat metadata for a thread.
func (c *Client) SendChatProperties(ctx context.Context, h hublet.Hublet, req ChatPropertiesRequest) error {
	const op = "send chat properties"
	if req.ThreadID == "" {
		return &RequestError{Op: op, Err: errors.New("thread id is required")}
	}
	endpoint, err := c.endpoint(op, h, []string{metadataPath}, url.Values{
		"portalId": {req.PortalID},
		"threadId": {req.ThreadID},
	})
	if err != nil {
		return err
	}
	metadata := req.Properties
	if metadata == nil {
		metadata = map[string]string{}
	}
	body := chatPropertyMetadataRequest{
		VisitorToken: optional(req.VisitorToken),
		Email:        optional(req.Email),
		Metadata:     metadata,
	}
	resp, err := c.doJSON(ctx, c.httpClient, op, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	c.logBody(op, resp)
	return nil
}

// CreateVisitorToken asks the backend for a visitor identification token,
// authenticating with the app access token. Intended for development only:
// shipping an access token inside an app exposes it.
func (c *Client) CreateVisitorToken(ctx context.Context, h hublet.Hublet, req VisitorTokenRequest) (string, error) {
	const op = "create visitor token"
	if strings.TrimSpace(req.AccessToken) == "" {
		return "", &RequestError{Op: op, Err: errors.New("access token is required")}
	}
	endpoint, err := c.endpoint(op, h, []string{visitorTokenPath}, nil)
	if err != nil {
		return "", err
	}

	authed := &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: req.AccessToken, TokenType: "Bearer"}),
			Base:   c.httpClient.Transport,
		},
	}
	body := createVisitorTokenRequest{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}
	resp, err := c.doJSON(ctx, authed, op, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}

	var parsed createVisitorTokenResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		c.logger.Error("failed to decode visitor token response", slog.Any("error", err), slog.String("body_prefix", truncate(string(resp), 300)))
		return "", &ResponseError{Op: op, StatusCode: http.StatusOK, Body: string(resp), Err: err}
	}
	if parsed.Token == "" {
		return "", &ResponseError{Op: op, StatusCode: http.StatusOK, Body: string(resp), Err: errors.New("response has no token")}
	}
	return parsed.Token, nil
}

func (c *Client) endpoint(op string, h hublet.Hublet, segments []string, query url.Values) (string, error) {
	_, base := c.settings()
	if base == "" {
		if h.ID == "" {
			return "", &RequestError{Op: op, Err: errors.New("hublet is required")}
		}
		base = h.APIBaseURL()
	}
	for key, values := range query {
		if len(values) == 0 || values[0] == "" {
			return "", &RequestError{Op: op, Err: fmt.Errorf("%s is required", key)}
		}
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("invalid base url %q", base)
		}
		return "", &RequestError{Op: op, Err: err}
	}
	u = u.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) doJSON(ctx context.Context, client *http.Client, op, method, endpoint string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, &RequestError{Op: op, Err: err}
		}
		reader = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ResponseError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("api error", slog.String("op", op), slog.Int("status", resp.StatusCode), slog.String("body_prefix", truncate(string(body), 300)))
		return nil, &ResponseError{Op: op, StatusCode: resp.StatusCode, Body: string(body), Err: ErrUnexpectedStatus}
	}
	return body, nil
}

func (c *Client) logBody(op string, body []byte) {
	debug, _ := c.settings()
	if !debug {
		return
	}
	text := string(body)
	if text == "" {
		text = "<EMPTY>"
	}
	c.logger.Debug("api response", slog.String("op", op), slog.String("body", truncate(text, 1000)))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
