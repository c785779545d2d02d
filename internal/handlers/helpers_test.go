package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/hubspot/mobile-chat-sdk-go/internal/api"
	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
	"github.com/hubspot/mobile-chat-sdk-go/internal/server"
)

var testConfig = config.Configuration{
	Environment:     hublet.EnvironmentProduction,
	Hublet:          "na1",
	PortalID:        "12345",
	DefaultChatFlow: "support",
}

type fakeBackend struct {
	mu         sync.Mutex
	registered [][]byte
	deleted    [][]byte
	props      []api.ChatPropertiesRequest
}

func (f *fakeBackend) RegisterDeviceToken(_ context.Context, _ hublet.Hublet, token []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, token)
	return nil
}

func (f *fakeBackend) DeleteDeviceToken(_ context.Context, _ hublet.Hublet, token []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeBackend) SendChatProperties(_ context.Context, _ hublet.Hublet, req api.ChatPropertiesRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props = append(f.props, req)
	return nil
}

func (f *fakeBackend) CreateVisitorToken(_ context.Context, _ hublet.Hublet, req api.VisitorTokenRequest) (string, error) {
	return "visitor-" + req.Email, nil
}

func (f *fakeBackend) snapshot() (registered, deleted [][]byte, props []api.ChatPropertiesRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.registered...), append([][]byte(nil), f.deleted...), append([]api.ChatPropertiesRequest(nil), f.props...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*manager.Manager, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	m := manager.New(testLogger(), backend, nil)
	t.Cleanup(func() {
		m.Wait()
		m.Close()
	})
	return m, backend
}

func newTestEcho(handlers ...server.Handler) *echo.Echo {
	e := echo.New()
	for _, h := range handlers {
		h.Register(e)
	}
	return e
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
