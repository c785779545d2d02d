package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/healthcheck"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
	"github.com/hubspot/mobile-chat-sdk-go/internal/settings"
)

func TestPingReportsConfiguration(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEcho(NewPingHandler(testLogger(), m))

	rec := doJSON(t, e, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["configured"])

	m.Configure(testConfig)
	rec = doJSON(t, e, http.MethodGet, "/ping", nil)
	assert.Equal(t, true, decode[map[string]any](t, rec)["configured"])

	rec = doJSON(t, e, http.MethodHead, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/health/checks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[healthcheck.Report](t, rec)
	assert.Equal(t, healthcheck.StatusUnknown, report.Status)
	assert.Len(t, report.Checks, 3)
}

func TestChatURLWithoutConfiguration(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEcho(NewChatHandler(testLogger(), m))

	rec := doJSON(t, e, http.MethodGet, "/chat/url", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "missing_configuration", body.State)
}

func TestChatURLFlowPrecedence(t *testing.T) {
	m, _ := newTestManager(t)
	cfg := testConfig
	cfg.DefaultChatFlow = ""
	m.Configure(cfg)
	e := newTestEcho(NewChatHandler(testLogger(), m))

	rec := doJSON(t, e, http.MethodGet, "/chat/url", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "missing_chat_flow", decode[errorResponse](t, rec).State)

	rec = doJSON(t, e, http.MethodGet, "/chat/url?chatflow=sales&push_chatflow=billing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	u, err := url.Parse(decode[map[string]string](t, rec)["url"])
	require.NoError(t, err)
	assert.Equal(t, "app.hubspot.com", u.Host)
	assert.Equal(t, "billing", u.Query().Get("chatflow"))
	assert.Equal(t, "12345", u.Query().Get("portalId"))

	rec = doJSON(t, e, http.MethodGet, "/chat/url?chatflow=sales", nil)
	u, err = url.Parse(decode[map[string]string](t, rec)["url"])
	require.NoError(t, err)
	assert.Equal(t, "sales", u.Query().Get("chatflow"))
}

func TestConfigPutPersistsOverrides(t *testing.T) {
	m, _ := newTestManager(t)
	svc := settings.NewService(testLogger(), nil)
	source := config.StaticSource(testConfig)
	e := newTestEcho(NewConfigHandler(testLogger(), m, svc, source))

	rec := doJSON(t, e, http.MethodPut, "/config", map[string]any{
		"portal_id":   "999",
		"hublet":      "eu1",
		"environment": "qa",
		"persist":     true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[manager.Snapshot](t, rec)
	assert.Equal(t, "999", snap.PortalID)
	assert.Equal(t, "qa", snap.Environment)

	// A fresh manager picks the stored overrides on reload.
	other, _ := newTestManager(t)
	e2 := newTestEcho(NewConfigHandler(testLogger(), other, svc, source))
	rec = doJSON(t, e2, http.MethodPost, "/config/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "eu1", other.Configuration().Hublet)
	assert.Equal(t, hublet.EnvironmentQA, other.Configuration().Environment)

	rec = doJSON(t, e2, http.MethodDelete, "/config/overrides", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, e2, http.MethodPost, "/config/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testConfig, other.Configuration())
}

func TestConfigPutRejectsIncompleteValues(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEcho(NewConfigHandler(testLogger(), m, nil, nil))

	rec := doJSON(t, e, http.MethodPut, "/config", map[string]any{"portal_id": "1", "environment": "staging"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, m.Configuration().Complete())

	rec = doJSON(t, e, http.MethodPost, "/config/reload", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestIdentityRoutes(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEcho(NewUserHandler(testLogger(), m))

	rec := doJSON(t, e, http.MethodPut, "/identity", map[string]string{"token": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPut, "/identity", map[string]string{"token": "abc", "email": "a@b.c"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "a@b.c", m.UserIdentity().Email)

	rec = doJSON(t, e, http.MethodPost, "/identity/token", map[string]any{"access_token": "pat", "email": "x@y.z", "apply": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	m.Configure(testConfig)
	rec = doJSON(t, e, http.MethodPost, "/identity/token", map[string]any{"access_token": "pat", "email": "x@y.z", "apply": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "visitor-x@y.z", decode[map[string]string](t, rec)["token"])
	assert.Equal(t, "visitor-x@y.z", m.UserIdentity().Token)
}

func TestPushTokenAndUserData(t *testing.T) {
	m, backend := newTestManager(t)
	m.Configure(testConfig)
	e := newTestEcho(NewUserHandler(testLogger(), m))

	rec := doJSON(t, e, http.MethodPut, "/push/token", map[string]string{"token": "zz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPut, "/push/token", map[string]string{"token": "a1b2"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	m.Wait()
	registered, _, _ := backend.snapshot()
	require.Len(t, registered, 1)
	assert.Equal(t, []byte{0xa1, 0xb2}, registered[0])

	rec = doJSON(t, e, http.MethodPut, "/properties", map[string]string{"plan": "pro"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, e, http.MethodGet, "/properties", nil)
	assert.Equal(t, map[string]string{"plan": "pro"}, decode[map[string]string](t, rec))

	rec = doJSON(t, e, http.MethodDelete, "/user-data", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	m.Wait()
	_, deleted, _ := backend.snapshot()
	require.Len(t, deleted, 1)
	assert.Empty(t, m.ChatProperties())
	assert.Nil(t, m.PushToken())
}

func TestOpenNotification(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEcho(NewUserHandler(testLogger(), m))

	rec := doJSON(t, e, http.MethodPost, "/push/notifications", map[string]any{
		"request_id": "r1",
		"payload":    map[string]any{"aps": map[string]any{"alert": "hi"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["handled"])

	rec = doJSON(t, e, http.MethodPost, "/push/notifications", map[string]any{
		"payload": map[string]any{"hsThreadId": "77", "hsChatflowParam": "sales"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["handled"])
	assert.Equal(t, map[string]any{"threadId": "77", "chatflow": "sales"}, body["data"])
}
