package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "Hubspot-Info.toml", `
environment = "prod"
hublet = "eu1"
portal_id = "12345"
default_chat_flow = "sales"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Configuration{
		Environment:     hublet.EnvironmentProduction,
		Hublet:          "eu1",
		PortalID:        "12345",
		DefaultChatFlow: "sales",
	}, cfg)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "hubspot.yaml", "environment: qa\nhublet: na1\nportal_id: \"42\"\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, hublet.EnvironmentQA, cfg.Environment)
	assert.Equal(t, "42", cfg.PortalID)
	assert.Empty(t, cfg.DefaultChatFlow)
}

func TestLoadFileFailuresAreMissingConfiguration(t *testing.T) {
	cases := map[string]string{
		"missing portal": "environment = \"prod\"\nhublet = \"na1\"\n",
		"bad env":        "environment = \"staging\"\nhublet = \"na1\"\nportal_id = \"1\"\n",
		"malformed":      "environment = ",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "cfg.toml", body))
			if !errors.Is(err, ErrMissingConfiguration) {
				t.Fatalf("expected ErrMissingConfiguration, got %v", err)
			}
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestHubletModel(t *testing.T) {
	_, ok := Configuration{PortalID: "1"}.HubletModel()
	assert.False(t, ok)

	h, ok := Configuration{Hublet: "na1"}.HubletModel()
	require.True(t, ok)
	assert.Equal(t, "app.hubspot.com", h.Hostname())
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultSDKConfigPath, cfg.SDK.ConfigPath)

	path := writeFile(t, "chatsdk.toml", "[server]\naddr = \":9090\"\n[sdk]\nwatch = true\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.SDK.Watch)
	assert.Equal(t, "info", cfg.Log.Level)
}
