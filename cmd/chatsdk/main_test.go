package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHubletCommand(t *testing.T) {
	out, err := execute(t, "", "hublet", "eu1", "--env", "qa")
	require.NoError(t, err)
	assert.Contains(t, out, "environment: QA")
	assert.Contains(t, out, "app host:")

	_, err = execute(t, "", "hublet", "eu1", "--env", "staging")
	assert.Error(t, err)
}

func TestChatURLCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Hubspot-Info.toml")
	require.NoError(t, os.WriteFile(path, []byte(`portal_id = "12345"
hublet = "na1"
environment = "prod"
default_chat_flow = "support"
`), 0o644))

	out, err := execute(t, "", "chat-url", "--sdk-config", path)
	require.NoError(t, err)
	assert.Equal(t, "https://app.hubspot.com/conversations-visitor-embed?portalId=12345&hublet=na1&env=prod&chatflow=support\n", out)

	_, err = execute(t, "", "chat-url", "--sdk-config", path, "--email", "a@b.c")
	assert.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, `{"hsThreadId":"5","hsChatflowParam":"sales"}`, "classify")
	require.NoError(t, err)
	assert.JSONEq(t, `{"threadId":"5","chatflow":"sales"}`, out)

	_, err = execute(t, `{"aps":{}}`, "classify", "-")
	assert.EqualError(t, err, "not a chat notification")
}
