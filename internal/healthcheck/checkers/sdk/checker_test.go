package sdkchecker

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/healthcheck"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
	"github.com/hubspot/mobile-chat-sdk-go/internal/identity"
	"github.com/hubspot/mobile-chat-sdk-go/internal/pushtoken"
)

type fakeState struct {
	cfg   config.Configuration
	id    identity.UserIdentity
	token []byte
	sync  pushtoken.SyncState
}

func (f fakeState) Configuration() config.Configuration { return f.cfg }
func (f fakeState) UserIdentity() identity.UserIdentity { return f.id }
func (f fakeState) PushToken() []byte                   { return f.token }
func (f fakeState) PushTokenState() pushtoken.SyncState { return f.sync }

func byType(items []healthcheck.CheckResult) map[string]healthcheck.CheckResult {
	out := make(map[string]healthcheck.CheckResult, len(items))
	for _, item := range items {
		out[item.Type] = item
	}
	return out
}

func TestUnconfiguredState(t *testing.T) {
	t.Parallel()

	items := byType(NewChecker(nil, fakeState{}).ListChecks(context.Background()))
	require.Len(t, items, 3)
	assert.Equal(t, healthcheck.StatusError, items[checkTypeConfiguration].Status)
	assert.Equal(t, healthcheck.StatusUnknown, items[checkTypePushToken].Status)
	assert.Equal(t, healthcheck.StatusOK, items[checkTypeIdentity].Status)
}

func TestConfiguredState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	state := fakeState{
		cfg:   config.Configuration{Environment: hublet.EnvironmentQA, Hublet: "eu1", PortalID: "7"},
		id:    identity.UserIdentity{Token: tok, Email: "a@b.c"},
		token: []byte{1},
		sync:  pushtoken.StateSent(now),
	}
	c := NewChecker(nil, state)
	c.now = func() time.Time { return now }

	items := byType(c.ListChecks(context.Background()))
	assert.Equal(t, healthcheck.StatusWarn, items[checkTypeConfiguration].Status)
	assert.Equal(t, "7", items[checkTypeConfiguration].Metadata["portal_id"])
	assert.Equal(t, healthcheck.StatusOK, items[checkTypePushToken].Status)
	assert.Equal(t, healthcheck.StatusWarn, items[checkTypeIdentity].Status)

	report := healthcheck.Run(context.Background(), c)
	assert.Equal(t, healthcheck.StatusWarn, report.Status)
}

func TestCancelledContextAndNilState(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, NewChecker(nil, fakeState{}).ListChecks(ctx))

	items := NewChecker(nil, nil).ListChecks(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, healthcheck.StatusWarn, items[0].Status)
}
