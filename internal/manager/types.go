package manager

import (
	"context"
	"time"

	"github.com/hubspot/mobile-chat-sdk-go/internal/api"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
)

// Backend is the subset of the REST client the manager calls.
type Backend interface {
	RegisterDeviceToken(ctx context.Context, h hublet.Hublet, token []byte, portalID string) error
	DeleteDeviceToken(ctx context.Context, h hublet.Hublet, token []byte, portalID string) error
	SendChatProperties(ctx context.Context, h hublet.Hublet, req api.ChatPropertiesRequest) error
	CreateVisitorToken(ctx context.Context, h hublet.Hublet, req api.VisitorTokenRequest) (string, error)
}

// ChangeKind names what changed.
type ChangeKind string

const (
	ChangeConfiguration   ChangeKind = "configuration"
	ChangeIdentity        ChangeKind = "identity"
	ChangePushToken       ChangeKind = "push_token"
	ChangeChatProperties  ChangeKind = "chat_properties"
	ChangeUserDataCleared ChangeKind = "user_data_cleared"
)

// Change is published after a mutation is visible to reads.
type Change struct {
	Kind ChangeKind `json:"kind"`
	At   time.Time  `json:"at"`
}

// Snapshot is a read-only view of the manager state.
type Snapshot struct {
	Environment     string `json:"environment"`
	Hublet          string `json:"hublet"`
	PortalID        string `json:"portal_id"`
	DefaultChatFlow string `json:"default_chat_flow,omitempty"`
	HasIdentity     bool   `json:"has_identity"`
	Email           string `json:"email,omitempty"`
	PushToken       string `json:"push_token,omitempty"`
	PushTokenState  string `json:"push_token_state"`
	ChatProperties  int    `json:"chat_properties"`
}
