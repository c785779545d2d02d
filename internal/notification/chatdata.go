// Package notification classifies push payloads and extracts the chat
// routing data carried by chat notifications.
package notification

import "strings"

// Recognized payload keys. These are a wire contract with the push sender.
const (
	PortalIDKey   = "hsPortalId"
	ChatflowIDKey = "hsChatflowId"
	ThreadIDKey   = "hsThreadId"
	ChatflowKey   = "hsChatflowParam"
)

var recognizedKeys = []string{ChatflowIDKey, ChatflowKey, PortalIDKey, ThreadIDKey}

// ChatData is the routing data of a chat push. A nil field was not present
// in the payload.
type ChatData struct {
	PortalID   *string `json:"portalId,omitempty"`
	ChatflowID *string `json:"chatflowId,omitempty"`
	ThreadID   *string `json:"threadId,omitempty"`
	Chatflow   *string `json:"chatflow,omitempty"`
}

// ChatflowName returns the chat flow or "" when absent.
func (d ChatData) ChatflowName() string {
	return deref(d.Chatflow)
}

// Thread returns the thread id or "" when absent.
func (d ChatData) Thread() string {
	return deref(d.ThreadID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsChatNotification reports whether any payload key starts with one of the
// recognized keys.
func IsChatNotification(payload map[string]any) bool {
	for key := range payload {
		for _, known := range recognizedKeys {
			if strings.HasPrefix(key, known) {
				return true
			}
		}
	}
	return false
}

// Extract builds ChatData from the exact recognized keys holding string
// values. It returns false when none is present.
func Extract(payload map[string]any) (ChatData, bool) {
	data := ChatData{
		PortalID:   stringValue(payload, PortalIDKey),
		ChatflowID: stringValue(payload, ChatflowIDKey),
		ThreadID:   stringValue(payload, ThreadIDKey),
		Chatflow:   stringValue(payload, ChatflowKey),
	}
	if data.PortalID == nil && data.ChatflowID == nil && data.ThreadID == nil && data.Chatflow == nil {
		return ChatData{}, false
	}
	return data, true
}

// Classify combines IsChatNotification and Extract.
func Classify(payload map[string]any) (ChatData, bool) {
	if !IsChatNotification(payload) {
		return ChatData{}, false
	}
	return Extract(payload)
}

func stringValue(payload map[string]any, key string) *string {
	v, ok := payload[key].(string)
	if !ok {
		return nil
	}
	return &v
}
