package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// WidgetLoadedMessage is the "message" value sent when the widget loads.
const WidgetLoadedMessage = "widget has loaded"

// Kind classifies a page message.
type Kind int

const (
	KindOther Kind = iota
	KindInfo
	KindWidgetLoaded
	KindThreadOpened
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindWidgetLoaded:
		return "widget_loaded"
	case KindThreadOpened:
		return "thread_opened"
	default:
		return "other"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Message is one decoded page message.
type Message struct {
	Kind     Kind           `json:"kind"`
	Info     string         `json:"info,omitempty"`
	ThreadID string         `json:"threadId,omitempty"`
	Body     map[string]any `json:"body"`
}

// Decode parses a JSON message body. Non-object bodies are rejected.
func Decode(raw []byte) (Message, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Message{}, fmt.Errorf("decode bridge message: %w", err)
	}
	if body == nil {
		return Message{}, fmt.Errorf("decode bridge message: not an object")
	}
	return Parse(body), nil
}

// Parse classifies a message body. A conversation with a numeric id wins
// over the info and message markers.
func Parse(body map[string]any) Message {
	msg := Message{Kind: KindOther, Body: body}
	if conv, ok := body["conversation"].(map[string]any); ok {
		if id, ok := integer(conv["conversationId"]); ok {
			msg.Kind = KindThreadOpened
			msg.ThreadID = strconv.FormatInt(id, 10)
			return msg
		}
	}
	if m, ok := body["message"].(string); ok && m == WidgetLoadedMessage {
		msg.Kind = KindWidgetLoaded
		return msg
	}
	if info, ok := body["info"].(string); ok {
		msg.Kind = KindInfo
		msg.Info = info
	}
	return msg
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
