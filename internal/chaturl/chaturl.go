// Package chaturl builds the URL of the hosted chat embed.
package chaturl

import (
	"net/url"
	"strings"

	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/identity"
	"github.com/hubspot/mobile-chat-sdk-go/internal/notification"
)

// EmbedPath is the path of the chat embed page on the app host.
const EmbedPath = "/conversations-visitor-embed"

// Query parameter names.
const (
	ParamPortalID            = "portalId"
	ParamHublet              = "hublet"
	ParamEnv                 = "env"
	ParamIdentificationToken = "identificationToken"
	ParamEmail               = "email"
	ParamChatflow            = "chatflow"
)

// Request carries everything a chat URL depends on. Identity and Push are
// optional.
type Request struct {
	Config   config.Configuration
	Identity identity.UserIdentity
	Push     *notification.ChatData
	ChatFlow string
}

// ResolveChatFlow picks the flow by precedence: push data, then the explicit
// argument, then the configured default.
func ResolveChatFlow(push *notification.ChatData, explicit, fallback string) (string, error) {
	if push != nil {
		if flow := push.ChatflowName(); flow != "" {
			return flow, nil
		}
	}
	if explicit != "" {
		return explicit, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", config.ErrMissingChatFlow
}

// Build returns the embed URL for req.
func Build(req Request) (*url.URL, error) {
	h, ok := req.Config.HubletModel()
	if !ok || req.Config.PortalID == "" {
		return nil, config.ErrMissingConfiguration
	}

	params := [][2]string{
		{ParamPortalID, req.Config.PortalID},
		{ParamHublet, h.ID},
		{ParamEnv, h.Environment.String()},
	}
	if req.Identity.Token != "" {
		params = append(params, [2]string{ParamIdentificationToken, req.Identity.Token})
	}
	if req.Identity.Email != "" {
		params = append(params, [2]string{ParamEmail, req.Identity.Email})
	}

	flow, err := ResolveChatFlow(req.Push, req.ChatFlow, req.Config.DefaultChatFlow)
	if err != nil {
		return nil, err
	}
	params = append(params, [2]string{ParamChatflow, flow})

	return &url.URL{
		Scheme:   "https",
		Host:     h.Hostname(),
		Path:     EmbedPath,
		RawQuery: EncodeQuery(params),
	}, nil
}

// EncodeQuery joins pairs as key=value with "&", escaping each key and
// value with Escape. Pair order is kept.
func EncodeQuery(pairs [][2]string) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(p[0]))
		b.WriteByte('=')
		b.WriteString(Escape(p[1]))
	}
	return b.String()
}

// Escape percent-encodes every byte outside the query-safe set. "+" is
// always encoded so that emails such as "a+b@example.com" keep their plus,
// and "&" and "=" are encoded so values cannot split the query.
func Escape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if querySafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func querySafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '!', '$', '\'', '(', ')', '*', ',', ';', ':', '@', '/', '?':
		return true
	}
	return false
}
