// Package pushtoken tracks whether the device push token has reached the
// backend and suppresses redundant sends when several triggers (push
// registration, identity set, configuration load) fire close together.
package pushtoken

import (
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SendingTimeout is how long a Sending state is trusted before it is
	// considered stale and retried.
	SendingTimeout = 60 * time.Second
	// SentDebounce absorbs duplicate triggers right after a successful send.
	SentDebounce = 20 * time.Second
)

// Phase is the kind of a SyncState.
type Phase int

const (
	NotSent Phase = iota
	Sending
	Sent
)

func (p Phase) String() string {
	switch p {
	case Sending:
		return "sending"
	case Sent:
		return "sent"
	default:
		return "not_sent"
	}
}

// SyncState is one of NotSent, Sending(since) or Sent(since).
type SyncState struct {
	Phase Phase
	Since time.Time
}

func (s SyncState) String() string {
	if s.Phase == NotSent {
		return s.Phase.String()
	}
	return fmt.Sprintf("%s(%s)", s.Phase, s.Since.Format(time.RFC3339))
}

// StateNotSent is the initial state.
func StateNotSent() SyncState { return SyncState{Phase: NotSent} }

// StateSending marks an attempt started at t.
func StateSending(t time.Time) SyncState { return SyncState{Phase: Sending, Since: t} }

// StateSent marks a successful send at t.
func StateSent(t time.Time) SyncState { return SyncState{Phase: Sent, Since: t} }

// Evaluate decides whether a send should start from state at now. The
// returned state is what the machine holds before the attempt: a stale
// Sending is reset to NotSent.
func Evaluate(state SyncState, now time.Time) (bool, SyncState) {
	switch state.Phase {
	case Sending:
		if elapsed(state.Since, now) > SendingTimeout {
			return true, StateNotSent()
		}
		return false, state
	case Sent:
		return elapsed(state.Since, now) > SentDebounce, state
	default:
		return true, state
	}
}

func elapsed(since, now time.Time) time.Duration {
	d := now.Sub(since)
	if d < 0 {
		return -d
	}
	return d
}

// EncodeHex renders a token the way the backend expects: lowercase hex.
func EncodeHex(token []byte) string {
	return hex.EncodeToString(token)
}
