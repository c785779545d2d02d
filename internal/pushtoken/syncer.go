package pushtoken

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"
)

// SendFunc delivers a token to the backend for a portal.
type SendFunc func(ctx context.Context, token []byte, portalID string) error

// Syncer owns the push token and its SyncState. At most one send attempt is
// tracked at a time; the state field itself is the guard against duplicate
// sends, the mutex only keeps memory access safe.
type Syncer struct {
	logger *slog.Logger
	send   SendFunc
	now    func() time.Time

	mu      sync.Mutex
	token   []byte
	state   SyncState
	attempt uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSyncer creates a Syncer in the NotSent state with no token.
func NewSyncer(log *slog.Logger, send SendFunc) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		logger: log.With(slog.String("component", "push_token_sync")),
		send:   send,
		now:    time.Now,
		state:  StateNotSent(),
	}
}

// SetClock replaces the time source. Tests use it to step time.
func (s *Syncer) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetToken stores token. A value different from the stored one resets the
// state to NotSent and drops tracking of any in-flight attempt. It reports
// whether the token changed.
func (s *Syncer) SetToken(token []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(s.token, token) {
		return false
	}
	s.supersedeLocked()
	s.token = bytes.Clone(token)
	s.state = StateNotSent()
	return true
}

// Token returns a copy of the stored token, nil when unset.
func (s *Syncer) Token() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.token)
}

// State returns the current sync state.
func (s *Syncer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SyncIfNeeded starts a send when a token and portal id are both known and
// the state allows it. It returns true when an attempt was started. The send
// runs asynchronously; use Wait to block until it settles.
func (s *Syncer) SyncIfNeeded(portalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.token) == 0 || portalID == "" {
		return false
	}

	now := s.now()
	ok, current := Evaluate(s.state, now)
	if current != s.state {
		s.logger.Debug("stale sending state reset", slog.String("state", s.state.String()))
	}
	s.state = current
	if !ok {
		return false
	}

	previous := s.state
	s.state = StateSending(now)
	s.supersedeLocked()
	gen := s.attempt

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	token := bytes.Clone(s.token)

	s.wg.Add(1)
	go s.run(ctx, cancel, gen, previous, token, portalID)
	return true
}

func (s *Syncer) run(ctx context.Context, cancel context.CancelFunc, gen uint64, previous SyncState, token []byte, portalID string) {
	defer s.wg.Done()
	defer cancel()

	var err error
	if s.send == nil {
		err = context.Canceled
	} else {
		err = s.send(ctx, token, portalID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.attempt {
		// A newer attempt or a token change owns the state now.
		return
	}
	s.cancel = nil

	switch {
	case ctx.Err() != nil:
		s.state = previous
	case err != nil:
		s.logger.Error("error registering push token with api", slog.Any("error", err))
		if previous.Phase == Sending {
			// Never expected: attempts only start from NotSent or Sent.
			s.state = StateNotSent()
		} else {
			s.state = previous
		}
	default:
		s.state = StateSent(s.now())
	}
}

// Cancel cancels the tracked attempt, if any. The attempt reverts the state
// to what it was before it started.
func (s *Syncer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Reset forgets the token and returns to NotSent.
func (s *Syncer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	s.token = nil
	s.state = StateNotSent()
}

// ClearToken resets like Reset, but only while the stored token still equals
// expected. It reports whether the token was cleared.
func (s *Syncer) ClearToken(expected []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !bytes.Equal(s.token, expected) {
		return false
	}
	s.supersedeLocked()
	s.token = nil
	s.state = StateNotSent()
	return true
}

// Wait blocks until every started attempt has finished.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) supersedeLocked() {
	s.attempt++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
