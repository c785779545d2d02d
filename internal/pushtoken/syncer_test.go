package pushtoken

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSender struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
	started chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, token []byte, portalID string) error {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func newTestSyncer(sender *recordingSender, clock *fakeClock) *Syncer {
	s := NewSyncer(nil, sender.Send)
	s.SetClock(clock.Now)
	return s
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ok, st := Evaluate(StateNotSent(), now)
	assert.True(t, ok)
	assert.Equal(t, NotSent, st.Phase)

	ok, _ = Evaluate(StateSending(now.Add(-59*time.Second)), now)
	assert.False(t, ok)

	ok, st = Evaluate(StateSending(now.Add(-61*time.Second)), now)
	assert.True(t, ok)
	assert.Equal(t, NotSent, st.Phase)

	ok, _ = Evaluate(StateSent(now.Add(-20*time.Second)), now)
	assert.False(t, ok)

	ok, st = Evaluate(StateSent(now.Add(-21*time.Second)), now)
	assert.True(t, ok)
	assert.Equal(t, Sent, st.Phase)
}

func TestSyncRequiresTokenAndPortal(t *testing.T) {
	sender := &recordingSender{}
	s := newTestSyncer(sender, newFakeClock())

	assert.False(t, s.SyncIfNeeded("123"))
	s.SetToken([]byte{0xab})
	assert.False(t, s.SyncIfNeeded(""))
	s.Wait()
	assert.Equal(t, int32(0), sender.calls.Load())
	assert.Equal(t, NotSent, s.State().Phase)
}

func TestSentDebounceAllowsOneCall(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{}
	s := newTestSyncer(sender, clock)
	s.SetToken([]byte{1, 2, 3})

	require.True(t, s.SyncIfNeeded("42"))
	s.Wait()
	require.Equal(t, Sent, s.State().Phase)

	clock.Advance(5 * time.Second)
	assert.False(t, s.SyncIfNeeded("42"))
	clock.Advance(10 * time.Second)
	assert.False(t, s.SyncIfNeeded("42"))
	s.Wait()
	assert.Equal(t, int32(1), sender.calls.Load())

	clock.Advance(10 * time.Second)
	assert.True(t, s.SyncIfNeeded("42"))
	s.Wait()
	assert.Equal(t, int32(2), sender.calls.Load())
}

func TestSendingSuppressesUntilStale(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{release: make(chan struct{}), started: make(chan struct{}, 4)}
	s := newTestSyncer(sender, clock)
	s.SetToken([]byte{9})

	require.True(t, s.SyncIfNeeded("42"))
	<-sender.started
	assert.Equal(t, Sending, s.State().Phase)

	clock.Advance(30 * time.Second)
	assert.False(t, s.SyncIfNeeded("42"))

	clock.Advance(31 * time.Second)
	assert.True(t, s.SyncIfNeeded("42"))
	<-sender.started
	assert.Equal(t, int32(2), sender.calls.Load())

	close(sender.release)
	s.Wait()
	assert.Equal(t, Sent, s.State().Phase)
	assert.Equal(t, clock.Now(), s.State().Since)
}

func TestFailureRestoresPreviousState(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{}
	s := newTestSyncer(sender, clock)
	s.SetToken([]byte{7})

	require.True(t, s.SyncIfNeeded("42"))
	s.Wait()
	sentAt := s.State().Since

	sender.err = errors.New("boom")
	clock.Advance(25 * time.Second)
	require.True(t, s.SyncIfNeeded("42"))
	s.Wait()

	st := s.State()
	assert.Equal(t, Sent, st.Phase)
	assert.Equal(t, sentAt, st.Since)
}

func TestCancelRevertsToPreAttemptState(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestSyncer(sender, newFakeClock())
	s.SetToken([]byte{5})

	require.True(t, s.SyncIfNeeded("42"))
	<-sender.started
	s.Cancel()
	s.Wait()
	assert.Equal(t, NotSent, s.State().Phase)
}

func TestNewTokenResetsState(t *testing.T) {
	clock := newFakeClock()
	sender := &recordingSender{}
	s := newTestSyncer(sender, clock)

	assert.True(t, s.SetToken([]byte{1}))
	require.True(t, s.SyncIfNeeded("42"))
	s.Wait()
	require.Equal(t, Sent, s.State().Phase)

	assert.False(t, s.SetToken([]byte{1}))
	assert.Equal(t, Sent, s.State().Phase)

	assert.True(t, s.SetToken([]byte{2}))
	assert.Equal(t, NotSent, s.State().Phase)
	assert.True(t, s.SyncIfNeeded("42"))
	s.Wait()
	assert.Equal(t, int32(2), sender.calls.Load())
}

func TestSupersededAttemptDoesNotWriteState(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{}), started: make(chan struct{}, 2)}
	s := newTestSyncer(sender, newFakeClock())
	s.SetToken([]byte{1})

	require.True(t, s.SyncIfNeeded("42"))
	<-sender.started
	s.Reset()
	close(sender.release)
	s.Wait()

	assert.Equal(t, NotSent, s.State().Phase)
	assert.Nil(t, s.Token())
}

func TestEncodeHex(t *testing.T) {
	assert.Equal(t, "00ff10", EncodeHex([]byte{0x00, 0xff, 0x10}))
}

func TestClearTokenOnlyMatchingToken(t *testing.T) {
	s := newTestSyncer(&recordingSender{}, newFakeClock())
	s.SetToken([]byte{1})

	assert.False(t, s.ClearToken([]byte{2}))
	assert.Equal(t, []byte{1}, s.Token())
	assert.True(t, s.ClearToken([]byte{1}))
	assert.Nil(t, s.Token())
}
