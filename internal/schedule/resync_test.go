package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResyncRejectsBadSpec(t *testing.T) {
	_, err := NewResync(nil, "push", "every now and then", func() bool { return true })
	require.Error(t, err)

	_, err = NewResync(nil, "push", "@every 1m", nil)
	require.Error(t, err)
}

func TestResyncRunsOnSchedule(t *testing.T) {
	var calls atomic.Int32
	r, err := NewResync(nil, "push", "@every 1s", func() bool {
		calls.Add(1)
		return true
	})
	require.NoError(t, err)

	r.Start()
	r.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	require.NoError(t, r.Stop(ctx))
	assert.GreaterOrEqual(t, r.Runs(), 1)
}

func TestResyncRunNow(t *testing.T) {
	r, err := NewResync(nil, "push", "@every 1h", func() bool { return false })
	require.NoError(t, err)
	r.Run()
	assert.Equal(t, 1, r.Runs())
}
