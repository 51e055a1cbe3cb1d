package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/state"
)

func TestRetryBackOff(t *testing.T) {
	b := newRetryBackOff(2 * time.Second)

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // 32s capped
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.NextBackOff(), "failure %d", i+1)
	}

	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff(), "success resets the delay")
}

func TestRetryBackOff_NeverStops(t *testing.T) {
	b := newRetryBackOff(time.Second)
	for i := 0; i < 50; i++ {
		got := b.NextBackOff()
		require.NotEqual(t, time.Duration(-1), got, "backoff gave up after %d failures", i)
		require.LessOrEqual(t, got, maxBackoff)
	}
}

func (f *fakeSource) setOrderErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderErr = err
}

func TestStartPoller_RecoversAfterFailures(t *testing.T) {
	store := &state.Store{}
	source := newSource()
	source.setOrderErr(&api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartPoller(ctx, store, source, "o1", 5*time.Millisecond, nil)

	require.Eventually(t, func() bool {
		return store.Snapshot().IsOffline()
	}, 2*time.Second, time.Millisecond)
	assert.False(t, store.Snapshot().HasOrder)

	source.setOrderErr(nil)
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return snap.HasOrder && snap.LastError == nil && snap.ConsecutiveFailures == 0
	}, 2*time.Second, time.Millisecond)

	source.set("j1", "completed")
	source.set("j2", "completed")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after recovery and completion")
	}
}
