package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/seer/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type step struct {
	status string
	pct    *float64
	err    error
}

func pct(v float64) *float64 { return &v }

// scripted replays steps per job id; the last step repeats.
type scripted struct {
	mu    sync.Mutex
	steps map[api.ID][]step
	calls map[api.ID]int
}

func newScripted(steps map[api.ID][]step) *scripted {
	return &scripted{steps: steps, calls: map[api.ID]int{}}
}

func (s *scripted) JobStatus(_ context.Context, id api.ID) (*api.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls[id]
	s.calls[id]++
	steps := s.steps[id]
	if len(steps) == 0 {
		return nil, &api.Error{Kind: api.KindNotFound, Status: http.StatusNotFound}
	}
	st := steps[min(n, len(steps)-1)]
	if st.err != nil {
		return nil, st.err
	}
	return &api.JobStatus{JobID: id, Status: st.status, Progress: st.pct}, nil
}

func (s *scripted) count(id api.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func fastOpts() Options {
	return Options{Interval: 10 * time.Millisecond, RetryDelay: time.Millisecond}
}

// runPoller starts p and returns a stop func that cancels and waits.
func runPoller(t *testing.T, p *Poller) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	}
}

func TestPoller_RunningThenCompletedFetchesTwice(t *testing.T) {
	f := newScripted(map[api.ID][]step{
		"j1": {{status: "running", pct: pct(45)}, {status: "completed", pct: pct(100)}},
	})
	p := New(f, "j1", fastOpts())
	stop := runPoller(t, p)
	defer stop()

	require.Eventually(t, func() bool { return !p.View().Polling }, time.Second, time.Millisecond)
	time.Sleep(5 * fastOpts().Interval)

	v := p.View()
	assert.True(t, v.IsCompleted())
	assert.Equal(t, 100.0, v.Progress())
	assert.Equal(t, 2, v.Fetches)
	assert.Equal(t, 2, f.count("j1"))
}

func TestPoller_QueuedRunningCompleted(t *testing.T) {
	f := newScripted(map[api.ID][]step{
		"j1": {{status: "queued"}, {status: "running", pct: pct(10)}, {status: "completed", pct: pct(100)}},
	})
	var seen []api.JobState
	opts := fastOpts()
	opts.OnUpdate = func(v View) { seen = append(seen, v.State()) }

	v, err := Wait(context.Background(), f, "j1", opts)
	require.NoError(t, err)
	assert.True(t, v.IsCompleted())
	assert.Equal(t, []api.JobState{api.JobQueued, api.JobRunning, api.JobCompleted}, seen)
	assert.Equal(t, 3, f.count("j1"))
}

func TestPoller_FailedStopsPolling(t *testing.T) {
	f := newScripted(map[api.ID][]step{"j1": {{status: "failed", pct: pct(30)}}})
	p := New(f, "j1", fastOpts())
	stop := runPoller(t, p)
	defer stop()

	require.Eventually(t, func() bool { return p.View().IsFailed() }, time.Second, time.Millisecond)
	time.Sleep(5 * fastOpts().Interval)
	v := p.View()
	assert.False(t, v.Polling)
	assert.NoError(t, v.Err)
	assert.Equal(t, 1, f.count("j1"))
}

func TestPoller_ProgressDefaultsToZero(t *testing.T) {
	f := newScripted(map[api.ID][]step{"j1": {{status: "queued"}}})
	p := New(f, "j1", fastOpts())
	assert.Zero(t, p.View().Progress(), "before any fetch")

	stop := runPoller(t, p)
	defer stop()
	require.Eventually(t, func() bool { return p.View().Fetches > 0 }, time.Second, time.Millisecond)
	v := p.View()
	assert.True(t, v.IsQueued())
	assert.Zero(t, v.Progress())
	assert.True(t, v.Polling)
}

func TestPoller_RetriesTransientFailuresBounded(t *testing.T) {
	netErr := &api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")}
	f := newScripted(map[api.ID][]step{"j1": {{err: netErr}}})

	updates := make(chan View, 4)
	opts := Options{Interval: time.Hour, Retries: 2, RetryDelay: time.Millisecond, OnUpdate: func(v View) { updates <- v }}
	p := New(f, "j1", opts)
	stop := runPoller(t, p)
	defer stop()

	v := <-updates
	assert.True(t, api.IsKind(v.Err, api.KindNetwork))
	assert.True(t, v.Polling, "a transient failure keeps polling")
	assert.Empty(t, v.State(), "errors never change job state")
	assert.Equal(t, 3, f.count("j1"))
}

func TestPoller_RecoversWithinCycle(t *testing.T) {
	f := newScripted(map[api.ID][]step{
		"j1": {{err: &api.Error{Kind: api.KindServer, Status: 502}}, {status: "running", pct: pct(50)}},
	})
	updates := make(chan View, 4)
	opts := Options{Interval: time.Hour, RetryDelay: time.Millisecond, OnUpdate: func(v View) { updates <- v }}
	p := New(f, "j1", opts)
	stop := runPoller(t, p)
	defer stop()

	v := <-updates
	assert.NoError(t, v.Err)
	assert.True(t, v.IsRunning())
	assert.Equal(t, 1, v.Fetches)
	assert.Equal(t, 2, f.count("j1"))
}

func TestPoller_PermanentErrorsAreNotRetried(t *testing.T) {
	f := newScripted(nil)
	updates := make(chan View, 4)
	opts := Options{Interval: time.Hour, RetryDelay: time.Millisecond, OnUpdate: func(v View) { updates <- v }}
	p := New(f, "missing", opts)
	stop := runPoller(t, p)
	defer stop()

	v := <-updates
	assert.True(t, api.IsKind(v.Err, api.KindNotFound))
	assert.True(t, v.Polling)
	assert.Equal(t, 1, f.count("missing"))
}

func TestPoller_ReauthStopsPolling(t *testing.T) {
	reauth := fmt.Errorf("%w: refresh rejected", api.ErrReauthRequired)
	f := newScripted(map[api.ID][]step{"j1": {{err: reauth}}})

	v, err := Wait(context.Background(), f, "j1", fastOpts())
	require.ErrorIs(t, err, api.ErrReauthRequired)
	assert.False(t, v.Polling)
	assert.Equal(t, 1, f.count("j1"))
}

func TestPoller_SetJobReactivates(t *testing.T) {
	f := newScripted(map[api.ID][]step{
		"a": {{status: "completed", pct: pct(100)}},
		"b": {{status: "running", pct: pct(20)}, {status: "completed", pct: pct(100)}},
	})
	p := New(f, "a", fastOpts())
	stop := runPoller(t, p)
	defer stop()

	require.Eventually(t, func() bool { return p.View().IsCompleted() }, time.Second, time.Millisecond)
	p.SetJob("b")
	assert.True(t, p.View().Polling)
	assert.Equal(t, api.ID("b"), p.View().JobID)

	require.Eventually(t, func() bool {
		v := p.View()
		return v.JobID == "b" && v.IsCompleted()
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, f.count("a"))
	assert.Equal(t, 2, f.count("b"))
}

// blocking holds the first fetch of "a" until released.
type blocking struct {
	*scripted
	entered chan struct{}
	release chan struct{}
}

func (b *blocking) JobStatus(ctx context.Context, id api.ID) (*api.JobStatus, error) {
	if id == "a" {
		close(b.entered)
		<-b.release
	}
	return b.scripted.JobStatus(ctx, id)
}

func TestPoller_DiscardsResultsForReplacedJob(t *testing.T) {
	f := &blocking{
		scripted: newScripted(map[api.ID][]step{
			"a": {{status: "running", pct: pct(90)}},
			"b": {{status: "queued"}},
		}),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	var mu sync.Mutex
	var seen []api.ID
	opts := fastOpts()
	opts.Interval = time.Hour
	opts.OnUpdate = func(v View) {
		mu.Lock()
		seen = append(seen, v.JobID)
		mu.Unlock()
	}
	p := New(f, "a", opts)
	stop := runPoller(t, p)
	defer stop()

	<-f.entered
	p.SetJob("b")
	close(f.release)

	require.Eventually(t, func() bool { return p.View().IsQueued() }, time.Second, time.Millisecond)
	v := p.View()
	assert.Equal(t, api.ID("b"), v.JobID)
	assert.Equal(t, 1, v.Fetches)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []api.ID{"b"}, seen)
}

func TestPoller_IdleWithoutJob(t *testing.T) {
	f := newScripted(nil)
	p := New(f, "", fastOpts())
	stop := runPoller(t, p)
	time.Sleep(3 * fastOpts().Interval)
	stop()
	assert.False(t, p.View().Polling)
	assert.Zero(t, f.count(""))
}

func TestWait_RequiresID(t *testing.T) {
	_, err := Wait(context.Background(), newScripted(nil), "", Options{})
	require.Error(t, err)
}

func TestWait_ReturnsOnCancel(t *testing.T) {
	f := newScripted(map[api.ID][]step{"j1": {{status: "running"}}})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	v, err := Wait(ctx, f, "j1", fastOpts())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, v.IsRunning())
}

func TestWait_StopsOnMissingJob(t *testing.T) {
	f := newScripted(nil)
	updates := 0
	opts := fastOpts()
	opts.OnUpdate = func(View) { updates++ }

	v, err := Wait(context.Background(), f, "missing", opts)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindNotFound))
	assert.Equal(t, 1, v.Fetches)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, f.count("missing"))
}

func TestWait_TimeoutKeepsLastError(t *testing.T) {
	unavailable := &api.Error{Kind: api.KindServer, Status: http.StatusServiceUnavailable}
	f := newScripted(map[api.ID][]step{"j1": {{err: unavailable}}})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	opts := fastOpts()
	opts.Retries = -1
	v, err := Wait(ctx, f, "j1", opts)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, api.IsKind(err, api.KindServer))
	assert.True(t, v.Polling)
	assert.Positive(t, v.Fetches)
}

func TestFetchStatuses_KeepsOrderAndErrors(t *testing.T) {
	f := newScripted(map[api.ID][]step{
		"a": {{status: "completed"}},
		"c": {{status: "running", pct: pct(5)}},
	})
	results := FetchStatuses(context.Background(), f, []api.ID{"a", "b", "c"}, 2)
	require.Len(t, results, 3)

	assert.Equal(t, api.ID("a"), results[0].JobID)
	assert.Equal(t, api.JobCompleted, results[0].Status.State())
	assert.True(t, api.IsKind(results[1].Err, api.KindNotFound))
	assert.Nil(t, results[1].Status)
	assert.Equal(t, 5.0, results[2].Status.Percent())
}
