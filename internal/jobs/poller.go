package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
)

const (
	defaultInterval   = 2 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

var errEmptyStatus = errors.New("empty job status response")

// StatusFetcher retrieves the current status of one job.
type StatusFetcher interface {
	JobStatus(ctx context.Context, id api.ID) (*api.JobStatus, error)
}

var _ StatusFetcher = (*api.Client)(nil)

// Options tune a Poller. Zero values use the defaults.
type Options struct {
	Interval time.Duration
	// Retries bounds the extra attempts within one cycle; negative disables
	// retrying.
	Retries    int
	RetryDelay time.Duration
	Logger     *zap.Logger
	// OnUpdate is called after every applied poll result, outside any lock.
	OnUpdate func(View)
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.Retries == 0 {
		o.Retries = defaultRetries
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Poller fetches one job's status every interval until it reaches a terminal
// state. Switching jobs with SetJob restarts polling.
type Poller struct {
	fetcher StatusFetcher
	opts    Options
	log     *zap.Logger

	mu   sync.Mutex
	view View
	gen  uint64
	wake chan struct{}
}

// New returns a poller for id. An empty id leaves it idle until SetJob.
func New(fetcher StatusFetcher, id api.ID, opts Options) *Poller {
	opts = opts.withDefaults()
	return &Poller{
		fetcher: fetcher,
		opts:    opts,
		log:     opts.Logger.Named("jobs"),
		view:    View{JobID: id, Polling: id != ""},
		wake:    make(chan struct{}, 1),
	}
}

// View returns a copy of the current view.
func (p *Poller) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view.clone()
}

// SetJob switches to a new job id and re-enables polling. Results still in
// flight for the previous id are discarded.
func (p *Poller) SetJob(id api.ID) {
	p.mu.Lock()
	p.gen++
	p.view = View{JobID: id, Polling: id != ""}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	var timer *time.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	defer stop()

	for {
		p.mu.Lock()
		id, gen, active := p.view.JobID, p.gen, p.view.Polling
		p.mu.Unlock()

		var next <-chan time.Time
		if active {
			status, err := p.fetch(ctx, id)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if p.apply(gen, status, err) {
				timer = time.NewTimer(p.opts.Interval)
				next = timer.C
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
			stop()
		case <-next:
			timer = nil
		}
	}
}

// fetch runs one poll cycle, retrying transient failures.
func (p *Poller) fetch(ctx context.Context, id api.ID) (*api.JobStatus, error) {
	var status *api.JobStatus
	attempts := 0
	op := func() error {
		attempts++
		s, err := p.fetcher.JobStatus(ctx, id)
		if err != nil {
			if permanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if s == nil {
			return backoff.Permanent(errEmptyStatus)
		}
		status = s
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.opts.RetryDelay), uint64(p.opts.Retries)),
		ctx,
	)
	notify := func(err error, delay time.Duration) {
		p.log.Debug("job status fetch failed, retrying",
			zap.String("job_id", string(id)),
			zap.Int("attempt", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return status, nil
}

// apply records a poll result and reports whether polling continues.
func (p *Poller) apply(gen uint64, status *api.JobStatus, err error) bool {
	p.mu.Lock()
	if gen != p.gen {
		active := p.view.Polling
		p.mu.Unlock()
		return active
	}

	v := &p.view
	v.Fetches++
	v.UpdatedAt = time.Now()
	if err != nil {
		v.Err = err
		if api.IsReauthRequired(err) {
			v.Polling = false
		}
	} else {
		v.Status = status
		v.Err = nil
		if status.State().Terminal() {
			v.Polling = false
		}
	}
	snapshot := v.clone()
	p.mu.Unlock()

	switch {
	case err != nil:
		p.log.Warn("job status poll failed", zap.String("job_id", string(snapshot.JobID)), zap.Error(err))
	case !snapshot.Polling:
		p.log.Info("job reached terminal state",
			zap.String("job_id", string(snapshot.JobID)),
			zap.String("state", string(snapshot.State())),
		)
	}
	if p.opts.OnUpdate != nil {
		p.opts.OnUpdate(snapshot)
	}
	return snapshot.Polling
}

// permanent reports errors that another attempt cannot fix.
func permanent(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case api.IsReauthRequired(err):
		return true
	case api.IsKind(err, api.KindUnauthorized),
		api.IsKind(err, api.KindForbidden),
		api.IsKind(err, api.KindNotFound),
		api.IsKind(err, api.KindValidation),
		api.IsKind(err, api.KindDecode):
		return true
	}
	return false
}
