package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/jobs"
	"github.com/five82/seer/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
	statusFetchLimit    = 4
)

// OrderSource is the slice of the API client the order poller needs.
type OrderSource interface {
	jobs.StatusFetcher
	Order(ctx context.Context, id api.ID) (*api.Order, error)
	OrderJobs(ctx context.Context, orderID api.ID) ([]api.Job, error)
}

var _ OrderSource = (*api.Client)(nil)

// StartPoller launches a background goroutine that refreshes the store with
// the order's jobs and their statuses. It returns immediately; the returned
// channel closes when the goroutine exits, either because ctx ended, every job
// reached a terminal state, or the session was lost.
func StartPoller(ctx context.Context, store *state.Store, source OrderSource, orderID api.ID, interval time.Duration, log *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("poller").With(zap.String("order", orderID.String()))

	done := make(chan struct{})
	go func() {
		defer close(done)

		retry := newRetryBackOff(interval)
		for {
			wait := interval
			if err := refresh(ctx, store, source, orderID, log); err != nil {
				if ctx.Err() != nil {
					return
				}
				wait = retry.NextBackOff()
				log.Debug("poll cycle failed", zap.Duration("retry_in", wait), zap.Error(err))
			} else {
				retry.Reset()
			}

			snap := store.Snapshot()
			if snap.NeedsLogin {
				log.Warn("session lost, polling stopped")
				return
			}
			if snap.Done() {
				log.Info("all jobs finished", zap.Int("jobs", len(snap.Jobs)))
				return
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// newRetryBackOff spaces retries after failed cycles: interval first, then
// doubling up to maxBackoff, forever.
func newRetryBackOff(interval time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// refresh runs one poll cycle. Jobs already known to be terminal keep their
// last status and are not fetched again.
func refresh(ctx context.Context, store *state.Store, source OrderSource, orderID api.ID, log *zap.Logger) error {
	order, err := source.Order(ctx, orderID)
	if err != nil {
		store.Update(nil, nil, err)
		log.Warn("order poll failed", zap.Error(err))
		return err
	}
	list, err := source.OrderJobs(ctx, orderID)
	if err != nil {
		store.Update(nil, nil, err)
		log.Warn("job list poll failed", zap.Error(err))
		return err
	}

	previous := make(map[api.ID]state.JobEntry)
	for _, entry := range store.Snapshot().Jobs {
		previous[entry.Job.ID] = entry
	}

	entries := make([]state.JobEntry, len(list))
	var pending []api.ID
	index := make(map[api.ID]int, len(list))
	for i, job := range list {
		entry := state.JobEntry{Job: job}
		if prev, ok := previous[job.ID]; ok {
			entry.Status = prev.Status
		}
		entries[i] = entry
		if !entry.Terminal() {
			pending = append(pending, job.ID)
			index[job.ID] = i
		}
	}

	for _, res := range jobs.FetchStatuses(ctx, source, pending, statusFetchLimit) {
		i := index[res.JobID]
		if res.Err != nil {
			if api.IsReauthRequired(res.Err) {
				store.Update(nil, nil, res.Err)
				return res.Err
			}
			entries[i].Err = res.Err
			log.Debug("job status failed", zap.String("job", res.JobID.String()), zap.Error(res.Err))
			continue
		}
		entries[i].Status = res.Status
	}

	store.Update(order, entries, nil)
	return nil
}
