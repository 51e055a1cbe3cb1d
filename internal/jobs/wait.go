package jobs

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/five82/seer/internal/api"
)

const defaultFetchConcurrency = 4

// Wait polls id until it reaches a terminal state, polling stops for good or a
// poll fails with an error another attempt cannot fix, and returns the final
// view. opts.OnUpdate still sees every update. When ctx ends first, the last
// poll error is joined to ctx.Err().
func Wait(ctx context.Context, fetcher StatusFetcher, id api.ID, opts Options) (View, error) {
	if id == "" {
		return View{}, fmt.Errorf("wait: job id is required")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var final View
	done := false
	inner := opts.OnUpdate
	opts.OnUpdate = func(v View) {
		if inner != nil {
			inner(v)
		}
		if !v.Polling || (v.Err != nil && permanent(v.Err)) {
			final, done = v, true
			cancel()
		}
	}

	p := New(fetcher, id, opts)
	err := p.Run(ctx)
	if !done {
		last := p.View()
		if last.Err != nil {
			err = errors.Join(err, last.Err)
		}
		return last, err
	}
	if final.Err != nil {
		return final, final.Err
	}
	return final, nil
}

// StatusResult pairs a job id with its fetched status or error.
type StatusResult struct {
	JobID  api.ID
	Status *api.JobStatus
	Err    error
}

// FetchStatuses fetches the statuses of ids concurrently, at most limit at a
// time (limit <= 0 uses 4). Per-job failures are reported in the results and
// do not cancel the others. Results keep the order of ids.
func FetchStatuses(ctx context.Context, fetcher StatusFetcher, ids []api.ID, limit int) []StatusResult {
	if limit <= 0 {
		limit = defaultFetchConcurrency
	}
	results := make([]StatusResult, len(ids))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		results[i].JobID = id
		g.Go(func() error {
			status, err := fetcher.JobStatus(ctx, id)
			results[i].Status, results[i].Err = status, err
			return nil
		})
	}
	_ = g.Wait()
	return results
}
