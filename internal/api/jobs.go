package api

import (
	"context"
	"net/http"
	"net/url"
)

const pathJobs = "/api/analysis/jobs/"

func jobPath(id ID, suffix string) string {
	return pathJobs + url.PathEscape(string(id)) + "/" + suffix
}

// ListJobs returns one page of analysis jobs.
func (c *Client) ListJobs(ctx context.Context, opts ListOptions) (*Page[Job], error) {
	return listPage[Job](ctx, c, pathJobs, nil, opts)
}

// Job fetches a single job.
func (c *Client) Job(ctx context.Context, id ID) (*Job, error) {
	var j Job
	if err := c.get(ctx, jobPath(id, ""), nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// JobStatus fetches the lightweight status of a job.
func (c *Client) JobStatus(ctx context.Context, id ID) (*JobStatus, error) {
	var s JobStatus
	if err := c.get(ctx, jobPath(id, "status/"), nil, &s); err != nil {
		return nil, err
	}
	if s.JobID == "" {
		s.JobID = id
	}
	return &s, nil
}

// OrderJobs lists the jobs belonging to an order.
func (c *Client) OrderJobs(ctx context.Context, orderID ID) ([]Job, error) {
	return filtered[Job](ctx, c, pathJobs, url.Values{"order_id": {string(orderID)}})
}

// CancelJob asks the backend to stop a job.
func (c *Client) CancelJob(ctx context.Context, id ID) error {
	return c.send(ctx, http.MethodPost, jobPath(id, "cancel/"), nil, nil)
}
