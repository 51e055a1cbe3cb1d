// Package jobs polls analysis job status until the job finishes.
//
// A Poller fetches immediately, then once per interval, and stops on its own
// once the job is completed, failed or cancelled. Transient fetch failures are
// retried a few times within a cycle before being reported in View.Err; the
// next cycle still runs. Losing the session stops polling because no later
// cycle could succeed.
package jobs
