// Package state holds the order dashboard data shared between the order
// poller and the UI.
//
// # Overview
//
// The poller writes the watched order, its jobs and their latest statuses
// into a Store; the UI reads copies on its own tick. The Store is the only
// place the two goroutines meet.
//
//	Producer (poller):              Consumer (UI):
//	┌──────────────────┐           ┌──────────────────┐
//	│ Order()          │           │                  │
//	│ OrderJobs()      │           │                  │
//	│ FetchStatuses()  │           │                  │
//	│      ↓           │           │                  │
//	│ store.Update()   │──────────→│ store.Snapshot() │
//	└──────────────────┘  (mutex)  └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace order and jobs, clear the error
//	store.Update(order, jobs, nil)
//
//	// Failure: keep the previous data, record the error
//	store.Update(nil, nil, err)
//
// Two failures in a row mark the snapshot offline. An error matching
// api.ErrReauthRequired sets NeedsLogin so the UI can tell the user to run
// "seer login"; the next successful update clears it.
//
// SetJobStatus patches a single job, used after the user cancels one from
// the dashboard so the change shows before the next poll.
//
// # Copies
//
// Snapshot deep-copies the job slice, each status and the order's expert
// system list, so the UI can never mutate what the poller owns.
//
// The zero Store is ready to use.
package state
