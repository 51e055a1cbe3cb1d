// Package api provides an authenticated HTTP client for the fortune backend.
//
// # Overview
//
// The client wraps the backend's JSON REST API. Every request carries the
// access token found in a tokens.Store; when the backend answers 401 the
// client refreshes the token once and replays the request. Callers only see
// decoded payloads or a classified *Error.
//
// # Architecture
//
//   - client.go: request descriptors, dispatch, response classification
//   - refresh.go: the refresher, which owns the idle/refreshing state and the
//     queue of requests waiting for a new token
//   - errors.go: *Error, Kind and ErrReauthRequired
//   - auth.go, profiles.go, orders.go, jobs.go, reports.go: endpoint services
//   - pagination.go: Page, ListOptions and Collect
//   - validate.go, sanitize.go: local input validation and report HTML cleanup
//
// # Client Usage
//
//	store := tokens.NewFileStore(cfg.TokenFile)
//	client, err := api.NewClient(cfg.APIURL,
//		api.WithTokenStore(store),
//		api.WithLogger(logger),
//		api.WithReauthHandler(func(err error) { fmt.Println("run seer login") }),
//	)
//	if err != nil {
//		return err
//	}
//	status, err := client.JobStatus(ctx, jobID)
//
// # Token Refresh
//
// A 401 on a request that has not been retried moves the refresher from idle
// to refreshing and issues a single POST /api/auth/refresh/. Any request that
// hits 401 while that call is in flight is queued instead of refreshing on its
// own. When the refresh succeeds the new tokens are stored and the queue is
// released first in, first out; each request is rebuilt from its descriptor
// and replayed with the new token. When it fails, or when no refresh token is
// stored, the tokens are cleared, the re-authentication handler fires and the
// original request plus every queued one fail with an error that matches
// ErrReauthRequired.
//
// A second 401 for the same logical request is final. Login, registration,
// refresh and verify calls never enter the refresh path.
//
// The refresh call runs with its own timeout, detached from the caller's
// context, so a cancelled caller cannot wipe the session of everyone queued
// behind it.
//
// # Error Handling
//
// Failures are reported as *Error with a Kind:
//
//   - KindUnauthorized: 401 that could not be recovered
//   - KindForbidden, KindNotFound: 403 and 404
//   - KindValidation: 400 and 422, with field errors in Fields
//   - KindServer: 5xx
//   - KindNetwork: no response was received
//   - KindRequest, KindDecode: local encoding or decoding problems
//
// Message extracts the text worth showing to a user.
package api
