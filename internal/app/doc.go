// Package app is the composition root of the seer order dashboard.
//
// # Overview
//
// Run loads configuration, opens the token store, builds the API client,
// starts the order poller and hands the terminal to the UI:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()     Read ~/.config/seer/config.toml
//	       ├─────> logging.New()     JSON log file, never the terminal
//	       ├─────> Connect()         Token store + api.Client
//	       ├─────> StartPoller()     Background order refresh
//	       └─────> ui.Run()          Dashboard (blocks)
//
// The order comes from Options.OrderID or, when empty, the order watched
// last time (stored in prefs).
//
// # Polling Behavior
//
// Each poll fetches the order, its job list and the status of every job
// that has not reached a terminal state, at most four status calls in
// flight. Jobs that already finished keep their last status. Failures
// double the wait up to 30 seconds.
//
// The poller stops on its own once every job is terminal or when the API
// client reports that the session is gone (api.ErrReauthRequired). In the
// second case the UI shows "run seer login" instead of retrying forever.
//
// # Token Stores
//
// OpenTokenStore picks the backend named in config: a TOML file (default),
// process memory, or a Redis key shared between machines.
package app
