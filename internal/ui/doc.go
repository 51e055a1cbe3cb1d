// Package ui provides the terminal dashboard behind "seer watch".
//
// # Architecture Overview
//
// The dashboard is a Bubble Tea program that watches the analysis jobs of a
// single order. It never polls the API for job status itself: the order
// poller in internal/app writes into a state.Store and the UI reads a copy on
// every tick. The UI only calls the API for user actions (cancelling a job,
// opening a report) through the small Backend interface.
//
// # Package Structure
//
//   - app.go: Model, Update loop, messages and commands, Run
//   - header.go: Status bar and command hints
//   - queue.go: Job table and the titled box frame
//   - detail.go: Detail pane for the selected job, with a progress bar
//   - report.go: Report viewer backed by a viewport
//   - modal.go: Modal interface and the cancel confirmation
//   - help.go, keys.go: Help overlay and key bindings
//   - theme.go, style_helpers.go: Themes and background-safe rendering
//   - strings.go, layout.go: Formatting helpers and layout constants
//
// # Views
//
//   - Jobs: table of jobs (running first) beside a detail pane
//   - Report: the rendered report of a completed job
//
// # Keyboard Shortcuts
//
//	j/k, g/G         move in the table (or scroll the focused pane)
//	ctrl+d/ctrl+u    half page down/up
//	tab              switch between table and detail pane
//	enter            open the report of a completed job
//	c                cancel the selected job (asks first)
//	T                cycle theme (saved to prefs)
//	h/?              help
//	esc              back to jobs
//	e/ctrl+c         quit
//
// # Header States
//
// Before the first successful poll the header shows a spinner, or the
// classified error while the poller retries. Once the order loads it shows
// per-state counts, overall progress, time left on the access token, and an
// OFFLINE badge after two failed polls in a row. When the session is lost
// it shows LOGIN REQUIRED; polling has stopped by then and the dashboard
// stays up so the last known state remains visible.
//
// # Themes
//
// Nightfox, Kanagawa and Slate. Each maps job states to colors through
// StatusColors; StatusStyle renders them as badges.
package ui
