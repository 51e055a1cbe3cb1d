package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutExtraWideWidth is the threshold above which the job table gets
	// the narrower share of the screen.
	LayoutExtraWideWidth = 160
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds cancel and report requests started from the UI.
	ActionTimeout = 15 * time.Second
)
