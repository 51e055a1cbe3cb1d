// Package logtail reads and formats seer's log file for "seer logs".
//
// # Reading
//
// Read returns the last maxLines lines of a file using a ring buffer, so a
// large log costs O(maxLines) memory. A missing file is not an error; it
// returns nil. A maxLines of zero or less returns every line.
//
//	lines, err := logtail.Read("~/.local/state/seer/seer.log", 400)
//
// # Formatting
//
// seer writes JSON lines through zap. Parse decodes one into an Entry and
// Format turns it into a header plus one detail line per field:
//
//	2025-10-08 21:01:05 WARN [seer.api] – request rejected
//	    - path: /api/orders/
//	    - status: 403
//
// Lines that are not JSON objects (a panic trace, say) pass through
// unchanged.
//
// # Colorization
//
// A Palette holds lipgloss styles for timestamps, levels, logger names,
// separators and details. DefaultPalette targets dark terminals. With a
// palette of unstyled lipgloss styles Colorize produces exactly Format's
// output.
package logtail
