// Package ui provides the terminal viewer behind `logmon watch`.
//
// # Architecture Overview
//
// The viewer is a Bubble Tea program. Model holds all state; Update reacts to
// key presses, window resizes, poll ticks and the results of background
// commands; View renders the frame with Lipgloss.
//
// The catalog comes from a state.Store kept current by the app poller. Log
// bodies are fetched by the model itself through client.Fetcher, parsed with
// logline and merged by timestamp, so a tag view interleaves every file that
// carries the tag.
//
// # Layout
//
//   - Header: server, file count, connection state, last update
//   - Tabs: "All" followed by each tag in catalog order
//   - Files: the files of the current tag, hidden on narrow terminals
//   - Log: merged records for the tag, or a single file once opened
//   - Status bar: line counts, level filter, search, date range, scroll mode
//
// # Key Bindings
//
//   - ] / [ or l / h: Next or previous tag
//   - Tab: Switch focus between the file list and the log
//   - Enter: Open the selected file; Esc returns to the tag view
//   - Space: Pause or resume polling
//   - a: Toggle auto-scroll
//   - f: Cycle the level filter
//   - /: Search; Esc clears an active search
//   - d / D: Set or clear the date/time range, e.g. 2025-11-25 08:00..2025-11-25
//   - r: Ask the server to rediscover files
//   - T: Cycle the theme
//   - ?: Help
//   - q or Ctrl+C: Quit
//
// Theme, tag, level filter and auto-scroll are saved to the prefs file on
// exit.
package ui
