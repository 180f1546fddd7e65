// Package logtail reads log files with a bounded byte budget.
//
// # Overview
//
// Log files grow without limit, but a single HTTP response should not. Read
// returns a whole file when it fits in the budget and otherwise only its tail,
// so the cost of serving a log is proportional to the budget rather than to
// the file size.
//
// # Tail Alignment
//
// When a file is larger than maxBytes, Read:
//
//  1. Reads the final maxBytes bytes with a single ReadAt
//  2. Drops everything up to and including the first '\n' in that window
//  3. Returns the remainder with Truncated set
//
// Step 2 guarantees the tail never starts mid-line. It also drops one whole
// line when the window happens to begin exactly on a line boundary. When the
// window contains no newline at all (one enormous final line) the result is
// empty; callers still get Truncated so they can tell "empty file" from
// "nothing line-aligned to show".
//
// Example usage:
//
//	content, err := logtail.Read("/var/log/app/api.1.errors.log", 512*1024)
//	if err != nil {
//		return err
//	}
//	w.Header().Set("X-Partial-Content", strconv.FormatBool(content.Truncated))
//	w.Write(content.Data)
//
// # Which Files Are Tailed
//
// IsLogFile reports whether a name ends in ".log" (case-sensitive). Only such
// files are subject to the byte budget; the HTTP layer serves every other
// file type whole.
//
// # Line Tails
//
// Lines splits content into at most the last N lines using a ring buffer of
// size N, which keeps memory at O(N) for callers that render line-oriented
// views:
//
//	1. Allocate ring buffer of size maxLines
//	2. For each line: store at current index, advance (wrapping)
//	3. If fewer than maxLines were seen return them in order
//	4. Otherwise return the buffer starting at the oldest line
//
// # Error Handling
//
// Read wraps every failure ("open log", "stat log", "read log tail") and
// preserves the cause, so errors.Is(err, os.ErrNotExist) works for files that
// disappeared between discovery and serving. Directories and other
// non-regular files are rejected.
package logtail
