// Package discovery finds and classifies log files under configured roots.
//
// A run walks each scan path in configuration order, depth-first and in
// lexical order within a directory. Every regular file ending in ".log" is
// offered to the pattern rules; the first matching rule supplies its tag and
// name, and files no rule matches are left out.
//
// Files are identified by their canonical path (symlinks resolved). A file
// reachable through overlapping scan paths or through symlinks appears once,
// under the first name that matched. Symlinked directories are followed but
// each canonical directory is walked once, so link cycles terminate.
//
// Nothing that goes wrong with a single path stops a run. Missing scan paths,
// unreadable directories and invalid rules become Diagnostics on the Result.
// The only error Discover returns is the context's, when cancelled.
//
// Results are snapshots: sizes and modification times are read at scan time
// and never updated. A new run starts from scratch and shares nothing with
// previous runs.
package discovery
