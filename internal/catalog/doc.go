// Package catalog publishes the current set of discovered log files.
//
// A Service owns the server configuration and a pointer to the latest
// Catalog. Refresh runs discovery from scratch and swaps the pointer; the
// catalog is never mutated in place, so request handlers read it without
// locks and always observe one complete discovery run. Refresh itself is
// serialized so two walks never interleave.
//
// Lookup indexes (web path, filename, tag) are built before a catalog is
// published and are read-only afterwards.
package catalog
