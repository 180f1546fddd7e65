// Package state shares the latest log catalog between the viewer's poller
// and its UI.
//
// The poller calls Store.Update after every /api/logs round trip; the UI
// reads Store.Snapshot on its own tick. A failed poll keeps the previous
// logs and records the error, so the viewer keeps showing the last good
// catalog while it reports the server as unreachable:
//
//	store.Update(&list, nil) // replace logs, clear error, reset failures
//	store.Update(nil, err)   // keep logs, record err, count a failure
//
// Snapshot returns deep copies; callers may modify them freely. The zero
// Store is ready to use.
package state
