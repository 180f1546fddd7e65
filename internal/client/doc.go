// Package client provides an HTTP client for the logmon server API.
//
// The client covers the JSON endpoints (/api/logs, /api/refresh,
// /api/config, /api/tags) and raw log downloads. A download reports whether
// the server returned only the tail of the file via the X-Partial-Content
// header.
//
//	c, err := client.New("127.0.0.1:8080")
//	if err != nil {
//		return err
//	}
//	logs, err := c.FetchLogs(ctx)
//
// Non-2xx responses become *APIError carrying the server's JSON error
// message; IsNotFound identifies a missing log file.
package client
