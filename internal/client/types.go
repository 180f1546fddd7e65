package client

import (
	"time"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/discovery"
)

// HeaderPartialContent marks a log body that holds only the file's tail.
const HeaderPartialContent = "X-Partial-Content"

// LogList mirrors the /api/logs response.
type LogList struct {
	Logs      []discovery.Entry `json:"logs"`
	Count     int               `json:"count"`
	Timestamp float64           `json:"timestamp"`
}

// GeneratedAt returns the catalog generation time.
func (l LogList) GeneratedAt() time.Time {
	return discovery.FromUnixSeconds(l.Timestamp)
}

// TagList mirrors the /api/tags response.
type TagList struct {
	Tags []catalog.TagCount `json:"tags"`
}

// Content is a downloaded log body.
type Content struct {
	Data    []byte
	Partial bool
}
