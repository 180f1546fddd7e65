package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/client"
	"github.com/five82/logmon/internal/discovery"
)

// Snapshot represents the latest catalog view available to the viewer.
type Snapshot struct {
	Logs                []discovery.Entry
	HasLogs             bool
	GeneratedAt         time.Time // server-side catalog generation
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the server has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Tags groups the snapshot's logs by tag in first-seen order.
func (s Snapshot) Tags() []catalog.TagCount {
	var out []catalog.TagCount
	idx := make(map[string]int)
	for _, e := range s.Logs {
		if i, ok := idx[e.Tag]; ok {
			out[i].Count++
			continue
		}
		idx[e.Tag] = len(out)
		out = append(out, catalog.TagCount{Tag: e.Tag, Count: 1})
	}
	return out
}

// ByTag returns the logs carrying tag in catalog order. An empty tag
// returns every log.
func (s Snapshot) ByTag(tag string) []discovery.Entry {
	if tag == "" {
		return cloneLogs(s.Logs)
	}
	var out []discovery.Entry
	for _, e := range s.Logs {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(list *client.LogList, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if list != nil {
		s.snapshot.Logs = cloneLogs(list.Logs)
		s.snapshot.GeneratedAt = list.GeneratedAt()
		s.snapshot.HasLogs = true
	} else {
		s.snapshot.Logs = nil
		s.snapshot.GeneratedAt = time.Time{}
		s.snapshot.HasLogs = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Logs = cloneLogs(s.snapshot.Logs)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneLogs(items []discovery.Entry) []discovery.Entry {
	if len(items) == 0 {
		return nil
	}
	dup := make([]discovery.Entry, len(items))
	copy(dup, items)
	return dup
}
