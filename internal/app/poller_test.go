package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/client"
	"github.com/five82/logmon/internal/config"
	"github.com/five82/logmon/internal/discovery"
	"github.com/five82/logmon/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type stubFetcher struct {
	mu        sync.Mutex
	list      client.LogList
	err       error
	lists     int
	refreshes int
}

func (s *stubFetcher) FetchLogs(context.Context) (client.LogList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	return s.list, s.err
}

func (s *stubFetcher) Refresh(context.Context) (client.LogList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.list, s.err
}

func (s *stubFetcher) FetchConfig(context.Context) (config.File, error) {
	return config.File{}, nil
}

func (s *stubFetcher) FetchTags(context.Context) ([]catalog.TagCount, error) {
	return nil, nil
}

func (s *stubFetcher) FetchContent(context.Context, string) (client.Content, error) {
	return client.Content{}, nil
}

func (s *stubFetcher) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists, s.refreshes
}

func TestRefreshUpdatesStore(t *testing.T) {
	store := &state.Store{}
	fetcher := &stubFetcher{list: client.LogList{
		Logs:  []discovery.Entry{{Filename: "a.1.api.log", Tag: "api"}},
		Count: 1,
	}}

	if failures := refresh(context.Background(), store, fetcher, false, zap.NewNop()); failures != 0 {
		t.Fatalf("failures = %d, want 0", failures)
	}
	snap := store.Snapshot()
	if !snap.HasLogs || len(snap.Logs) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if lists, refreshes := fetcher.calls(); lists != 1 || refreshes != 0 {
		t.Fatalf("calls = %d lists, %d refreshes", lists, refreshes)
	}

	refresh(context.Background(), store, fetcher, true, zap.NewNop())
	if _, refreshes := fetcher.calls(); refreshes != 1 {
		t.Fatalf("rediscover should call Refresh, got %d", refreshes)
	}
}

func TestRefreshCountsFailuresAndKeepsData(t *testing.T) {
	store := &state.Store{}
	fetcher := &stubFetcher{list: client.LogList{Logs: []discovery.Entry{{Filename: "a.log"}}}}
	refresh(context.Background(), store, fetcher, false, zap.NewNop())

	fetcher.mu.Lock()
	fetcher.err = errors.New("connection refused")
	fetcher.mu.Unlock()

	refresh(context.Background(), store, fetcher, false, zap.NewNop())
	failures := refresh(context.Background(), store, fetcher, false, zap.NewNop())
	if failures != 2 {
		t.Fatalf("failures = %d, want 2", failures)
	}
	snap := store.Snapshot()
	if !snap.IsOffline() {
		t.Fatal("expected offline after two failures")
	}
	if len(snap.Logs) != 1 {
		t.Fatalf("previous logs should be kept, got %d", len(snap.Logs))
	}
}

func TestStartPollerStopsWithContext(t *testing.T) {
	store := &state.Store{}
	fetcher := &stubFetcher{}
	ctx, cancel := context.WithCancel(context.Background())

	StartPoller(ctx, store, fetcher, 10*time.Millisecond, 0, nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if lists, _ := fetcher.calls(); lists >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("poller did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(30 * time.Millisecond)
	before, _ := fetcher.calls()
	time.Sleep(50 * time.Millisecond)
	if after, _ := fetcher.calls(); after != before {
		t.Fatalf("poller kept running after cancel: %d -> %d", before, after)
	}
	if !store.Snapshot().HasLogs {
		t.Fatal("store was never updated")
	}
}
