package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logmon/internal/client"
	"github.com/five82/logmon/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	// defaultRediscoverEvery asks the server to rescan so new files show up.
	defaultRediscoverEvery = 10 * time.Second
	maxBackoff             = 30 * time.Second
	pollTimeout            = 5 * time.Second
)

// StartPoller launches a background goroutine that keeps store current. Every
// rediscoverEvery it asks the server to rediscover instead of just listing.
// Consecutive failures back off exponentially. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, fetcher client.Fetcher, interval, rediscoverEvery time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "poller"))

	go func() {
		lastRediscover := time.Now()
		for {
			rediscover := rediscoverEvery > 0 && time.Since(lastRediscover) >= rediscoverEvery
			if rediscover {
				lastRediscover = time.Now()
			}
			failures := refresh(ctx, store, fetcher, rediscover, logger)

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// refresh performs one poll and returns the consecutive failure count.
func refresh(ctx context.Context, store *state.Store, fetcher client.Fetcher, rediscover bool, logger *zap.Logger) int {
	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	var (
		list client.LogList
		err  error
	)
	if rediscover {
		list, err = fetcher.Refresh(pollCtx)
	} else {
		list, err = fetcher.FetchLogs(pollCtx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		store.Update(nil, err)
		logger.Warn("log list poll failed", zap.Bool("rediscover", rediscover), zap.Error(err))
	} else {
		store.Update(&list, nil)
	}
	return store.Snapshot().ConsecutiveFailures
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
