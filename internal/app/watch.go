package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logmon/internal/client"
	"github.com/five82/logmon/internal/prefs"
	"github.com/five82/logmon/internal/state"
	"github.com/five82/logmon/internal/ui"
)

const availabilityTimeout = 3 * time.Second

// WatchOptions configure the terminal viewer.
type WatchOptions struct {
	Server    string        // empty uses the saved server, then 127.0.0.1:8080
	PrefsPath string        // empty uses ~/.config/logmon/prefs.toml
	PollEvery time.Duration // zero uses the server's updateInterval
	Logger    *zap.Logger
}

// Watch runs the terminal viewer against a logmon server until the user quits
// or ctx is cancelled.
func Watch(ctx context.Context, opts WatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	if opts.Server != "" {
		userPrefs.Server = opts.Server
	}

	c, err := client.New(userPrefs.Server)
	if err != nil {
		return fmt.Errorf("init logmon client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	remote, err := c.FetchConfig(checkCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("logmon server at %s is not reachable: %w", c.BaseURL(), err)
	}

	interval := opts.PollEvery
	if interval <= 0 && remote.UpdateInterval > 0 {
		interval = time.Duration(remote.UpdateInterval) * time.Millisecond
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger.Info("watching",
		zap.String("server", c.BaseURL()),
		zap.Duration("poll", interval),
		zap.Int("max_lines", remote.MaxEntriesPerTag),
	)

	store := &state.Store{}
	// Populate the store before the first frame.
	refresh(ctx, store, c, false, logger)
	StartPoller(ctx, store, c, interval, defaultRediscoverEvery, logger)

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    c,
		Store:     store,
		PollTick:  interval,
		MaxLines:  remote.MaxEntriesPerTag,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Server:    c.BaseURL(),
	})
}
