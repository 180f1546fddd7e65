package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/logmon/internal/app"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var (
		opts    app.WatchOptions
		poll    int
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a logmon server in the terminal",
		Example: `  logmon watch
  logmon watch --server http://build-box:8080 --poll 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The viewer owns the terminal, so logs only go to --log-file.
			logger := zap.NewNop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer func() { _ = f.Close() }()
				if logger, err = flags.logger(io.Writer(f)); err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			if poll > 0 {
				opts.PollEvery = time.Duration(poll) * time.Second
			}
			opts.Logger = logger
			return app.Watch(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Server, "server", "s", "", "server URL (default: last used, then http://127.0.0.1:8080)")
	cmd.Flags().IntVar(&poll, "poll", 0, "refresh interval in seconds (default: the server's updateInterval)")
	cmd.Flags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/logmon/prefs.toml)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write viewer logs to this file")
	return cmd
}
