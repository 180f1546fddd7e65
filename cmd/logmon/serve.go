package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/logmon/internal/app"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var opts app.ServeOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Discover log files and serve them over HTTP",
		Example: `  logmon serve
  logmon serve --config /etc/logmon/config.toml --port 9000
  logmon serve --rescan 30s --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := flags.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts.Logger = logger
			return app.Serve(cmd.Context(), opts)
		},
	}
	addConfigFlags(cmd, &opts.ConfigPath, &opts.BaseDir)
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port (default: the configured port)")
	cmd.Flags().DurationVar(&opts.Rescan, "rescan", 0, "rediscover files on this interval, e.g. 30s (default off)")
	return cmd
}
