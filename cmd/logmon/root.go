package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/logmon/internal/logging"
)

type globalFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "logmon",
		Short: "Discover, classify and serve application log files",
		Long: `logmon scans directories for log files, classifies them by tag with
configurable filename patterns, and serves the catalog and file tails over
HTTP. The watch command follows a running server from the terminal.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", logging.FormatConsole, "log format (console, json)")

	root.AddCommand(
		newServeCmd(flags),
		newScanCmd(flags),
		newWatchCmd(flags),
	)
	return root
}

func (f *globalFlags) logger(out io.Writer) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  f.logLevel,
		Format: f.logFormat,
		Output: out,
	})
}

// addConfigFlags registers the flags shared by serve and scan.
func addConfigFlags(cmd *cobra.Command, configPath, baseDir *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", "", "config file (.json, .toml, .yaml; default ./config.json)")
	cmd.Flags().StringVar(baseDir, "base-dir", "", "directory for relative scan paths and static files (default: the config file's directory)")
}
