package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

// Set via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

func versionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return version + " (" + commit + ")"
}
