package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/config"
	"github.com/five82/logmon/internal/discovery"
	"github.com/five82/logmon/internal/server"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ConfigOptions select and override the server configuration.
type ConfigOptions struct {
	ConfigPath string
	BaseDir    string // replaces the config file's directory when set
	Port       int    // replaces the configured port when positive
}

// ServeOptions configure the HTTP server.
type ServeOptions struct {
	ConfigOptions
	// Rescan rediscovers files on this cadence; zero disables it.
	Rescan time.Duration
	Logger *zap.Logger
	// Listener overrides the configured port. Tests pass a random port here.
	Listener net.Listener
}

// LoadConfig reads the configuration and applies overrides. A missing or
// unreadable config file is not fatal: the defaults are used and a warning is
// logged. An invalid final configuration is an error.
func LoadConfig(opts ConfigOptions, logger *zap.Logger) (config.Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		logger.Warn("using default configuration", zap.Error(err))
	}
	if opts.BaseDir != "" {
		dir, err := config.ExpandPath(opts.BaseDir)
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve base dir: %w", err)
		}
		cfg.BaseDir = dir
	}
	if opts.Port > 0 {
		cfg.Port = opts.Port
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Scan runs one discovery pass with the configured rules and scan paths.
func Scan(ctx context.Context, opts ConfigOptions, logger *zap.Logger) (discovery.Result, error) {
	cfg, err := LoadConfig(opts, logger)
	if err != nil {
		return discovery.Result{}, err
	}
	return discovery.New(cfg.BaseDir, cfg.LogPatterns).Discover(ctx, cfg.ScanPaths)
}

// Serve discovers logs, then serves the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := LoadConfig(opts.ConfigOptions, logger)
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		logger.Info("loaded config", zap.String("path", cfg.Source))
	}

	svc := catalog.NewService(cfg, logger)
	if _, err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("initial discovery: %w", err)
	}
	if opts.Rescan > 0 {
		StartRescanner(ctx, svc, opts.Rescan, logger)
	}

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.ListenAddr())
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.ListenAddr(), err)
		}
	}

	srv := &http.Server{
		Handler:           server.New(svc, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("addr", ln.Addr().String()),
			zap.String("base_dir", cfg.BaseDir),
			zap.Strings("scan_paths", cfg.ScanPaths),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
