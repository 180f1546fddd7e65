package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logmon/internal/catalog"
)

// StartRescanner refreshes the catalog every interval until ctx is cancelled.
// A failed pass keeps the previous catalog; the service logs the cause.
func StartRescanner(ctx context.Context, svc *catalog.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "rescan"))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if _, err := svc.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("periodic discovery failed", zap.Error(err))
			}
		}
	}()
}
