package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/logmon/internal/config"
	"github.com/five82/logmon/internal/discovery"
)

// Discoverer runs one discovery pass. *discovery.Engine implements it.
type Discoverer interface {
	Discover(ctx context.Context, scanPaths []string) (discovery.Result, error)
}

var _ Discoverer = (*discovery.Engine)(nil)

// Service owns the configuration and the currently published catalog.
// Reads are lock-free; Refresh calls are serialized.
type Service struct {
	cfg       config.Config
	engine    Discoverer
	logger    *zap.Logger
	current   atomic.Pointer[Catalog]
	refreshMu sync.Mutex
	now       func() time.Time
}

// NewService builds a Service whose discovery engine is derived from cfg.
// The published catalog is empty until the first Refresh.
func NewService(cfg config.Config, logger *zap.Logger) *Service {
	return NewServiceWithDiscoverer(cfg, discovery.New(cfg.BaseDir, cfg.LogPatterns), logger)
}

// NewServiceWithDiscoverer is NewService with an explicit discovery backend.
func NewServiceWithDiscoverer(cfg config.Config, d Discoverer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:    cfg,
		engine: d,
		logger: logger.With(zap.String("component", "catalog")),
		now:    time.Now,
	}
	s.current.Store(empty())
	return s
}

// Catalog returns the published catalog. It never returns nil.
func (s *Service) Catalog() *Catalog {
	return s.current.Load()
}

// Config returns the configuration the service was built with.
func (s *Service) Config() config.Config {
	cfg := s.cfg
	cfg.ScanPaths = append([]string(nil), s.cfg.ScanPaths...)
	cfg.LogPatterns = append(cfg.LogPatterns[:0:0], s.cfg.LogPatterns...)
	return cfg
}

// Refresh rediscovers log files and publishes the new catalog. Concurrent
// readers see either the previous catalog or the new one, never a mix. On
// error the previous catalog stays published.
func (s *Service) Refresh(ctx context.Context) (*Catalog, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := s.now()
	res, err := s.engine.Discover(ctx, s.cfg.ScanPaths)
	if err != nil {
		s.logger.Error("discovery failed", zap.Error(err))
		return s.Catalog(), fmt.Errorf("discover logs: %w", err)
	}

	for _, d := range res.Diagnostics {
		s.logger.Warn(d.Message,
			zap.String("code", d.Code),
			zap.String("path", d.Path),
		)
	}

	next := newCatalog(uuid.NewString(), s.now(), res)
	s.current.Store(next)

	s.logger.Info("discovery complete",
		zap.String("catalog_id", next.ID),
		zap.Int("logs", next.Len()),
		zap.Int("tags", len(next.tags)),
		zap.Int("warnings", len(next.Diagnostics)),
		zap.Duration("duration", s.now().Sub(start)),
	)
	for _, e := range next.entries {
		s.logger.Debug("found log",
			zap.String("file", e.Filename),
			zap.String("tag", e.Tag),
			zap.String("path", e.Path),
		)
	}
	return next, nil
}

// Resolve looks up an entry in the published catalog by web path, then by
// filename.
func (s *Service) Resolve(pathOrFilename string) (discovery.Entry, bool) {
	return s.Catalog().Resolve(pathOrFilename)
}

// Tags returns the published catalog's tags in first-seen order.
func (s *Service) Tags() []TagCount {
	return s.Catalog().Tags()
}

// Lookup returns the published entries carrying tag.
func (s *Service) Lookup(tag string) []discovery.Entry {
	return s.Catalog().Lookup(tag)
}
