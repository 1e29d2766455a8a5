package boundary

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/state-visit-map/internal/domain"
	"github.com/couchcryptid/state-visit-map/internal/observability"
)

// Source loads region boundaries and caches them in memory. Entries are keyed
// by path, size, and modification time so an edited file is re-read.
type Source struct {
	opts    Options
	read    func(path string, opts Options) ([]domain.Region, error)
	cache   *lru.Cache[string, []domain.Region]
	metrics *observability.Metrics
}

// NewSource creates a cached boundary source holding at most maxEntries files.
func NewSource(opts Options, maxEntries int, metrics *observability.Metrics) (*Source, error) {
	cache, err := lru.New[string, []domain.Region](max(maxEntries, 1))
	if err != nil {
		return nil, fmt.Errorf("create boundary cache: %w", err)
	}
	return &Source{
		opts:    opts,
		read:    ReadFile,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// Regions returns the parsed regions for path, reading the file on a cache miss.
func (s *Source) Regions(_ context.Context, path string) ([]domain.Region, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat boundary file: %w", err)
	}
	key := cacheKey(path, info)

	if regions, ok := s.cache.Get(key); ok {
		s.metrics.BoundaryCache.WithLabelValues("hit").Inc()
		return regions, nil
	}
	s.metrics.BoundaryCache.WithLabelValues("miss").Inc()

	regions, err := s.read(path, s.opts)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, regions)
	s.metrics.BoundaryRegions.Set(float64(len(regions)))
	return regions, nil
}

// Len reports how many boundary files are cached.
func (s *Source) Len() int { return s.cache.Len() }

func cacheKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}
