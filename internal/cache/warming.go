package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-relay/internal/models"
	"github.com/kjstillabower/weather-relay/internal/observability"
)

// warmWorkers bounds concurrent upstream lookups during warming.
const warmWorkers = 4

// Fetcher is implemented by the service layer to look up a (location, date) pair.
// Used by CacheWarmer to avoid a circular dependency on the service package.
type Fetcher interface {
	Lookup(ctx context.Context, location, date string) (models.Result, error)
}

// CacheWarmer prefetches configured lookups through the forwarder so they are
// resident before traffic arrives.
type CacheWarmer struct {
	fetcher Fetcher
	store   Cache
	logger  *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer. store may be nil, in which case every
// configured key is looked up.
func NewCacheWarmer(fetcher Fetcher, store Cache, logger *zap.Logger) *CacheWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheWarmer{fetcher: fetcher, store: store, logger: logger}
}

// Warm looks up each distinct key not already cached. The forwarder does not
// coalesce misses, so duplicates are dropped here to avoid paying upstream twice.
// Error records count as warmed since they are cached too; only faults are
// returned, joined into one error.
func (w *CacheWarmer) Warm(ctx context.Context, keys []models.Key) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()

	pending := w.pending(ctx, keys)
	w.logger.Info("warming cache",
		zap.Int("configured", len(keys)),
		zap.Int("pending", len(pending)))

	jobs := make(chan models.Key)
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for i := 0; i < min(warmWorkers, len(pending)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				if _, err := w.fetcher.Lookup(ctx, k.Location, k.Date); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("warm %s: %w", k, err))
					mu.Unlock()
				}
			}
		}()
	}
	for _, k := range pending {
		jobs <- k
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	w.logger.Info("cache warming complete",
		zap.Int("warmed", len(pending)-len(errs)),
		zap.Int("errors", len(errs)),
		zap.Float64("duration_seconds", duration))
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %w", errors.Join(errs...))
	}
	return nil
}

// pending returns keys in configured order with duplicates and cache hits removed.
// A cache read error leaves the key pending.
func (w *CacheWarmer) pending(ctx context.Context, keys []models.Key) []models.Key {
	seen := make(map[models.Key]struct{}, len(keys))
	var out []models.Key
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if w.store != nil {
			if _, ok, err := w.store.Get(ctx, k); err == nil && ok {
				continue
			}
		}
		out = append(out, k)
	}
	return out
}
