package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-relay/internal/cache"
	"github.com/kjstillabower/weather-relay/internal/client"
	"github.com/kjstillabower/weather-relay/internal/models"
	"github.com/kjstillabower/weather-relay/internal/observability"
)

// Forwarder answers (location, date) lookups from cache, falling back to the
// upstream provider on a miss and caching whatever the provider answered,
// error records included. Cached entries never expire.
type Forwarder struct {
	client          client.WeatherClient
	cache           cache.Cache
	stampedeTracker *stampedeTracker
}

// NewForwarder creates a Forwarder over the given client and cache.
func NewForwarder(client client.WeatherClient, cache cache.Cache) *Forwarder {
	return &Forwarder{
		client:          client,
		cache:           cache,
		stampedeTracker: newStampedeTracker(),
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Lookup returns the result for the exact (location, date) pair. A cache hit
// returns the stored value without contacting upstream. On a miss the provider
// is called synchronously and its answer, payload or error record, is cached.
// A non-nil error means upstream could not be reached; nothing is cached then.
func (f *Forwarder) Lookup(ctx context.Context, location, date string) (models.Result, error) {
	key := models.Key{Location: location, Date: date}
	start := time.Now()
	logger := loggerFromContext(ctx)

	cached, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		if logger != nil {
			logger.Warn("cache get failed, treating as miss", zap.Stringer("key", key), zap.Error(err))
		}
	} else if ok {
		observability.CacheHitsTotal.Inc()
		if cached.Failed() {
			observability.CachedErrorRecordsTotal.WithLabelValues("get").Inc()
		}
		if logger != nil {
			logger.Debug("weather served", zap.Stringer("key", key), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
		}
		return cached, nil
	}

	observability.CacheMissesTotal.Inc()
	if f.stampedeTracker.Begin(key) > 1 {
		observability.CacheStampedeDetectedTotal.Inc()
	}
	defer f.stampedeTracker.End(key)

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.Stringer("key", key))
	}

	result, err := f.client.Fetch(ctx, location, date)
	if err != nil {
		return models.Result{}, fmt.Errorf("fetch weather for %s: %w", key, err)
	}

	if result.Failed() {
		observability.CachedErrorRecordsTotal.WithLabelValues("set").Inc()
		if logger != nil {
			logger.Info("caching upstream error record", zap.Stringer("key", key), zap.Int("status", result.Error.Status))
		}
	}
	if setErr := f.cache.Set(ctx, key, result); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		if logger != nil {
			logger.Warn("cache set failed", zap.Stringer("key", key), zap.Error(setErr))
		}
	}
	if logger != nil {
		logger.Debug("weather served", zap.Stringer("key", key), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return result, nil
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") || strings.Contains(errStr, "connect") {
		return "connection"
	}
	return "unknown"
}
