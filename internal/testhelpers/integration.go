//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-relay/internal/cache"
	"github.com/kjstillabower/weather-relay/internal/client"
	"github.com/kjstillabower/weather-relay/internal/config"
	"github.com/kjstillabower/weather-relay/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey        string
	APIURL        string
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if VISUAL_CROSSING_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	apiKey := os.Getenv(config.APIKeyEnv)
	if apiKey == "" {
		t.Skip(config.APIKeyEnv + " not set, skipping integration test")
	}

	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		APIKey:        apiKey,
		APIURL:        os.Getenv("WEATHER_API_URL"),
		CacheBackend:  os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationForwarder creates a Forwarder against the live provider.
// Returns the forwarder, its cache, and a cleanup function.
func SetupIntegrationForwarder(t *testing.T, cfg IntegrationTestConfig) (*service.Forwarder, cache.Cache, func()) {
	weatherClient, err := client.NewVisualCrossingClient(cfg.APIKey, cfg.APIURL, 15*time.Second)
	if err != nil {
		t.Fatalf("NewVisualCrossingClient() error = %v", err)
	}

	var cacheSvc cache.Cache = cache.NewLRUCache(cache.DefaultCapacity)
	cleanup := func() {}
	if cfg.CacheBackend == "memcached" {
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil && mc.Ping() == nil {
			cacheSvc = mc
			cleanup = func() { _ = mc.Close() }
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available, using in-memory cache")
		}
	}

	return service.NewForwarder(weatherClient, cacheSvc), cacheSvc, cleanup
}
