package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"

	"github.com/kjstillabower/weather-relay/internal/models"
)

const keyPrefix = "weather:"

// MemcachedCache implements Cache using memcached. Each instance writes under
// its own random namespace, so a new process starts with an empty cache even
// when the server still holds a previous run's items. Items carry no expiration;
// memcached's own LRU bounds the working set in place of the in-memory capacity.
type MemcachedCache struct {
	client    *memcache.Client
	namespace string
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client, namespace: uuid.NewString()}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// itemKey hashes the lookup key: memcached keys are limited to 250 bytes
// without spaces or control characters, and locations may contain both.
func itemKey(namespace string, k models.Key) string {
	sum := sha256.Sum256([]byte(k.Location + "\x00" + k.Date))
	return keyPrefix + namespace + ":" + hex.EncodeToString(sum[:])
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, key models.Key) (models.Result, bool, error) {
	if ctx.Err() != nil {
		return models.Result{}, false, ctx.Err()
	}
	item, err := c.client.Get(itemKey(c.namespace, key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return models.Result{}, false, nil
		}
		return models.Result{}, false, err
	}
	var res models.Result
	if err := json.Unmarshal(item.Value, &res); err != nil {
		return models.Result{}, false, err
	}
	return res, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key models.Key, value models.Result) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:   itemKey(c.namespace, key),
		Value: raw,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
