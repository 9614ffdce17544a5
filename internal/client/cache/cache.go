// Package cache implements a namespaced TTL read cache on top of storage.KV.
//
// Entries are JSON objects {"data": ..., "timestamp": ms, "ttl": ms} stored under
// "<namespace>:<key>". An entry is valid while now-timestamp <= ttl; expired
// entries are removed when read. Backend failures are logged and never returned.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/metrics"
	"github.com/iudanet/scholardesk/internal/client/storage"
)

const (
	DefaultNamespace = "scholardesk_cache"
	DefaultTTL       = 5 * time.Minute
)

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	TTL       int64           `json:"ttl"`
}

// Cache is safe for concurrent use as long as the backend is.
// Concurrent writers of the same key: last one wins
type Cache struct {
	kv         storage.KV
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	namespace  string
	defaultTTL time.Duration
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger for swallowed failures
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithMetrics sets hit/miss/eviction counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithDefaultTTL sets the TTL used when Set gets ttl <= 0
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// New creates a cache over kv. An empty namespace falls back to DefaultNamespace
func New(kv storage.KV, namespace string, opts ...Option) *Cache {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Cache{
		kv:         kv,
		namespace:  namespace,
		defaultTTL: DefaultTTL,
		now:        time.Now,
		log:        zap.NewNop(),
		metrics:    metrics.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Namespace returns the key prefix of this cache without the separator
func (c *Cache) Namespace() string {
	return c.namespace
}

func (c *Cache) storageKey(key string) string {
	return c.namespace + ":" + key
}

// Get returns the cached value for key. ok is false on miss, on expiry and on
// any storage or decode failure
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	sk := c.storageKey(key)

	raw, err := c.kv.Get(ctx, sk)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.Warn("cache read failed", zap.String("key", sk), zap.Error(err))
		}
		c.metrics.CacheMisses.Inc()
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn("cache entry corrupt, dropping", zap.String("key", sk), zap.Error(err))
		c.remove(ctx, sk)
		c.metrics.CacheMisses.Inc()
		return nil, false
	}

	if c.now().UnixMilli()-e.Timestamp > e.TTL {
		c.remove(ctx, sk)
		c.metrics.CacheEvictions.Inc()
		c.metrics.CacheMisses.Inc()
		return nil, false
	}

	c.metrics.CacheHits.Inc()
	return e.Data, true
}

// Set stores a JSON value under key with the current timestamp.
// ttl <= 0 means the default TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	sk := c.storageKey(key)

	raw, err := json.Marshal(entry{
		Data:      json.RawMessage(value),
		Timestamp: c.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	})
	if err != nil {
		c.log.Warn("cache entry encode failed", zap.String("key", sk), zap.Error(err))
		return
	}

	if err := c.kv.Set(ctx, sk, raw); err != nil {
		c.log.Warn("cache write failed", zap.String("key", sk), zap.Error(err))
	}
}

// Clear removes every entry of the namespace
func (c *Cache) Clear(ctx context.Context) {
	keys, err := c.kv.Keys(ctx, c.namespace+":")
	if err != nil {
		c.log.Warn("cache clear failed", zap.String("namespace", c.namespace), zap.Error(err))
		return
	}
	for _, k := range keys {
		c.remove(ctx, k)
	}
	c.log.Debug("cache cleared", zap.String("namespace", c.namespace), zap.Int("entries", len(keys)))
}

func (c *Cache) remove(ctx context.Context, sk string) {
	if err := c.kv.Remove(ctx, sk); err != nil {
		c.log.Warn("cache remove failed", zap.String("key", sk), zap.Error(err))
	}
}

// Key builds a cache key from an endpoint and its query.
// url.Values.Encode sorts by parameter name, so equal queries give equal keys
func Key(endpoint string, query url.Values) string {
	endpoint = strings.TrimSpace(endpoint)
	if len(query) == 0 {
		return endpoint
	}
	encoded := query.Encode()
	if encoded == "" {
		return endpoint
	}
	return endpoint + "?" + encoded
}
