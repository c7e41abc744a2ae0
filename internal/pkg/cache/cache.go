package cache

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/karlseguin/ccache/v3"
	"github.com/sirupsen/logrus"
)

// Options configures a two-level cache. MemcachedHost is optional; without it
// only the in-process tier is used.
type Options struct {
	MaxSize       int64
	TTL           time.Duration
	MemcachedHost string
	Logger        logrus.FieldLogger
}

// Cache keeps values in a local ccache tier backed by an optional shared
// memcached tier. Values travel to memcached as JSON.
//
// Deleting a key cannot reach the local tier of other processes, so
// callers key entries by Generation and call Bump on change. The counter
// lives in memcached when it is configured. An entry is never served past
// TTL either way.
type Cache[T any] struct {
	local  *ccache.Cache[T]
	remote *memcache.Client
	ttl    time.Duration
	log    logrus.FieldLogger

	mu   sync.Mutex
	gens map[string]uint64
}

func New[T any](opts Options) *Cache[T] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		opts.Logger = discard
	}

	c := &Cache[T]{
		local: ccache.New(ccache.Configure[T]().MaxSize(opts.MaxSize)),
		ttl:   opts.TTL,
		log:   opts.Logger,
		gens:  make(map[string]uint64),
	}
	if opts.MemcachedHost != "" {
		c.remote = memcache.New(opts.MemcachedHost)
		c.log.WithField("host", opts.MemcachedHost).Info("cache: memcached tier enabled")
	}
	return c
}

// Get looks in the local tier first, then memcached. A memcached hit is
// copied into the local tier.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	if item := c.local.Get(key); item != nil && !item.Expired() {
		return item.Value(), true
	}
	if c.remote == nil {
		return zero, false
	}

	it, err := c.remote.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			c.log.WithField("key", key).WithError(err).Warn("cache: memcached get failed")
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(it.Value, &v); err != nil {
		c.log.WithField("key", key).WithError(err).Warn("cache: bad memcached payload")
		return zero, false
	}
	c.local.Set(key, v, c.ttl)
	return v, true
}

// Set stores v in both tiers.
func (c *Cache[T]) Set(key string, v T) {
	c.local.Set(key, v, c.ttl)
	if c.remote == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithField("key", key).WithError(err).Warn("cache: marshal failed")
		return
	}
	item := &memcache.Item{Key: key, Value: data, Expiration: int32(c.ttl / time.Second)}
	if err := c.remote.Set(item); err != nil {
		c.log.WithField("key", key).WithError(err).Warn("cache: memcached set failed")
	}
}

// Generation returns the current version of name. ok is false when the
// shared counter cannot be read; the caller should bypass the cache then.
func (c *Cache[T]) Generation(name string) (uint64, bool) {
	if c.remote == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.gens[name], true
	}

	it, err := c.remote.Get(genKey(name))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, true
	}
	if err != nil {
		c.log.WithField("key", name).WithError(err).Warn("cache: generation read failed")
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(it.Value)), 10, 64)
	if err != nil {
		c.log.WithField("key", name).WithError(err).Warn("cache: bad generation value")
		return 0, false
	}
	return n, true
}

// Bump moves name to a new generation. Entries stored under an older one
// are never read again and age out with the TTL.
func (c *Cache[T]) Bump(name string) {
	if c.remote == nil {
		c.mu.Lock()
		c.gens[name]++
		c.mu.Unlock()
		return
	}

	key := genKey(name)
	_, err := c.remote.Increment(key, 1)
	if errors.Is(err, memcache.ErrCacheMiss) {
		err = c.remote.Add(&memcache.Item{Key: key, Value: []byte("1")})
		if errors.Is(err, memcache.ErrNotStored) {
			// another process created it first
			_, err = c.remote.Increment(key, 1)
		}
	}
	if err != nil {
		c.log.WithField("key", name).WithError(err).Warn("cache: generation bump failed")
	}
}

func genKey(name string) string { return "gen:" + name }

// Close stops the local tier's background worker.
func (c *Cache[T]) Close() {
	c.local.Stop()
}
