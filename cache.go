package tikakit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// ============================================================================
// Cache Interface
// ============================================================================

// Cache defines the interface for result cache backends.
// Values are opaque byte slices so that remote backends (Redis) and the
// in-memory cache share one contract.
//
// Implementations should be thread-safe.
type Cache interface {
	// Get retrieves a value. The bool is false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every value whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values.
	Clear(ctx context.Context) error
}

// CacheStats provides statistics about cache usage.
// Implementations may optionally support this interface.
type CacheStats interface {
	// Stats returns cache statistics.
	Stats() CacheStatistics
}

// CacheStatistics contains cache performance metrics.
type CacheStatistics struct {
	Hits    int64
	Misses  int64
	Size    int64
	HitRate float64
}

// ============================================================================
// In-Memory Cache Implementation
// ============================================================================

// cacheEntry represents a single cache entry with expiration.
type cacheEntry struct {
	value      []byte
	expiration time.Time
	hasExpiry  bool
}

// MemoryCache is a simple in-memory cache implementation.
// It is thread-safe and supports TTL-based expiration.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	hits    int64
	misses  int64

	janitorMu   sync.Mutex
	stopJanitor chan struct{}
	janitorDone chan struct{}
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false, nil
	}

	if entry.hasExpiry && time.Now().After(entry.expiration) {
		delete(c.entries, key)
		c.misses++
		return nil, false, nil
	}

	c.hits++
	return entry.value, true, nil
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiration = time.Now().Add(ttl)
		entry.hasExpiry = true
	}
	c.entries[key] = entry
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// DeletePrefix removes all values whose key starts with prefix.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	return nil
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() CacheStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStatistics{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    int64(len(c.entries)),
		HitRate: hitRate,
	}
}

// Cleanup removes expired entries from the cache.
// Call this periodically to prevent memory leaks from expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if entry.hasExpiry && now.After(entry.expiration) {
			delete(c.entries, key)
		}
	}
}

// StartJanitor runs Cleanup every interval until Close. Calling it again
// replaces the running janitor.
func (c *MemoryCache) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.stop()

	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stopJanitor, c.janitorDone = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the janitor, if any. The cache stays usable.
func (c *MemoryCache) Close() error {
	c.stop()
	return nil
}

func (c *MemoryCache) stop() {
	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()
	if c.stopJanitor == nil {
		return
	}
	close(c.stopJanitor)
	<-c.janitorDone
	c.stopJanitor, c.janitorDone = nil, nil
}

// Ensure MemoryCache implements Cache and CacheStats
var (
	_ Cache      = (*MemoryCache)(nil)
	_ CacheStats = (*MemoryCache)(nil)
)

// ============================================================================
// CachingEngine Decorator
// ============================================================================

// CachingEngine wraps an Engine to cache detection and metadata results.
// Only small results are cached (Meta, Type, Charset, TypeAndCharset and
// Language). Text and XHTML always reach the engine.
//
// Example:
//
//	cache := tikakit.NewMemoryCache()
//	engine = tikakit.NewCachingEngine(engine, cache,
//	    tikakit.WithCacheTTL(5 * time.Minute),
//	)
//
//	// First call hits the engine
//	meta, _ := engine.ExtractMeta(ctx, "report.pdf", nil)
//
//	// Second call returns the cached result
//	meta, _ = engine.ExtractMeta(ctx, "report.pdf", nil)
type CachingEngine struct {
	engine Engine
	cache  Cache
	opts   CacheOptions
}

// CacheOptions configures the CachingEngine behavior.
type CacheOptions struct {
	// TTL is the time-to-live for cache entries.
	// Default: 5 minutes
	TTL time.Duration

	// CacheLanguage enables caching of DetectLanguage results.
	// Default: true
	CacheLanguage bool

	// RefFilter optionally filters which references are cached.
	// If nil, all references are cached.
	RefFilter func(ref string) bool

	// KeyPrefix is prepended to all cache keys.
	// Default: "tikakit:"
	KeyPrefix string

	// OnCacheHit is called when a cache hit occurs.
	OnCacheHit func(op, ref string)

	// OnCacheMiss is called when a cache miss occurs.
	OnCacheMiss func(op, ref string)

	// OnCacheError is called when the backend fails. The engine result is
	// still returned.
	OnCacheError func(op, ref string, err error)
}

// CacheOption is a functional option for configuring CachingEngine.
type CacheOption func(*CacheOptions)

// WithCacheTTL sets the TTL for cache entries.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(o *CacheOptions) {
		o.TTL = ttl
	}
}

// WithCacheLanguage enables or disables caching of language results.
func WithCacheLanguage(enabled bool) CacheOption {
	return func(o *CacheOptions) {
		o.CacheLanguage = enabled
	}
}

// WithCacheRefFilter sets a filter function for which references are cached.
func WithCacheRefFilter(filter func(ref string) bool) CacheOption {
	return func(o *CacheOptions) {
		o.RefFilter = filter
	}
}

// WithCacheKeyPrefix sets the prefix for cache keys.
func WithCacheKeyPrefix(prefix string) CacheOption {
	return func(o *CacheOptions) {
		o.KeyPrefix = prefix
	}
}

// WithCacheHitCallback sets the callback for cache hits.
func WithCacheHitCallback(callback func(op, ref string)) CacheOption {
	return func(o *CacheOptions) {
		o.OnCacheHit = callback
	}
}

// WithCacheMissCallback sets the callback for cache misses.
func WithCacheMissCallback(callback func(op, ref string)) CacheOption {
	return func(o *CacheOptions) {
		o.OnCacheMiss = callback
	}
}

// WithCacheErrorCallback sets the callback for backend failures.
func WithCacheErrorCallback(callback func(op, ref string, err error)) CacheOption {
	return func(o *CacheOptions) {
		o.OnCacheError = callback
	}
}

// NewCachingEngine creates a caching wrapper around an Engine.
func NewCachingEngine(engine Engine, cache Cache, opts ...CacheOption) *CachingEngine {
	options := CacheOptions{
		TTL:           5 * time.Minute,
		CacheLanguage: true,
		KeyPrefix:     "tikakit:",
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &CachingEngine{
		engine: engine,
		cache:  cache,
		opts:   options,
	}
}

// Unwrap returns the underlying Engine.
func (c *CachingEngine) Unwrap() Engine {
	return c.engine
}

// Cache returns the underlying Cache.
func (c *CachingEngine) Cache() Cache {
	return c.cache
}

// cacheKey builds "prefix + refhash:op:opthash".
func (c *CachingEngine) cacheKey(op, ref string, opts *Options) string {
	return c.refPrefix(ref) + op + ":" + hashOptions(opts)
}

func (c *CachingEngine) refPrefix(ref string) string {
	return c.opts.KeyPrefix + hashString(ref) + ":"
}

func (c *CachingEngine) shouldCache(ref string) bool {
	if c.opts.RefFilter == nil {
		return true
	}
	return c.opts.RefFilter(ref)
}

// Invalidate drops every cached result for ref.
func (c *CachingEngine) Invalidate(ctx context.Context, ref string) error {
	return c.cache.DeletePrefix(ctx, c.refPrefix(ref))
}

// InvalidateAll clears the cache.
func (c *CachingEngine) InvalidateAll(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// cached implements the lookup, fetch and store cycle for one operation.
func cached[T any](ctx context.Context, c *CachingEngine, op, ref string, opts *Options, fetch func() (T, error)) (T, error) {
	if !c.shouldCache(ref) {
		return fetch()
	}

	key := c.cacheKey(op, ref, opts)

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.reportError(op, ref, err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			if c.opts.OnCacheHit != nil {
				c.opts.OnCacheHit(op, ref)
			}
			return v, nil
		}
		// A corrupt entry is treated as a miss and overwritten below.
	}

	if c.opts.OnCacheMiss != nil {
		c.opts.OnCacheMiss(op, ref)
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := c.cache.Set(ctx, key, data, c.opts.TTL); err != nil {
			c.reportError(op, ref, err)
		}
	}
	return v, nil
}

func (c *CachingEngine) reportError(op, ref string, err error) {
	if c.opts.OnCacheError != nil {
		c.opts.OnCacheError(op, ref, err)
	}
}

// ============================================================================
// Engine Interface - Pass-through Operations
// ============================================================================

// ExtractText is never cached.
func (c *CachingEngine) ExtractText(ctx context.Context, ref string, opts *Options) (string, error) {
	return c.engine.ExtractText(ctx, ref, opts)
}

// ExtractXHTML is never cached.
func (c *CachingEngine) ExtractXHTML(ctx context.Context, ref string, opts *Options) (string, error) {
	return c.engine.ExtractXHTML(ctx, ref, opts)
}

// ============================================================================
// Engine Interface - Cached Operations
// ============================================================================

// ExtractMeta returns metadata, using the cache when available.
func (c *CachingEngine) ExtractMeta(ctx context.Context, ref string, opts *Options) (Metadata, error) {
	return cached(ctx, c, OpMeta, ref, opts, func() (Metadata, error) {
		return c.engine.ExtractMeta(ctx, ref, opts)
	})
}

// DetectContentType returns the MIME type, using the cache when available.
func (c *CachingEngine) DetectContentType(ctx context.Context, ref string) (string, error) {
	return cached(ctx, c, OpType, ref, nil, func() (string, error) {
		return c.engine.DetectContentType(ctx, ref)
	})
}

// DetectCharset returns the charset, using the cache when available.
func (c *CachingEngine) DetectCharset(ctx context.Context, ref string, opts *Options) (string, error) {
	return cached(ctx, c, OpCharset, ref, opts, func() (string, error) {
		return c.engine.DetectCharset(ctx, ref, opts)
	})
}

// DetectContentTypeAndCharset returns "type; charset=X", using the cache when
// available.
func (c *CachingEngine) DetectContentTypeAndCharset(ctx context.Context, ref string) (string, error) {
	return cached(ctx, c, OpTypeAndCharset, ref, nil, func() (string, error) {
		return c.engine.DetectContentTypeAndCharset(ctx, ref)
	})
}

// DetectLanguage identifies the language of text, using the cache when
// available. Entries are keyed by a hash of the text.
func (c *CachingEngine) DetectLanguage(ctx context.Context, text string) (Language, error) {
	if !c.opts.CacheLanguage {
		return c.engine.DetectLanguage(ctx, text)
	}
	return cached(ctx, c, OpLanguage, "text:"+text, nil, func() (Language, error) {
		return c.engine.DetectLanguage(ctx, text)
	})
}

// Close closes the underlying engine when it holds resources.
func (c *CachingEngine) Close() error {
	var errs []error
	if closer, ok := c.engine.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if closer, ok := c.cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// Ping forwards to the underlying engine when it supports it.
func (c *CachingEngine) Ping(ctx context.Context) error {
	if pinger, ok := c.engine.(CanPing); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Warm pre-populates the cache with the metadata and type of refs.
// It stops at the first failure.
func (c *CachingEngine) Warm(ctx context.Context, refs ...string) error {
	for _, ref := range refs {
		if _, err := c.ExtractMeta(ctx, ref, nil); err != nil {
			return err
		}
		if _, err := c.DetectContentType(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ Engine  = (*CachingEngine)(nil)
	_ CanPing = (*CachingEngine)(nil)
)
