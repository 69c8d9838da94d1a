package tikakit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// EngineFactory creates an Engine from config. The opener gives engines that
// upload document bodies access to the configured sources.
type EngineFactory func(cfg *Config, opener Opener) (Engine, error)

// SourceFactory creates a Source from config
type SourceFactory func(cfg *Config) (Source, error)

// CacheFactory creates a Cache from config
type CacheFactory func(cfg *Config) (Cache, error)

var (
	engineFactories = make(map[string]EngineFactory)
	sourceFactories = make(map[string]SourceFactory)
	cacheFactories  = map[string]CacheFactory{
		"memory": func(cfg *Config) (Cache, error) {
			c := NewMemoryCache()
			c.StartJanitor(janitorInterval(cfg.CacheTTLSeconds))
			return c, nil
		},
	}
	factoryMutex sync.RWMutex
)

// maxJanitorInterval bounds how long expired entries linger
const maxJanitorInterval = 10 * time.Minute

// janitorInterval sweeps expired entries once per TTL, capped at
// maxJanitorInterval.
func janitorInterval(ttlSeconds int) time.Duration {
	d := time.Duration(ttlSeconds) * time.Second
	if d <= 0 || d > maxJanitorInterval {
		return maxJanitorInterval
	}
	return d
}

// RegisterEngine registers an engine factory function
func RegisterEngine(name string, factory EngineFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	engineFactories[name] = factory
}

// RegisterSource registers a source factory for a reference scheme
func RegisterSource(scheme string, factory SourceFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	sourceFactories[strings.ToLower(scheme)] = factory
}

// RegisterCache registers a cache backend factory
func RegisterCache(name string, factory CacheFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	cacheFactories[name] = factory
}

// CreateEngine creates the engine named by cfg.Engine
func CreateEngine(cfg *Config, opener Opener) (Engine, error) {
	factoryMutex.RLock()
	factory, exists := engineFactories[cfg.Engine]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrEngineNotRegistered, cfg.Engine)
	}

	return factory(cfg, opener)
}

// CreateSource creates the source registered for scheme
func CreateSource(scheme string, cfg *Config) (Source, error) {
	factoryMutex.RLock()
	factory, exists := sourceFactories[strings.ToLower(scheme)]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, scheme)
	}

	return factory(cfg)
}

// CreateCache creates the cache backend named by cfg.CacheBackend
func CreateCache(cfg *Config) (Cache, error) {
	factoryMutex.RLock()
	factory, exists := cacheFactories[cfg.CacheBackend]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("cache backend %s not registered", cfg.CacheBackend)
	}

	return factory(cfg)
}

// RegisteredSchemes returns the schemes with a registered source factory
func RegisteredSchemes() []string {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()

	schemes := make([]string, 0, len(sourceFactories))
	for s := range sourceFactories {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}
