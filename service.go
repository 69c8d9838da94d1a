package tikakit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/sirupsen/logrus"
)

// Global instance
var (
	defaultClient *Client
	defaultOnce   sync.Once
	defaultErr    error
)

// Builder provides a way to create Client instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global Client instance using the builder's prefix
func (b *Builder) Init() error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg)
}

// New creates a new Client instance using the builder's prefix
func (b *Builder) New() (*Client, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Init initializes the global client instance
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultClient, defaultErr = New(cfg)
	})

	return defaultErr
}

// New creates a client from config: it mounts the enabled sources, creates
// the configured engine and wraps it with caching and logging as requested.
// Engines and sources must be registered first, typically by importing their
// packages for side effects.
func New(cfg *Config) (*Client, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	router, err := newRouter(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := CreateEngine(cfg, router)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if cfg.LogRequests {
		engine = NewLoggingEngine(engine, newLogger(cfg.LogLevel))
	}

	if cfg.CacheEnabled {
		cache, err := CreateCache(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		engine = NewCachingEngine(engine, cache,
			WithCacheTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
			WithCacheKeyPrefix(cfg.CacheKeyPrefix),
		)
	}

	var clientOptions []ClientOption
	if cfg.DefaultMaxLength > 0 {
		clientOptions = append(clientOptions, WithDefaultOptions(WithMaxLength(cfg.DefaultMaxLength)))
	}

	client, err := NewClient(engine, clientOptions...)
	if err != nil {
		return nil, err
	}
	client.sources = router
	return client, nil
}

// newRouter mounts a source for every enabled scheme, limited in size and
// restricted by the configured policy.
func newRouter(cfg *Config) (*SourceRouter, error) {
	policy := Policy{
		AllowSchemes:  splitList(cfg.AllowedSchemes),
		AllowPatterns: splitList(cfg.AllowedPatterns),
	}
	restricted := len(policy.AllowSchemes) > 0 || len(policy.AllowPatterns) > 0

	router := NewSourceRouter()
	for _, scheme := range cfg.SourceSchemes() {
		src, err := CreateSource(scheme, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s source: %w", scheme, err)
		}
		if cfg.MaxDocumentBytes > 0 {
			if src, err = NewLimitedSource(src, cfg.MaxDocumentBytes); err != nil {
				return nil, err
			}
		}
		if restricted {
			if src, err = NewRestrictedSource(src, policy); err != nil {
				return nil, err
			}
		}
		if err := router.Mount(scheme, src); err != nil {
			return nil, err
		}
	}
	return router, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Engine == "" {
		return errors.New("engine is required")
	}
	if cfg.Engine == "tika" && cfg.TikaURL == "" && cfg.TikaJarPath == "" {
		return errors.New("tika URL or jar path is required for tika engine")
	}
	if len(cfg.SourceSchemes()) == 0 {
		return errors.New("at least one source scheme is required")
	}
	if cfg.DefaultMaxLength < 0 {
		return errors.New("default max length cannot be negative")
	}
	if cfg.MaxDocumentBytes < 0 {
		return errors.New("max document bytes cannot be negative")
	}
	if cfg.CacheEnabled {
		if cfg.CacheBackend == "" {
			return errors.New("cache backend is required when caching is enabled")
		}
		if cfg.CacheTTLSeconds < 0 {
			return errors.New("cache TTL cannot be negative")
		}
	}
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	return nil
}

// Default returns the global instance, initializing if needed with error handling
func Default() (*Client, error) {
	if defaultClient == nil {
		if err := Init(); err != nil {
			return nil, err
		}
	}
	return defaultClient, nil
}

// NewFromEnv creates instance from environment variables (convenience constructor)
func NewFromEnv() (*Client, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultClient = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}

// ============================================================================
// Package-level operations on the global client
// ============================================================================

// Text extracts plain text using the global client
func Text(ctx context.Context, ref string, options ...Option) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.Text(ctx, ref, options...)
}

// Meta extracts metadata using the global client
func Meta(ctx context.Context, ref string, options ...Option) (Metadata, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.Meta(ctx, ref, options...)
}

// Extract extracts text and metadata using the global client
func Extract(ctx context.Context, ref string, options ...Option) (string, Metadata, error) {
	c, err := Default()
	if err != nil {
		return "", nil, err
	}
	return c.Extract(ctx, ref, options...)
}

// DetectType detects the MIME type using the global client
func DetectType(ctx context.Context, ref string) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.Type(ctx, ref)
}

// DetectLanguage identifies the language of text using the global client
func DetectLanguage(ctx context.Context, text string) (Language, error) {
	c, err := Default()
	if err != nil {
		return Language{}, err
	}
	return c.Language(ctx, text)
}
