package tikakit

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

const (
	testEngineName = "test-engine"
	testScheme     = "testdoc"
)

// testEngine reads documents through its opener and reports their content as
// text, so service tests exercise the full source wiring.
type testEngine struct {
	*fakeEngine
	opener Opener
}

func (e *testEngine) ExtractText(ctx context.Context, ref string, opts *Options) (string, error) {
	doc, err := e.opener.Open(ctx, ref)
	if err != nil {
		return "", err
	}
	defer doc.Close()
	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", err
	}
	e.record(OpText, opts)
	return string(data), nil
}

var lastTestEngine *testEngine

func init() {
	RegisterEngine(testEngineName, func(cfg *Config, opener Opener) (Engine, error) {
		lastTestEngine = &testEngine{fakeEngine: newFakeEngine(), opener: opener}
		return lastTestEngine, nil
	})
	RegisterSource(testScheme, func(cfg *Config) (Source, error) {
		return SourceFunc(func(ctx context.Context, ref *Reference) (*Document, error) {
			if ref.Host() == "missing" {
				return nil, ErrNotExist
			}
			body := "content of " + ref.Host() + ref.Path
			return &Document{Body: io.NopCloser(strings.NewReader(body)), Size: int64(len(body))}, nil
		}), nil
	})
	RegisterSource("broken", func(cfg *Config) (Source, error) {
		return nil, errors.New("cannot connect")
	})
}

func testConfig() Config {
	return Config{
		Engine:          testEngineName,
		Sources:         testScheme,
		CacheBackend:    "memory",
		CacheTTLSeconds: 60,
		CacheKeyPrefix:  "test:",
		LogLevel:        "info",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{"valid", func(c *Config) {}, false, ""},
		{"empty engine", func(c *Config) { c.Engine = "" }, true, "engine is required"},
		{"tika without url", func(c *Config) { c.Engine = "tika"; c.TikaURL = "" }, true, "tika URL or jar path"},
		{"tika with jar", func(c *Config) { c.Engine = "tika"; c.TikaJarPath = "/opt/tika-server.jar" }, false, ""},
		{"blank sources", func(c *Config) { c.Sources = " , " }, true, "source scheme"},
		{"negative max length", func(c *Config) { c.DefaultMaxLength = -1 }, true, "max length"},
		{"negative document limit", func(c *Config) { c.MaxDocumentBytes = -1 }, true, "max document bytes"},
		{"cache without backend", func(c *Config) { c.CacheEnabled = true; c.CacheBackend = "" }, true, "cache backend"},
		{"negative ttl", func(c *Config) { c.CacheEnabled = true; c.CacheTTLSeconds = -5 }, true, "TTL"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			err := validateConfig(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateConfig() error = %v, want error containing %v", err, tt.errMsg)
			}
		})
	}

	if err := validateConfig(nil); err == nil {
		t.Error("validateConfig(nil) should fail")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{"plain", func(c *Config) {}, false, ""},
		{"with cache and logging", func(c *Config) { c.CacheEnabled = true; c.LogRequests = true; c.LogLevel = "error" }, false, ""},
		{"unknown engine", func(c *Config) { c.Engine = "nope" }, true, "engine not registered"},
		{"unknown source", func(c *Config) { c.Sources = "nope" }, true, "nope source"},
		{"failing source", func(c *Config) { c.Sources = "broken" }, true, "cannot connect"},
		{"unknown cache", func(c *Config) { c.CacheEnabled = true; c.CacheBackend = "nope" }, true, "not registered"},
		{"bad pattern", func(c *Config) { c.AllowedPatterns = "[" }, true, "pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			client, err := New(&cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("New() error = %v, want error containing %v", err, tt.errMsg)
				}
				return
			}

			text, err := client.Text(ctx, "testdoc://host/a.txt")
			if err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			if text != "content of host/a.txt" {
				t.Errorf("Text() = %q", text)
			}
			if got := client.Sources().Schemes(); len(got) != 1 || got[0] != testScheme {
				t.Errorf("Sources().Schemes() = %v", got)
			}
		})
	}
}

func TestNewDecorators(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.LogRequests = true
	cfg.DefaultMaxLength = 7

	client, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	caching, ok := client.Engine().(*CachingEngine)
	if !ok {
		t.Fatalf("outer engine is %T, want *CachingEngine", client.Engine())
	}
	if _, ok := caching.Unwrap().(*LoggingEngine); !ok {
		t.Errorf("cached engine is %T, want *LoggingEngine", caching.Unwrap())
	}

	text, err := client.Text(ctx, "testdoc://host/long.txt")
	if err != nil {
		t.Fatal(err)
	}
	if text != "content" {
		t.Errorf("default max length not applied: %q", text)
	}

	for i := 0; i < 3; i++ {
		if _, err := client.Type(ctx, "testdoc://host/long.txt"); err != nil {
			t.Fatal(err)
		}
	}
	if n := lastTestEngine.count(OpType); n != 1 {
		t.Errorf("type reached the engine %d times, want 1", n)
	}
}

func TestNewWithPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.AllowedPatterns = "testdoc://public/**"

	client, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Text(ctx, "testdoc://public/a/b.txt"); err != nil {
		t.Errorf("allowed reference failed: %v", err)
	}
	_, err = client.Text(ctx, "testdoc://private/secret.txt")
	if !IsNotAllowed(err) {
		t.Errorf("Text() error = %v, want not allowed", err)
	}
	_, err = client.Text(ctx, "testdoc://missing/x.txt")
	if !IsNotAllowed(err) || IsNotExist(err) {
		t.Errorf("Text() error = %v, policy must reject before the source is opened", err)
	}
}

func TestNewWithDocumentLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDocumentBytes = 16

	client, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	// "content of host/a" is 17 bytes
	_, err = client.Text(context.Background(), "testdoc://host/a")
	if !IsTooLarge(err) {
		t.Errorf("Text() error = %v, want too large", err)
	}
	if text, err := client.Text(context.Background(), "testdoc://h/a"); err != nil || text != "content of h/a" {
		t.Errorf("Text() = %q, %v", text, err)
	}
}

func TestGlobalInstance(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg := testConfig()
	if err := Init(&cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	client, err := Default()
	if err != nil || client == nil {
		t.Fatalf("Default() = %v, %v", client, err)
	}

	ctx := context.Background()
	text, err := Text(ctx, "testdoc://host/x")
	if err != nil || text != "content of host/x" {
		t.Errorf("Text() = %q, %v", text, err)
	}
	if _, err := Meta(ctx, "testdoc://host/x"); err != nil {
		t.Errorf("Meta() error = %v", err)
	}
	if _, _, err := Extract(ctx, "testdoc://host/x"); err != nil {
		t.Errorf("Extract() error = %v", err)
	}
	if contentType, err := DetectType(ctx, "testdoc://host/x"); err != nil || contentType != "text/plain" {
		t.Errorf("DetectType() = %q, %v", contentType, err)
	}
	if lang, err := DetectLanguage(ctx, "hello"); err != nil || lang.Code != "en" {
		t.Errorf("DetectLanguage() = %+v, %v", lang, err)
	}

	// A second Init is a no-op.
	bad := Config{}
	if err := Init(&bad); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("BEAVER_TIKAKIT_ENGINE", testEngineName)
	t.Setenv("BEAVER_TIKAKIT_SOURCES", testScheme)

	client, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}
	if client.Sources() == nil {
		t.Error("client has no sources")
	}
}
