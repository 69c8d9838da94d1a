package tikakit

import (
	"context"
	"sync"
)

// fakeEngine is a scripted Engine that counts calls per operation
type fakeEngine struct {
	mu       sync.Mutex
	calls    map[string]int
	lastOpts *Options
	closed   bool

	text        string
	xhtml       string
	meta        Metadata
	contentType string
	charset     string
	lang        Language
	err         error
	metaErr     error
	pingErr     error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		calls:       make(map[string]int),
		text:        "Hello, world",
		xhtml:       "<html><body><p>Hello, world</p></body></html>",
		meta:        Metadata{MetaContentType: {"text/plain; charset=UTF-8"}, MetaResourceName: {"hello.txt"}},
		contentType: "text/plain",
		charset:     "UTF-8",
		lang:        Language{Code: "en", ReasonablyCertain: true},
	}
}

func (f *fakeEngine) record(op string, opts *Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.lastOpts = opts
}

func (f *fakeEngine) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeEngine) ExtractText(_ context.Context, _ string, opts *Options) (string, error) {
	f.record(OpText, opts)
	return f.text, f.err
}

func (f *fakeEngine) ExtractXHTML(_ context.Context, _ string, opts *Options) (string, error) {
	f.record(OpXHTML, opts)
	return f.xhtml, f.err
}

func (f *fakeEngine) ExtractMeta(_ context.Context, _ string, opts *Options) (Metadata, error) {
	f.record(OpMeta, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta.Clone(), nil
}

func (f *fakeEngine) DetectContentType(_ context.Context, _ string) (string, error) {
	f.record(OpType, nil)
	return f.contentType, f.err
}

func (f *fakeEngine) DetectCharset(_ context.Context, _ string, opts *Options) (string, error) {
	f.record(OpCharset, opts)
	return f.charset, f.err
}

func (f *fakeEngine) DetectContentTypeAndCharset(_ context.Context, _ string) (string, error) {
	f.record(OpTypeAndCharset, nil)
	if f.charset == "" {
		return f.contentType, f.err
	}
	return f.contentType + "; charset=" + f.charset, f.err
}

func (f *fakeEngine) DetectLanguage(_ context.Context, _ string) (Language, error) {
	f.record(OpLanguage, nil)
	return f.lang, f.err
}

func (f *fakeEngine) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
