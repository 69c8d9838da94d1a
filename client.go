package tikakit

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"
)

// Operation names used in errors, logs and cache keys
const (
	OpText           = "text"
	OpXHTML          = "xhtml"
	OpMeta           = "meta"
	OpType           = "type"
	OpCharset        = "charset"
	OpTypeAndCharset = "typeAndCharset"
	OpLanguage       = "language"
)

// Client is the extraction facade. It forwards each call to its Engine and
// hands back typed results. A Client holds no per-call state and is safe for
// concurrent use.
type Client struct {
	engine   Engine
	defaults []Option
	sources  *SourceRouter
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithDefaultOptions sets options applied before the per-call options of
// every call. Per-call options override them.
func WithDefaultOptions(options ...Option) ClientOption {
	return func(c *Client) {
		c.defaults = append(c.defaults, options...)
	}
}

// NewClient creates a Client backed by engine.
func NewClient(engine Engine, options ...ClientOption) (*Client, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	c := &Client{engine: engine}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Engine returns the engine behind the client
func (c *Client) Engine() Engine {
	return c.engine
}

// Sources returns the source router of a client built by New, or nil.
func (c *Client) Sources() *SourceRouter {
	return c.sources
}

func (c *Client) options(options []Option) *Options {
	if len(c.defaults) == 0 {
		return processOptions(options...)
	}
	all := make([]Option, 0, len(c.defaults)+len(options))
	all = append(all, c.defaults...)
	all = append(all, options...)
	return processOptions(all...)
}

// Text extracts the plain text of the document at ref. With WithMaxLength(n)
// the result is cut to exactly n characters when the document is longer.
func (c *Client) Text(ctx context.Context, ref string, options ...Option) (string, error) {
	return c.text(ctx, ref, c.options(options))
}

func (c *Client) text(ctx context.Context, ref string, opts *Options) (string, error) {
	text, err := c.engine.ExtractText(ctx, ref, opts)
	if err != nil {
		return "", NewProcessingError(OpText, ref, err)
	}
	return truncateRunes(text, opts.MaxLength), nil
}

// XHTML extracts an HTML rendition of the document at ref.
func (c *Client) XHTML(ctx context.Context, ref string, options ...Option) (string, error) {
	xhtml, err := c.engine.ExtractXHTML(ctx, ref, c.options(options))
	if err != nil {
		return "", NewProcessingError(OpXHTML, ref, err)
	}
	return xhtml, nil
}

// Meta extracts the metadata of the document at ref. WithContentType skips
// type detection.
func (c *Client) Meta(ctx context.Context, ref string, options ...Option) (Metadata, error) {
	return c.meta(ctx, ref, c.options(options))
}

func (c *Client) meta(ctx context.Context, ref string, opts *Options) (Metadata, error) {
	meta, err := c.engine.ExtractMeta(ctx, ref, opts)
	if err != nil {
		return nil, NewProcessingError(OpMeta, ref, err)
	}
	return meta, nil
}

// Extract returns the text and metadata of the document at ref. Text runs
// first; when it fails the metadata is not requested. When only the metadata
// fails, the text is returned along with the error.
func (c *Client) Extract(ctx context.Context, ref string, options ...Option) (string, Metadata, error) {
	opts := c.options(options)
	text, err := c.text(ctx, ref, opts)
	if err != nil {
		return "", nil, err
	}
	meta, err := c.meta(ctx, ref, opts)
	if err != nil {
		return text, nil, err
	}
	return text, meta, nil
}

// Type detects the MIME type of the document at ref.
func (c *Client) Type(ctx context.Context, ref string) (string, error) {
	contentType, err := c.engine.DetectContentType(ctx, ref)
	if err != nil {
		return "", NewProcessingError(OpType, ref, err)
	}
	return strings.TrimSpace(contentType), nil
}

// ContentType is an alias for Type
func (c *Client) ContentType(ctx context.Context, ref string) (string, error) {
	return c.Type(ctx, ref)
}

// Charset detects the character encoding of the document at ref.
// WithContentType skips type detection.
func (c *Client) Charset(ctx context.Context, ref string, options ...Option) (string, error) {
	charset, err := c.engine.DetectCharset(ctx, ref, c.options(options))
	if err != nil {
		return "", NewProcessingError(OpCharset, ref, err)
	}
	return strings.TrimSpace(charset), nil
}

// TypeAndCharset detects "type; charset=X" in a single engine pass.
func (c *Client) TypeAndCharset(ctx context.Context, ref string) (string, error) {
	result, err := c.engine.DetectContentTypeAndCharset(ctx, ref)
	if err != nil {
		return "", NewProcessingError(OpTypeAndCharset, ref, err)
	}
	return strings.TrimSpace(result), nil
}

// Language identifies the natural language of text.
func (c *Client) Language(ctx context.Context, text string) (Language, error) {
	lang, err := c.engine.DetectLanguage(ctx, text)
	if err != nil {
		return Language{}, NewProcessingError(OpLanguage, "", err)
	}
	lang.Code = strings.ToLower(strings.TrimSpace(lang.Code))
	if err := lang.Validate(); err != nil {
		return Language{}, &SerializationError{Op: OpLanguage, Payload: lang.Code, Err: err}
	}
	return lang, nil
}

// Ping checks the engine backend when the engine supports it.
func (c *Client) Ping(ctx context.Context) error {
	if pinger, ok := c.engine.(CanPing); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Close releases the engine when it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// truncateRunes cuts s to n runes. n <= 0 means no limit.
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RuneCount is the length measure used by WithMaxLength
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}
