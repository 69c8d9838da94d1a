package tikakit

import (
	"context"
	"io"
)

// ============================================================================
// Engine Interface
// ============================================================================

// Engine is the external document-understanding capability the Client
// delegates to. Format sniffing, parsing, decryption, archive recursion and
// language models all live behind it.
//
// Implementations decode their wire payloads at this boundary (see
// DecodeMetadata and DecodeLanguage) and must be safe for concurrent use.
type Engine interface {
	// ExtractText returns the plain text of the document, honouring
	// opts.MaxLength and opts.Password.
	ExtractText(ctx context.Context, ref string, opts *Options) (string, error)

	// ExtractXHTML returns an HTML rendition of the document.
	ExtractXHTML(ctx context.Context, ref string, opts *Options) (string, error)

	// ExtractMeta returns the document metadata. A non-empty
	// opts.ContentType skips type detection.
	ExtractMeta(ctx context.Context, ref string, opts *Options) (Metadata, error)

	// DetectContentType returns the MIME type of the document.
	DetectContentType(ctx context.Context, ref string) (string, error)

	// DetectCharset returns the character encoding of the document. A
	// non-empty opts.ContentType skips type detection.
	DetectCharset(ctx context.Context, ref string, opts *Options) (string, error)

	// DetectContentTypeAndCharset returns "type; charset=X" in one pass.
	DetectContentTypeAndCharset(ctx context.Context, ref string) (string, error)

	// DetectLanguage identifies the language of text.
	DetectLanguage(ctx context.Context, text string) (Language, error)
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================
// Use type assertion to check if an engine supports a capability:
//
//	if pinger, ok := engine.(CanPing); ok {
//	    err := pinger.Ping(ctx)
//	}

// CanPing indicates the engine can report whether its backend is reachable.
type CanPing interface {
	Ping(ctx context.Context) error
}

// ============================================================================
// Document Sources
// ============================================================================

// Document is an opened document body plus what the source knows about it.
type Document struct {
	// Name is the resource name reported to the engine, usually the base name
	// of the reference.
	Name string

	// ContentType is the type the source reported, if any. Informational only.
	ContentType string

	// Size is the body length in bytes, or -1 when unknown.
	Size int64

	// Body streams the document. The caller must close it.
	Body io.ReadCloser
}

// Close closes the document body
func (d *Document) Close() error {
	if d == nil || d.Body == nil {
		return nil
	}
	return d.Body.Close()
}

// Source opens references of the schemes it is registered for.
type Source interface {
	Open(ctx context.Context, ref *Reference) (*Document, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, ref *Reference) (*Document, error)

// Open implements Source
func (f SourceFunc) Open(ctx context.Context, ref *Reference) (*Document, error) {
	return f(ctx, ref)
}

// Opener opens a raw reference string. Engines that need the document bytes
// (rather than fetching them remotely) take an Opener; SourceRouter is the
// standard implementation.
type Opener interface {
	Open(ctx context.Context, ref string) (*Document, error)
}
