package tikakit

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Size constants for readable limits, e.g. 50 * MB
const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
)

// ErrTooLarge is returned when a document exceeds the size limit
var ErrTooLarge = errors.New("document exceeds size limit")

// LimitedSource wraps a Source and refuses documents larger than a byte
// limit. Documents of known size are rejected on open; streams of unknown
// size fail with ErrTooLarge once the limit is crossed.
type LimitedSource struct {
	source   Source
	maxBytes int64
}

// NewLimitedSource wraps source with a maxBytes limit.
func NewLimitedSource(source Source, maxBytes int64) (*LimitedSource, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("size limit must be positive, got %d", maxBytes)
	}
	return &LimitedSource{source: source, maxBytes: maxBytes}, nil
}

// MaxBytes returns the limit
func (l *LimitedSource) MaxBytes() int64 {
	return l.maxBytes
}

// Unwrap returns the underlying Source.
func (l *LimitedSource) Unwrap() Source {
	return l.source
}

// Open implements Source
func (l *LimitedSource) Open(ctx context.Context, ref *Reference) (*Document, error) {
	doc, err := l.source.Open(ctx, ref)
	if err != nil {
		return nil, err
	}

	if doc.Size > l.maxBytes {
		doc.Close()
		return nil, &ProcessingError{
			Op:  "open",
			Ref: ref.Raw,
			Err: fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, doc.Size, l.maxBytes),
		}
	}

	doc.Body = &sizeLimitBody{ReadCloser: doc.Body, remaining: l.maxBytes, limit: l.maxBytes}
	return doc, nil
}

// sizeLimitBody fails reads once more than limit bytes have been read.
type sizeLimitBody struct {
	io.ReadCloser
	remaining int64
	limit     int64
}

func (b *sizeLimitBody) Read(p []byte) (int, error) {
	if b.remaining < 0 {
		return 0, b.tooLarge()
	}
	// Read at most one byte past the limit to detect overflow.
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.ReadCloser.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n + int(b.remaining), b.tooLarge()
	}
	return n, err
}

func (b *sizeLimitBody) tooLarge() error {
	return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, b.limit)
}

// IsTooLarge reports whether err was caused by a document over the size limit
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

var _ Source = (*LimitedSource)(nil)
