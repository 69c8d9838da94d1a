// Package web opens "http" and "https" references with a plain GET.
package web

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gobeaver/tikakit"
)

// Adapter fetches documents over HTTP(S)
type Adapter struct {
	client    *http.Client
	userAgent string
}

// Option configures an Adapter
type Option func(*Adapter)

// WithHTTPClient sets the client used for requests
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.client = client
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(a *Adapter) {
		a.userAgent = userAgent
	}
}

// maxRedirects matches net/http's default limit
const maxRedirects = 10

// New creates a web source. Redirects are followed only to references the
// caller's access policy allows (see tikakit.CheckReference).
func New(opts ...Option) *Adapter {
	a := &Adapter{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "tikakit",
	}
	for _, opt := range opts {
		opt(a)
	}

	client := *a.client
	client.CheckRedirect = checkRedirect(a.client.CheckRedirect)
	a.client = &client
	return a
}

func checkRedirect(next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if next != nil {
			if err := next(req, via); err != nil {
				return err
			}
		} else if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		if err := tikakit.CheckReference(req.Context(), req.URL.String()); err != nil {
			return fmt.Errorf("redirect to %s: %w", req.URL.Redacted(), err)
		}
		return nil
	}
}

// Open implements tikakit.Source. The response body is streamed, not buffered.
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URLString(), nil)
	if err != nil {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: tikakit.ErrNotExist}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	name := ref.Name()
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	return &tikakit.Document{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}, nil
}

var _ tikakit.Source = (*Adapter)(nil)
