// Package tikaserver implements tikakit.Engine on top of Apache Tika Server's
// REST API.
//
// Documents are opened through a tikakit.Opener and streamed to the server,
// so any reference scheme with a registered source works, whether or not the
// server itself could reach it.
package tikaserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gobeaver/tikakit"
	"github.com/sirupsen/logrus"
)

// Tika Server endpoints
const (
	pathTika     = "/tika"
	pathMeta     = "/meta"
	pathDetect   = "/detect/stream"
	pathLanguage = "/language/string"
	pathVersion  = "/version"
)

// Request headers understood by Tika Server
const (
	headerPassword = "Password"
)

// undeterminedLanguage is the code Tika reports when it cannot decide
const undeterminedLanguage = "un"

// Engine talks to a running Tika Server.
type Engine struct {
	baseURL    string
	opener     tikakit.Opener
	httpClient *http.Client
	userAgent  string
	logger     *logrus.Logger
	server     *Server
}

// Option configures an Engine
type Option func(*Engine)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = client
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(e *Engine) {
		e.userAgent = userAgent
	}
}

// WithLogger sets the logger for request tracing
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithServer hands ownership of a started server to the engine. Close shuts
// it down.
func WithServer(server *Server) Option {
	return func(e *Engine) {
		e.server = server
	}
}

// New creates an engine for the Tika Server at baseURL, opening documents
// through opener.
func New(baseURL string, opener tikakit.Opener, opts ...Option) (*Engine, error) {
	if baseURL == "" {
		return nil, errors.New("tika server URL is required")
	}
	if opener == nil {
		return nil, errors.New("opener is required")
	}

	e := &Engine{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		opener:     opener,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  "tikakit",
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// URL returns the server base URL
func (e *Engine) URL() string {
	return e.baseURL
}

// ============================================================================
// Requests
// ============================================================================

// putDocument opens ref and streams it to the endpoint. The caller must close
// the response body. The document name is returned for metadata fix-ups.
func (e *Engine) putDocument(ctx context.Context, endpoint, accept, ref string, opts *tikakit.Options) (*http.Response, string, error) {
	doc, err := e.opener.Open(ctx, ref)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.baseURL+endpoint, doc.Body)
	if err != nil {
		doc.Close()
		return nil, "", err
	}
	if doc.Size >= 0 {
		req.ContentLength = doc.Size
	}
	req.Header.Set("Accept", accept)
	if doc.Name != "" {
		req.Header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	}
	setOptionHeaders(req.Header, opts)

	resp, err := e.do(req, ref)
	if err != nil {
		return nil, "", err
	}
	return resp, doc.Name, nil
}

// setOptionHeaders maps per-call options onto Tika request headers. Extra
// fields are sent verbatim, which is how Tika's X-Tika-* parser settings
// are passed.
func setOptionHeaders(h http.Header, opts *tikakit.Options) {
	if opts == nil {
		return
	}
	if opts.Password != "" {
		h.Set(headerPassword, opts.Password)
	}
	if opts.ContentType != "" {
		h.Set("Content-Type", opts.ContentType)
	}
	for k, v := range opts.Extra {
		h.Set(k, v)
	}
}

func (e *Engine) do(req *http.Request, ref string) (*http.Response, error) {
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	fields := logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"ref":      ref,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		e.logger.WithFields(fields).WithError(err).Debug("tika request failed")
		return nil, err
	}
	fields["status"] = resp.StatusCode
	e.logger.WithFields(fields).Debug("tika request")

	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func readAll(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading tika response: %w", err)
	}
	return string(data), nil
}

// readRunes reads at most n runes of the response. n <= 0 reads everything.
func readRunes(resp *http.Response, n int) (string, error) {
	if n <= 0 {
		return readAll(resp)
	}
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		c, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading tika response: %w", err)
		}
		sb.WriteRune(c)
	}
	return sb.String(), nil
}

// ============================================================================
// tikakit.Engine
// ============================================================================

// ExtractText implements tikakit.Engine
func (e *Engine) ExtractText(ctx context.Context, ref string, opts *tikakit.Options) (string, error) {
	resp, _, err := e.putDocument(ctx, pathTika, "text/plain", ref, opts)
	if err != nil {
		return "", err
	}
	var maxLength int
	if opts != nil {
		maxLength = opts.MaxLength
	}
	return readRunes(resp, maxLength)
}

// ExtractXHTML implements tikakit.Engine
func (e *Engine) ExtractXHTML(ctx context.Context, ref string, opts *tikakit.Options) (string, error) {
	resp, _, err := e.putDocument(ctx, pathTika, "text/html", ref, opts)
	if err != nil {
		return "", err
	}
	return readAll(resp)
}

// ExtractMeta implements tikakit.Engine
func (e *Engine) ExtractMeta(ctx context.Context, ref string, opts *tikakit.Options) (tikakit.Metadata, error) {
	resp, name, err := e.putDocument(ctx, pathMeta, "application/json", ref, opts)
	if err != nil {
		return nil, err
	}
	payload, err := readAll(resp)
	if err != nil {
		return nil, err
	}
	meta, err := tikakit.DecodeMetadata([]byte(payload))
	if err != nil {
		return nil, err
	}
	if !meta.Has(tikakit.MetaResourceName) && name != "" {
		meta[tikakit.MetaResourceName] = []string{name}
	}
	return meta, nil
}

// DetectContentType implements tikakit.Engine
func (e *Engine) DetectContentType(ctx context.Context, ref string) (string, error) {
	resp, _, err := e.putDocument(ctx, pathDetect, "text/plain", ref, nil)
	if err != nil {
		return "", err
	}
	contentType, err := readAll(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(contentType), nil
}

// DetectCharset implements tikakit.Engine. The charset is the
// Content-Encoding metadata field, or the charset parameter of Content-Type.
// An empty result means no charset applies (binary formats).
func (e *Engine) DetectCharset(ctx context.Context, ref string, opts *tikakit.Options) (string, error) {
	meta, err := e.ExtractMeta(ctx, ref, opts)
	if err != nil {
		return "", err
	}
	_, charset := splitContentType(meta)
	return charset, nil
}

// DetectContentTypeAndCharset implements tikakit.Engine with a single /meta
// request.
func (e *Engine) DetectContentTypeAndCharset(ctx context.Context, ref string) (string, error) {
	meta, err := e.ExtractMeta(ctx, ref, nil)
	if err != nil {
		return "", err
	}
	mediaType, charset := splitContentType(meta)
	if charset == "" {
		return mediaType, nil
	}
	return mediaType + "; charset=" + charset, nil
}

// splitContentType returns the bare media type and the charset reported in meta.
func splitContentType(meta tikakit.Metadata) (string, string) {
	contentType := meta.ContentType()
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
		mediaType = strings.TrimSpace(mediaType)
	}
	charset := strings.TrimSpace(meta.Get(tikakit.MetaContentEncoding))
	if charset == "" {
		charset = params["charset"]
	}
	return mediaType, charset
}

// DetectLanguage implements tikakit.Engine. Tika reports a bare code without
// a confidence value; every determined code is treated as reasonably certain.
func (e *Engine) DetectLanguage(ctx context.Context, text string) (tikakit.Language, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.baseURL+pathLanguage, strings.NewReader(text))
	if err != nil {
		return tikakit.Language{}, err
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", "text/plain; charset=UTF-8")

	resp, err := e.do(req, "")
	if err != nil {
		return tikakit.Language{}, err
	}
	payload, err := readAll(resp)
	if err != nil {
		return tikakit.Language{}, err
	}

	code := strings.ToLower(strings.TrimSpace(payload))
	if code == "" || code == undeterminedLanguage {
		return tikakit.Language{}, &tikakit.SerializationError{Op: tikakit.OpLanguage, Payload: payload, Err: ErrUndeterminedLanguage}
	}
	lang := tikakit.Language{Code: code, ReasonablyCertain: true}
	if err := lang.Validate(); err != nil {
		return tikakit.Language{}, &tikakit.SerializationError{Op: tikakit.OpLanguage, Payload: payload, Err: err}
	}
	return lang, nil
}

// ============================================================================
// Optional capabilities
// ============================================================================

// Version returns the server's version string, e.g. "Apache Tika 2.9.2".
func (e *Engine) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+pathVersion, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.do(req, "")
	if err != nil {
		return "", err
	}
	version, err := readAll(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(version), nil
}

// Ping implements tikakit.CanPing
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.Version(ctx)
	return err
}

// Close shuts down the server owned by the engine, if any.
func (e *Engine) Close() error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown()
}

var (
	_ tikakit.Engine  = (*Engine)(nil)
	_ tikakit.CanPing = (*Engine)(nil)
	_ io.Closer       = (*Engine)(nil)
)
