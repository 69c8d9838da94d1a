package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gobeaver/tikakit"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine answers from a fixed table keyed by reference
type stubEngine struct {
	texts   map[string]string
	errs    map[string]error
	lastOpt *tikakit.Options
	pingErr error
}

func (s *stubEngine) lookup(ref string) (string, error) {
	if err, ok := s.errs[ref]; ok {
		return "", err
	}
	text, ok := s.texts[ref]
	if !ok {
		return "", fmt.Errorf("%s: %w", ref, tikakit.ErrNotExist)
	}
	return text, nil
}

func (s *stubEngine) ExtractText(_ context.Context, ref string, opts *tikakit.Options) (string, error) {
	s.lastOpt = opts
	return s.lookup(ref)
}

func (s *stubEngine) ExtractXHTML(_ context.Context, ref string, opts *tikakit.Options) (string, error) {
	text, err := s.lookup(ref)
	if err != nil {
		return "", err
	}
	return "<html><body><p>" + text + "</p></body></html>", nil
}

func (s *stubEngine) ExtractMeta(_ context.Context, ref string, opts *tikakit.Options) (tikakit.Metadata, error) {
	if _, err := s.lookup(ref); err != nil {
		return nil, err
	}
	return tikakit.Metadata{
		tikakit.MetaResourceName: {"doc.txt"},
		tikakit.MetaContentType:  {"text/plain; charset=UTF-8"},
	}, nil
}

func (s *stubEngine) DetectContentType(_ context.Context, ref string) (string, error) {
	if _, err := s.lookup(ref); err != nil {
		return "", err
	}
	return "text/plain", nil
}

func (s *stubEngine) DetectCharset(_ context.Context, ref string, _ *tikakit.Options) (string, error) {
	if _, err := s.lookup(ref); err != nil {
		return "", err
	}
	return "UTF-8", nil
}

func (s *stubEngine) DetectContentTypeAndCharset(_ context.Context, ref string) (string, error) {
	if _, err := s.lookup(ref); err != nil {
		return "", err
	}
	return "text/plain; charset=UTF-8", nil
}

func (s *stubEngine) DetectLanguage(_ context.Context, text string) (tikakit.Language, error) {
	if text == "??" {
		return tikakit.Language{Code: "un"}, nil
	}
	return tikakit.Language{Code: "en", ReasonablyCertain: true}, nil
}

func (s *stubEngine) Ping(context.Context) error {
	return s.pingErr
}

func setupRouter(t *testing.T, opts RouterOptions) (*gin.Engine, *stubEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := &stubEngine{
		texts: map[string]string{"file:///docs/hello.txt": "Hello, world"},
		errs: map[string]error{
			"file:///docs/secret.pdf": tikakit.ErrEncrypted,
			"file:///etc/passwd":      tikakit.ErrNotAllowed,
			"file:///docs/broken.doc": errors.New("parser exploded"),
			"file:///docs/huge.iso":   tikakit.ErrTooLarge,
		},
	}
	client, err := tikakit.NewClient(engine)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRouter(NewAPI(client, logger), opts), engine
}

func post(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestTextHandler(t *testing.T) {
	router, engine := setupRouter(t, RouterOptions{})

	w := post(t, router, "/api/v1/text", gin.H{
		"ref":     "file:///docs/hello.txt",
		"options": gin.H{"maxLength": 5, "password": "pw", "ocr": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Hello", decode(t, w)["text"])

	require.NotNil(t, engine.lastOpt)
	assert.Equal(t, 5, engine.lastOpt.MaxLength)
	assert.Equal(t, "pw", engine.lastOpt.Password)
	assert.Equal(t, "true", engine.lastOpt.Extra["ocr"])
}

func TestDocumentEndpoints(t *testing.T) {
	router, _ := setupRouter(t, RouterOptions{})
	ref := gin.H{"ref": "file:///docs/hello.txt"}

	w := post(t, router, "/api/v1/xhtml", ref)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["xhtml"], "<p>Hello, world</p>")

	w = post(t, router, "/api/v1/meta", ref)
	require.Equal(t, http.StatusOK, w.Code)
	meta := decode(t, w)["metadata"].(map[string]any)
	assert.Equal(t, []any{"doc.txt"}, meta["resourceName"])

	w = post(t, router, "/api/v1/extract", ref)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Hello, world", body["text"])
	assert.NotNil(t, body["metadata"])

	w = post(t, router, "/api/v1/type", ref)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", decode(t, w)["type"])

	w = post(t, router, "/api/v1/charset", ref)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UTF-8", decode(t, w)["charset"])

	w = post(t, router, "/api/v1/type-and-charset", ref)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=UTF-8", decode(t, w)["typeAndCharset"])
}

func TestLanguageHandler(t *testing.T) {
	router, _ := setupRouter(t, RouterOptions{})

	w := post(t, router, "/api/v1/language", gin.H{"text": "The quick brown fox"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "en", body["language"])
	assert.Equal(t, true, body["reasonablyCertain"])

	w = post(t, router, "/api/v1/language", gin.H{"text": "??"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestErrorStatus(t *testing.T) {
	router, _ := setupRouter(t, RouterOptions{})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing ref", gin.H{}, http.StatusBadRequest},
		{"encrypted", gin.H{"ref": "file:///docs/secret.pdf"}, http.StatusUnprocessableEntity},
		{"not allowed", gin.H{"ref": "file:///etc/passwd"}, http.StatusForbidden},
		{"not found", gin.H{"ref": "file:///docs/missing.txt"}, http.StatusNotFound},
		{"engine failure", gin.H{"ref": "file:///docs/broken.doc"}, http.StatusBadGateway},
		{"too large", gin.H{"ref": "file:///docs/huge.iso"}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, router, "/api/v1/text", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestRequestID(t *testing.T) {
	router, _ := setupRouter(t, RouterOptions{})

	w := post(t, router, "/api/v1/type", gin.H{"ref": "file:///docs/hello.txt"})
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestHealthUnavailable(t *testing.T) {
	router, engine := setupRouter(t, RouterOptions{})
	engine.pingErr = errors.New("connection refused")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimit(t *testing.T) {
	router, _ := setupRouter(t, RouterOptions{RateLimit: 0.001, Burst: 2})
	ref := gin.H{"ref": "file:///docs/hello.txt"}

	assert.Equal(t, http.StatusOK, post(t, router, "/api/v1/type", ref).Code)
	assert.Equal(t, http.StatusOK, post(t, router, "/api/v1/type", ref).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, router, "/api/v1/type", ref).Code)
}
