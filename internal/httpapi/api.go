// Package httpapi exposes a tikakit.Client over a JSON HTTP API.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gobeaver/tikakit"
	"github.com/sirupsen/logrus"
)

// API provides handlers for the extraction endpoints.
type API struct {
	client *tikakit.Client
	logger *logrus.Logger
}

// NewAPI creates a new API handler.
func NewAPI(client *tikakit.Client, logger *logrus.Logger) *API {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &API{client: client, logger: logger}
}

// refRequest is the body of every document endpoint
type refRequest struct {
	Ref     string          `json:"ref" binding:"required"`
	Options tikakit.Options `json:"options"`
}

// languageRequest is the body of the language endpoint
type languageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (a *API) bindRef(c *gin.Context) (*refRequest, bool) {
	var req refRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.WithError(err).Warn("invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return nil, false
	}
	return &req, true
}

// TextHandler extracts plain text.
func (a *API) TextHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	text, err := a.client.Text(c.Request.Context(), req.Ref, tikakit.WithOptions(req.Options))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// XHTMLHandler extracts the HTML rendition.
func (a *API) XHTMLHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	xhtml, err := a.client.XHTML(c.Request.Context(), req.Ref, tikakit.WithOptions(req.Options))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"xhtml": xhtml})
}

// MetaHandler extracts metadata.
func (a *API) MetaHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	meta, err := a.client.Meta(c.Request.Context(), req.Ref, tikakit.WithOptions(req.Options))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metadata": meta})
}

// ExtractHandler extracts text and metadata.
func (a *API) ExtractHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	text, meta, err := a.client.Extract(c.Request.Context(), req.Ref, tikakit.WithOptions(req.Options))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text, "metadata": meta})
}

// TypeHandler detects the MIME type. Options are ignored.
func (a *API) TypeHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	contentType, err := a.client.Type(c.Request.Context(), req.Ref)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": contentType})
}

// CharsetHandler detects the character encoding.
func (a *API) CharsetHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	charset, err := a.client.Charset(c.Request.Context(), req.Ref, tikakit.WithOptions(req.Options))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charset": charset})
}

// TypeAndCharsetHandler detects "type; charset=X".
func (a *API) TypeAndCharsetHandler(c *gin.Context) {
	req, ok := a.bindRef(c)
	if !ok {
		return
	}
	result, err := a.client.TypeAndCharset(c.Request.Context(), req.Ref)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"typeAndCharset": result})
}

// LanguageHandler identifies the language of the posted text.
func (a *API) LanguageHandler(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.WithError(err).Warn("invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return
	}
	lang, err := a.client.Language(c.Request.Context(), req.Text)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lang)
}

// HealthHandler reports whether the engine is reachable.
func (a *API) HealthHandler(c *gin.Context) {
	if err := a.client.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) fail(c *gin.Context, err error) {
	status := statusFor(err)
	entry := a.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey))
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps extraction errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case tikakit.IsEncrypted(err):
		return http.StatusUnprocessableEntity
	case tikakit.IsNotAllowed(err):
		return http.StatusForbidden
	case tikakit.IsNotExist(err):
		return http.StatusNotFound
	case tikakit.IsTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, tikakit.ErrSourceNotFound), errors.Is(err, tikakit.ErrEmptyReference):
		return http.StatusBadRequest
	case errors.Is(err, tikakit.ErrSerialization):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
