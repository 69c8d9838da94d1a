package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	// RateLimit is the sustained request rate; zero disables limiting
	RateLimit rate.Limit
	// Burst is the limiter bucket size
	Burst int
}

// RequestIDMiddleware tags each request with an X-Request-ID, keeping one
// supplied by the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RateLimitMiddleware rejects requests above the limiter's rate with 429.
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewRouter builds a gin engine serving api.
func NewRouter(api *API, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware())
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		router.Use(RateLimitMiddleware(rate.NewLimiter(opts.RateLimit, burst)))
	}
	RegisterRoutes(router, api)
	return router
}

// RegisterRoutes registers all the routes of the extraction API.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.GET("/healthz", api.HealthHandler)

	// All extraction routes live under /api/v1
	v1 := router.Group("/api/v1")
	{
		v1.POST("/text", api.TextHandler)
		v1.POST("/xhtml", api.XHTMLHandler)
		v1.POST("/meta", api.MetaHandler)
		v1.POST("/extract", api.ExtractHandler)
		v1.POST("/type", api.TypeHandler)
		v1.POST("/charset", api.CharsetHandler)
		v1.POST("/type-and-charset", api.TypeAndCharsetHandler)
		v1.POST("/language", api.LanguageHandler)
	}
}
