package web

import (
	"net/http"
	"time"

	"github.com/gobeaver/tikakit"
)

func init() {
	factory := func(cfg *tikakit.Config) (tikakit.Source, error) {
		return New(
			WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}),
			WithUserAgent(cfg.HTTPUserAgent),
		), nil
	}
	tikakit.RegisterSource(tikakit.SchemeHTTP, factory)
	tikakit.RegisterSource(tikakit.SchemeHTTPS, factory)
}
