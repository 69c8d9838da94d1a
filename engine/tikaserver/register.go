package tikaserver

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gobeaver/tikakit"
)

func init() {
	tikakit.RegisterEngine("tika", func(cfg *tikakit.Config, opener tikakit.Opener) (tikakit.Engine, error) {
		opts := []Option{
			WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TikaTimeoutSeconds) * time.Second}),
			WithUserAgent(cfg.HTTPUserAgent),
		}

		baseURL := cfg.TikaURL
		if cfg.TikaJarPath != "" {
			port := DefaultPort
			if u, err := url.Parse(baseURL); err == nil && u.Port() != "" {
				if p, err := strconv.Atoi(u.Port()); err == nil {
					port = p
				}
			}
			server, err := StartServer(context.Background(), cfg.TikaJarPath, WithPort(port))
			if err != nil {
				return nil, err
			}
			baseURL = server.URL()
			opts = append(opts, WithServer(server))
		}

		return New(baseURL, opener, opts...)
	})
}
