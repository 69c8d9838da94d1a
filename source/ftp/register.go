package ftp

import (
	"time"

	"github.com/gobeaver/tikakit"
)

func init() {
	tikakit.RegisterSource(tikakit.SchemeFTP, func(cfg *tikakit.Config) (tikakit.Source, error) {
		return New(Config{
			Username: cfg.FTPUsername,
			Password: cfg.FTPPassword,
			Timeout:  time.Duration(cfg.FTPTimeoutSeconds) * time.Second,
		}), nil
	})
}
