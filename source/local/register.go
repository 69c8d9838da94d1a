package local

import "github.com/gobeaver/tikakit"

func init() {
	tikakit.RegisterSource(tikakit.SchemeFile, func(cfg *tikakit.Config) (tikakit.Source, error) {
		return New(cfg.LocalBasePath)
	})
}
