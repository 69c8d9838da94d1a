package memory

import "github.com/gobeaver/tikakit"

// Shared is the adapter behind the registered "mem" source. Documents put
// here are visible to clients built with tikakit.New.
var Shared = New()

func init() {
	tikakit.RegisterSource(Scheme, func(cfg *tikakit.Config) (tikakit.Source, error) {
		return Shared, nil
	})
}
