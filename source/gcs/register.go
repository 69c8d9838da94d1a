package gcs

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/tikakit"
	"google.golang.org/api/option"
)

func init() {
	tikakit.RegisterSource(Scheme, func(cfg *tikakit.Config) (tikakit.Source, error) {
		ctx := context.Background()

		// Without a credentials file the client uses GOOGLE_APPLICATION_CREDENTIALS
		// or the default credentials
		var opts []option.ClientOption
		if cfg.GCSCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
		}

		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, err
		}

		return New(client), nil
	})
}
