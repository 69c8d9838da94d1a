package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/gobeaver/tikakit"
)

func init() {
	tikakit.RegisterCache("redis", func(cfg *tikakit.Config) (tikakit.Cache, error) {
		cache, _, err := Dial(context.Background(), &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, WithNamespace(cfg.CacheKeyPrefix))
		return cache, err
	})
}
