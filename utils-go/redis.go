package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisConfig struct {
	RedisUrl string
}

// ProvideRedis connects to REDIS_URL. Without a url it returns a nil client and callers
// fall back to in-process alternatives.
func ProvideRedis(config *RedisConfig) (*redis.Client, error) {
	if len(config.RedisUrl) == 0 {
		return nil, nil
	}

	options, err := redis.ParseURL(config.RedisUrl)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
