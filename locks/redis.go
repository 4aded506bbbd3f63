package locks

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix     = "orgs:lock:"
	retryInterval = 50 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)

// Redis holds each key as a SET NX PX lease owned by a random token. While held, leases are
// refreshed every ttl/3 so long renames keep their lock; a crashed holder loses it after ttl.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	for _, key := range keys {
		if err := r.acquire(ctx, keyPrefix+key, token); err != nil {
			r.release(held, token)
			return nil, err
		}
		held = append(held, keyPrefix+key)
	}

	stop := make(chan struct{})
	go r.refresh(held, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			r.release(held, token)
		})
	}, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ErrLockTimeout
			}
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ErrLockTimeout
		}
	}
}

func (r *Redis) refresh(keys []string, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, key := range keys {
				err := refreshScript.Run(context.Background(), r.client, []string{key}, token, r.ttl.Milliseconds()).Err()
				if err != nil {
					log.Warn().Err(err).Str("key", key).Msg("Failed to refresh lock lease")
				}
			}
		}
	}
}

func (r *Redis) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, r.client, []string{keys[i]}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", keys[i]).Msg("Failed to release lock")
		}
	}
}
