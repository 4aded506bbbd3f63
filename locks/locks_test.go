package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedis(client, time.Second)
}

func lockers(t *testing.T) map[string]Locker {
	_, r := setupTestRedis(t)
	return map[string]Locker{
		"local": NewLocal(),
		"redis": r,
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalize([]string{"b", "", "a", "b"}))
	assert.Empty(t, normalize(nil))
}

func TestLocker(t *testing.T) {
	for name, locker := range lockers(t) {
		locker := locker
		t.Run(name, func(t *testing.T) {
			t.Run("mutual exclusion", func(t *testing.T) {
				var inside, maxInside int32
				var wg sync.WaitGroup
				for i := 0; i < 8; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						unlock, err := locker.Lock(context.Background(), "acme")
						if !assert.NoError(t, err) {
							return
						}
						defer unlock()

						n := atomic.AddInt32(&inside, 1)
						for {
							m := atomic.LoadInt32(&maxInside)
							if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
								break
							}
						}
						time.Sleep(5 * time.Millisecond)
						atomic.AddInt32(&inside, -1)
					}()
				}
				wg.Wait()
				assert.EqualValues(t, 1, maxInside)
			})

			t.Run("times out while held", func(t *testing.T) {
				unlock, err := locker.Lock(context.Background(), "globex")
				require.NoError(t, err)

				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()
				_, err = locker.Lock(ctx, "globex")
				assert.ErrorIs(t, err, ErrLockTimeout)

				unlock()
				unlock()

				relock, err := locker.Lock(context.Background(), "globex")
				require.NoError(t, err)
				relock()
			})

			t.Run("overlapping key sets do not deadlock", func(t *testing.T) {
				var wg sync.WaitGroup
				for i := 0; i < 10; i++ {
					wg.Add(2)
					go func() {
						defer wg.Done()
						unlock, err := locker.Lock(context.Background(), "x", "y")
						if assert.NoError(t, err) {
							unlock()
						}
					}()
					go func() {
						defer wg.Done()
						unlock, err := locker.Lock(context.Background(), "y", "x")
						if assert.NoError(t, err) {
							unlock()
						}
					}()
				}
				wg.Wait()
			})

			t.Run("partial acquisition is released", func(t *testing.T) {
				unlock, err := locker.Lock(context.Background(), "q")
				require.NoError(t, err)

				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()
				_, err = locker.Lock(ctx, "p", "q")
				require.ErrorIs(t, err, ErrLockTimeout)

				p, err := locker.Lock(context.Background(), "p")
				require.NoError(t, err)
				p()
				unlock()
			})
		})
	}
}

func TestLocalForgetsIdleKeys(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Len(t, l.entries, 2)

	unlock()
	assert.Empty(t, l.entries)
}

func TestRedisLease(t *testing.T) {
	mr, r := setupTestRedis(t)

	unlock, err := r.Lock(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"acme"))

	// miniredis only ages keys on FastForward; refreshes must keep up with the clock
	for i := 0; i < 4; i++ {
		time.Sleep(400 * time.Millisecond)
		mr.FastForward(400 * time.Millisecond)
	}
	assert.True(t, mr.Exists(keyPrefix+"acme"))

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"acme"))
}

func TestRedisReleaseKeepsForeignLease(t *testing.T) {
	mr, r := setupTestRedis(t)

	unlock, err := r.Lock(context.Background(), "acme")
	require.NoError(t, err)

	// lease expired and another holder took it
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(keyPrefix+"acme", "someone-else"))

	unlock()
	got, err := mr.Get(keyPrefix + "acme")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
