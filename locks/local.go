package locks

import (
	"context"
	"sync"
)

// Local is an in-process lock table. Entries are reference counted and removed once
// nobody holds or waits on them, so the table only grows with concurrent work.
type Local struct {
	mtx     sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{
		entries: make(map[string]*localEntry),
	}
}

func (l *Local) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}

	for _, key := range keys {
		if err := l.acquire(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *Local) acquire(ctx context.Context, key string) error {
	l.mtx.Lock()
	entry, exists := l.entries[key]
	if !exists {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mtx.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, entry)
		return ErrLockTimeout
	}
}

func (l *Local) release(key string) {
	l.mtx.Lock()
	entry := l.entries[key]
	l.mtx.Unlock()

	if entry == nil {
		return
	}
	<-entry.sem
	l.unref(key, entry)
}

func (l *Local) unref(key string, entry *localEntry) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}
