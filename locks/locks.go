package locks

import (
	"context"
	"errors"
	"sort"
)

var ErrLockTimeout = errors.New("timed out waiting for organization lock")

// Locker serializes lifecycle operations per organization name.
// Lock blocks until every key is held or ctx is done; the returned func releases them all.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// normalize sorts and de-duplicates keys so that callers locking overlapping sets
// always acquire in the same order.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
