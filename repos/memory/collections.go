package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/google/uuid"
)

// Collections is an in-memory repos.Collections. Documents get a UUID identity on insert.
type Collections struct {
	mu          sync.RWMutex
	collections map[string][]tenant.Document
}

func NewCollections() *Collections {
	return &Collections{
		collections: make(map[string][]tenant.Document),
	}
}

func (c *Collections) Ensure(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.collections[name]; !exists {
		c.collections[name] = make([]tenant.Document, 0)
	}
	return nil
}

func (c *Collections) Exists(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.collections[name]
	return exists, nil
}

func (c *Collections) Drop(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.collections, name)
	return nil
}

func (c *Collections) Copy(ctx context.Context, src, dst string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	source, exists := c.collections[src]
	if !exists {
		return 0, repos.ErrNotFound
	}

	var copied int64
	for _, doc := range source {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		c.collections[dst] = append(c.collections[dst], withIdentity(doc.WithoutIdentity()))
		copied++
	}
	return copied, nil
}

func (c *Collections) Count(ctx context.Context, name string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs, exists := c.collections[name]
	if !exists {
		return 0, nil
	}
	return int64(len(docs)), nil
}

func (c *Collections) List(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		if strings.HasPrefix(name, tenant.CollectionPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Insert implicitly creates the collection, as document stores do.
func (c *Collections) Insert(ctx context.Context, name string, docs ...tenant.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, doc := range docs {
		c.collections[name] = append(c.collections[name], withIdentity(doc))
	}
	if _, exists := c.collections[name]; !exists {
		c.collections[name] = make([]tenant.Document, 0)
	}
	return nil
}

func (c *Collections) Find(ctx context.Context, name string) ([]tenant.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := c.collections[name]
	out := make([]tenant.Document, len(docs))
	for i, doc := range docs {
		out[i] = make(tenant.Document, len(doc))
		for k, v := range doc {
			out[i][k] = v
		}
	}
	return out, nil
}

func withIdentity(doc tenant.Document) tenant.Document {
	out := make(tenant.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	if _, ok := out[tenant.IdentityField]; !ok {
		out[tenant.IdentityField] = uuid.NewString()
	}
	return out
}
