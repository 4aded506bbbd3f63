package memory

import (
	"context"

	"github.com/automate/orgs-server/repos"
)

type Store struct {
	catalog     *Catalog
	collections *Collections
}

func NewStore() *Store {
	return &Store{
		catalog:     NewCatalog(),
		collections: NewCollections(),
	}
}

func (s *Store) Catalog() repos.Catalog {
	return s.catalog
}

func (s *Store) Collections() repos.Collections {
	return s.collections
}

func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
