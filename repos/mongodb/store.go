package mongodb

import (
	"context"
	"time"

	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is the MongoDB backend: both catalogs and every tenant collection live in one database.
type Store struct {
	client      *mongo.Client
	catalog     *Catalog
	collections *Collections
}

// Connect dials the deployment once and verifies it answers a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, mapError(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, mapError(err)
	}

	log.Info().Msg("Connected to mongodb")
	return client, nil
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:      client,
		catalog:     NewCatalog(db),
		collections: NewCollections(db),
	}
}

func (s *Store) Catalog() repos.Catalog {
	return s.catalog
}

func (s *Store) Collections() repos.Collections {
	return s.collections
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.catalog.migrate(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
