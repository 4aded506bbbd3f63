package mongodb

import (
	"context"
	"sort"

	"github.com/automate/orgs-server/models/tenant"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const copyBatchSize = 500

// Collections keeps each tenant collection as a native collection of the master database.
type Collections struct {
	db *mongo.Database
}

func NewCollections(db *mongo.Database) *Collections {
	return &Collections{db: db}
}

func (c *Collections) Ensure(ctx context.Context, name string) error {
	exists, err := c.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = c.db.CreateCollection(ctx, name)
	if hasCode(err, codeNamespaceExists) {
		return nil
	}
	return mapError(err)
}

func (c *Collections) Exists(ctx context.Context, name string) (bool, error) {
	names, err := c.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, mapError(err)
	}
	return len(names) > 0, nil
}

func (c *Collections) Drop(ctx context.Context, name string) error {
	err := c.db.Collection(name).Drop(ctx)
	if hasCode(err, codeNamespaceNotFound) {
		return nil
	}
	return mapError(err)
}

// Copy streams src into dst in batches. Each document loses its _id so dst assigns a fresh one.
func (c *Collections) Copy(ctx context.Context, src, dst string) (int64, error) {
	cursor, err := c.db.Collection(src).Find(ctx, bson.D{}, options.Find().SetBatchSize(copyBatchSize))
	if err != nil {
		return 0, mapError(err)
	}
	defer cursor.Close(ctx)

	target := c.db.Collection(dst)
	batch := make([]interface{}, 0, copyBatchSize)
	var copied int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := target.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true))
		if err != nil {
			return mapError(err)
		}
		copied += int64(len(res.InsertedIDs))
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return copied, err
		}
		batch = append(batch, stripId(doc))

		if len(batch) == copyBatchSize {
			if err := flush(); err != nil {
				return copied, err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return copied, mapError(err)
	}

	return copied, flush()
}

func (c *Collections) Count(ctx context.Context, name string) (int64, error) {
	count, err := c.db.Collection(name).CountDocuments(ctx, bson.D{})
	return count, mapError(err)
}

func (c *Collections) List(ctx context.Context) ([]string, error) {
	filter := bson.D{{Key: "name", Value: bson.D{{Key: "$regex", Value: "^" + tenant.CollectionPrefix}}}}
	names, err := c.db.ListCollectionNames(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Collections) Insert(ctx context.Context, name string, docs ...tenant.Document) error {
	if len(docs) == 0 {
		return c.Ensure(ctx, name)
	}

	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = map[string]interface{}(doc)
	}
	_, err := c.db.Collection(name).InsertMany(ctx, batch)
	return mapError(err)
}

func (c *Collections) Find(ctx context.Context, name string) ([]tenant.Document, error) {
	cursor, err := c.db.Collection(name).Find(ctx, bson.D{})
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)

	out := make([]tenant.Document, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if oid, ok := doc[tenant.IdentityField].(primitive.ObjectID); ok {
			doc[tenant.IdentityField] = oid.Hex()
		}
		out = append(out, tenant.Document(doc))
	}
	return out, mapError(cursor.Err())
}

func stripId(doc bson.D) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key == tenant.IdentityField {
			continue
		}
		out = append(out, e)
	}
	return out
}
