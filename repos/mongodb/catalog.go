package mongodb

import (
	"context"
	"time"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	OrganizationsCollection = "organizations"
	AdminsCollection        = "admins"
)

type organizationDoc struct {
	Id               primitive.ObjectID  `bson:"_id,omitempty"`
	OrganizationName string              `bson:"organization_name"`
	CollectionName   string              `bson:"collection_name"`
	AdminId          *primitive.ObjectID `bson:"admin_id,omitempty"`
	CreatedAt        time.Time           `bson:"created_at"`
}

func (d *organizationDoc) toModel() *tenant.Organization {
	org := &tenant.Organization{
		Id:               d.Id.Hex(),
		OrganizationName: d.OrganizationName,
		CollectionName:   d.CollectionName,
		CreatedAt:        d.CreatedAt,
	}
	if d.AdminId != nil {
		org.AdminId = d.AdminId.Hex()
	}
	return org
}

type adminDoc struct {
	Id           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	OrgId        primitive.ObjectID `bson:"org_id"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *adminDoc) toModel() *tenant.Admin {
	return &tenant.Admin{
		Id:           d.Id.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		OrgId:        d.OrgId.Hex(),
		CreatedAt:    d.CreatedAt,
	}
}

var organizationIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "organization_name", Value: 1}},
		Options: options.Index().SetName("uniq_organization_name").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "collection_name", Value: 1}},
		Options: options.Index().SetName("uniq_collection_name").SetUnique(true),
	},
}

var adminIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "org_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("idx_org_id"),
	},
}

// Catalog stores the organizations and admins catalogs as two collections of the master database.
type Catalog struct {
	organizations *mongo.Collection
	admins        *mongo.Collection
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{
		organizations: db.Collection(OrganizationsCollection),
		admins:        db.Collection(AdminsCollection),
	}
}

func (c *Catalog) migrate(ctx context.Context) error {
	if _, err := c.organizations.Indexes().CreateMany(ctx, organizationIndexes); err != nil {
		return mapError(err)
	}
	if _, err := c.admins.Indexes().CreateMany(ctx, adminIndexes); err != nil {
		return mapError(err)
	}
	log.Info().Msg("Ensured catalog indexes")
	return nil
}

func (c *Catalog) InsertOrganization(ctx context.Context, org *tenant.Organization) error {
	doc := organizationDoc{
		Id:               primitive.NewObjectID(),
		OrganizationName: org.OrganizationName,
		CollectionName:   org.CollectionName,
		CreatedAt:        org.CreatedAt,
	}
	if _, err := c.organizations.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}
	org.Id = doc.Id.Hex()
	return nil
}

func (c *Catalog) FindOrganization(ctx context.Context, name string) (*tenant.Organization, error) {
	doc := new(organizationDoc)
	if err := c.organizations.FindOne(ctx, bson.D{{Key: "organization_name", Value: name}}).Decode(doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toModel(), nil
}

func (c *Catalog) FindOrganizationById(ctx context.Context, id string) (*tenant.Organization, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repos.ErrNotFound
	}

	doc := new(organizationDoc)
	if err := c.organizations.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toModel(), nil
}

func (c *Catalog) ListOrganizations(ctx context.Context) ([]tenant.Organization, error) {
	cursor, err := c.organizations.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "organization_name", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)

	out := make([]tenant.Organization, 0)
	for cursor.Next(ctx) {
		doc := new(organizationDoc)
		if err := cursor.Decode(doc); err != nil {
			return nil, err
		}
		out = append(out, *doc.toModel())
	}
	return out, mapError(cursor.Err())
}

func (c *Catalog) SetOrganizationAdmin(ctx context.Context, orgId, adminId string) error {
	oid, err := primitive.ObjectIDFromHex(orgId)
	if err != nil {
		return repos.ErrNotFound
	}
	aid, err := primitive.ObjectIDFromHex(adminId)
	if err != nil {
		return err
	}

	return c.updateOrganization(ctx, oid, bson.D{{Key: "admin_id", Value: aid}})
}

func (c *Catalog) RenameOrganization(ctx context.Context, orgId, name, collection string) error {
	oid, err := primitive.ObjectIDFromHex(orgId)
	if err != nil {
		return repos.ErrNotFound
	}

	return c.updateOrganization(ctx, oid, bson.D{
		{Key: "organization_name", Value: name},
		{Key: "collection_name", Value: collection},
	})
}

func (c *Catalog) updateOrganization(ctx context.Context, oid primitive.ObjectID, set bson.D) error {
	res, err := c.organizations.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return repos.ErrNotFound
	}
	return nil
}

func (c *Catalog) DeleteOrganization(ctx context.Context, orgId string) error {
	oid, err := primitive.ObjectIDFromHex(orgId)
	if err != nil {
		return repos.ErrNotFound
	}

	res, err := c.organizations.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return repos.ErrNotFound
	}
	return nil
}

func (c *Catalog) InsertAdmin(ctx context.Context, admin *tenant.Admin) error {
	oid, err := primitive.ObjectIDFromHex(admin.OrgId)
	if err != nil {
		return repos.ErrNotFound
	}

	doc := adminDoc{
		Id:           primitive.NewObjectID(),
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		OrgId:        oid,
		CreatedAt:    admin.CreatedAt,
	}
	if _, err := c.admins.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}
	admin.Id = doc.Id.Hex()
	return nil
}

func (c *Catalog) FindAdminByEmail(ctx context.Context, email string) (*tenant.Admin, error) {
	doc := new(adminDoc)
	if err := c.admins.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toModel(), nil
}

func (c *Catalog) FindAdminByOrganization(ctx context.Context, orgId string) (*tenant.Admin, error) {
	oid, err := primitive.ObjectIDFromHex(orgId)
	if err != nil {
		return nil, repos.ErrNotFound
	}

	doc := new(adminDoc)
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := c.admins.FindOne(ctx, bson.D{{Key: "org_id", Value: oid}}, opts).Decode(doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toModel(), nil
}

func (c *Catalog) ListAdmins(ctx context.Context) ([]tenant.Admin, error) {
	cursor, err := c.admins.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)

	out := make([]tenant.Admin, 0)
	for cursor.Next(ctx) {
		doc := new(adminDoc)
		if err := cursor.Decode(doc); err != nil {
			return nil, err
		}
		out = append(out, *doc.toModel())
	}
	return out, mapError(cursor.Err())
}

func (c *Catalog) UpdateAdmin(ctx context.Context, adminId string, patch tenant.AdminPatch) error {
	aid, err := primitive.ObjectIDFromHex(adminId)
	if err != nil {
		return repos.ErrNotFound
	}

	set := bson.D{}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *patch.PasswordHash})
	}
	if len(set) == 0 {
		return nil
	}

	res, err := c.admins.UpdateOne(ctx, bson.D{{Key: "_id", Value: aid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return repos.ErrNotFound
	}
	return nil
}

func (c *Catalog) DeleteAdminsByOrganization(ctx context.Context, orgId string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(orgId)
	if err != nil {
		return 0, nil
	}

	res, err := c.admins.DeleteMany(ctx, bson.D{{Key: "org_id", Value: oid}})
	if err != nil {
		return 0, mapError(err)
	}
	return res.DeletedCount, nil
}
