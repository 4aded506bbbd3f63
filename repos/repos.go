package repos

import (
	"context"
	"errors"

	"github.com/automate/orgs-server/models/tenant"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("duplicate key")
	ErrUnavailable = errors.New("store unavailable")
)

// Catalog holds the two shared catalogs: organizations keyed by name and admins keyed by email.
// Insert methods fill in the store-assigned Id of the record they are given.
type Catalog interface {
	InsertOrganization(ctx context.Context, org *tenant.Organization) error
	FindOrganization(ctx context.Context, name string) (*tenant.Organization, error)
	FindOrganizationById(ctx context.Context, id string) (*tenant.Organization, error)
	ListOrganizations(ctx context.Context) ([]tenant.Organization, error)
	SetOrganizationAdmin(ctx context.Context, orgId, adminId string) error
	// RenameOrganization moves organization_name and collection_name together.
	RenameOrganization(ctx context.Context, orgId, name, collection string) error
	DeleteOrganization(ctx context.Context, orgId string) error

	InsertAdmin(ctx context.Context, admin *tenant.Admin) error
	FindAdminByEmail(ctx context.Context, email string) (*tenant.Admin, error)
	FindAdminByOrganization(ctx context.Context, orgId string) (*tenant.Admin, error)
	ListAdmins(ctx context.Context) ([]tenant.Admin, error)
	UpdateAdmin(ctx context.Context, adminId string, patch tenant.AdminPatch) error
	DeleteAdminsByOrganization(ctx context.Context, orgId string) (int64, error)
}

// Collections manages the physical per-tenant document collections.
type Collections interface {
	// Ensure creates the collection if it is absent. An existing collection is not an error.
	Ensure(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	// Drop removes the collection and its documents. A missing collection is not an error.
	Drop(ctx context.Context, name string) error
	// Copy re-inserts every document of src into dst without its store-assigned identity.
	Copy(ctx context.Context, src, dst string) (int64, error)
	Count(ctx context.Context, name string) (int64, error)
	// List returns the names of all tenant collections, ie. those carrying tenant.CollectionPrefix.
	List(ctx context.Context) ([]string, error)

	Insert(ctx context.Context, name string, docs ...tenant.Document) error
	Find(ctx context.Context, name string) ([]tenant.Document, error)
}

// Store bundles both halves of a backend together with its connection lifecycle.
type Store interface {
	Catalog() Catalog
	Collections() Collections
	// Migrate creates catalog indexes/tables. It is safe to call repeatedly.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}
