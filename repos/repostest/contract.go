// Package repostest holds the behaviour every repos.Store backend has to provide.
package repostest

import (
	"context"
	"testing"
	"time"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a backend. newStore must return an empty, migrated store.
func Run(t *testing.T, newStore func(t *testing.T) repos.Store) {
	t.Run("catalog", func(t *testing.T) {
		testCatalog(t, newStore(t))
	})
	t.Run("admins", func(t *testing.T) {
		testAdmins(t, newStore(t))
	})
	t.Run("collections", func(t *testing.T) {
		testCollections(t, newStore(t))
	})
}

func testCatalog(t *testing.T, store repos.Store) {
	ctx := context.Background()
	catalog := store.Catalog()

	org := &tenant.Organization{OrganizationName: "acme", CollectionName: "org_acme", CreatedAt: time.Now().UTC()}
	require.NoError(t, catalog.InsertOrganization(ctx, org))
	require.NotEmpty(t, org.Id)

	err := catalog.InsertOrganization(ctx, &tenant.Organization{OrganizationName: "acme", CollectionName: "org_acme", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, repos.ErrDuplicate)

	found, err := catalog.FindOrganization(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, org.Id, found.Id)
	assert.Equal(t, "org_acme", found.CollectionName)
	assert.Empty(t, found.AdminId)

	byId, err := catalog.FindOrganizationById(ctx, org.Id)
	require.NoError(t, err)
	assert.Equal(t, "acme", byId.OrganizationName)

	_, err = catalog.FindOrganization(ctx, "nope")
	assert.ErrorIs(t, err, repos.ErrNotFound)

	other := &tenant.Organization{OrganizationName: "globex", CollectionName: "org_globex", CreatedAt: time.Now()}
	require.NoError(t, catalog.InsertOrganization(ctx, other))

	assert.ErrorIs(t, catalog.RenameOrganization(ctx, org.Id, "globex", "org_globex"), repos.ErrDuplicate)

	require.NoError(t, catalog.RenameOrganization(ctx, org.Id, "acme2", "org_acme2"))
	_, err = catalog.FindOrganization(ctx, "acme")
	assert.ErrorIs(t, err, repos.ErrNotFound)
	renamed, err := catalog.FindOrganization(ctx, "acme2")
	require.NoError(t, err)
	assert.Equal(t, org.Id, renamed.Id)
	assert.Equal(t, "org_acme2", renamed.CollectionName)

	orgs, err := catalog.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "acme2", orgs[0].OrganizationName)
	assert.Equal(t, "globex", orgs[1].OrganizationName)

	require.NoError(t, catalog.DeleteOrganization(ctx, other.Id))
	assert.ErrorIs(t, catalog.DeleteOrganization(ctx, other.Id), repos.ErrNotFound)
}

func testAdmins(t *testing.T, store repos.Store) {
	ctx := context.Background()
	catalog := store.Catalog()

	org := &tenant.Organization{OrganizationName: "acme", CollectionName: "org_acme", CreatedAt: time.Now()}
	require.NoError(t, catalog.InsertOrganization(ctx, org))

	admin := &tenant.Admin{Email: "a@acme.io", PasswordHash: "hash", OrgId: org.Id, CreatedAt: time.Now()}
	require.NoError(t, catalog.InsertAdmin(ctx, admin))
	require.NotEmpty(t, admin.Id)

	err := catalog.InsertAdmin(ctx, &tenant.Admin{Email: "a@acme.io", PasswordHash: "x", OrgId: org.Id, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, repos.ErrDuplicate)

	require.NoError(t, catalog.SetOrganizationAdmin(ctx, org.Id, admin.Id))
	found, err := catalog.FindOrganization(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, admin.Id, found.AdminId)

	byEmail, err := catalog.FindAdminByEmail(ctx, "a@acme.io")
	require.NoError(t, err)
	assert.Equal(t, admin.Id, byEmail.Id)
	assert.Equal(t, org.Id, byEmail.OrgId)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byOrg, err := catalog.FindAdminByOrganization(ctx, org.Id)
	require.NoError(t, err)
	assert.Equal(t, admin.Id, byOrg.Id)

	email, hash := "new@acme.io", "hash2"
	require.NoError(t, catalog.UpdateAdmin(ctx, admin.Id, tenant.AdminPatch{Email: &email, PasswordHash: &hash}))
	_, err = catalog.FindAdminByEmail(ctx, "a@acme.io")
	assert.ErrorIs(t, err, repos.ErrNotFound)
	updated, err := catalog.FindAdminByEmail(ctx, "new@acme.io")
	require.NoError(t, err)
	assert.Equal(t, "hash2", updated.PasswordHash)

	admins, err := catalog.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	n, err := catalog.DeleteAdminsByOrganization(ctx, org.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = catalog.FindAdminByOrganization(ctx, org.Id)
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func testCollections(t *testing.T, store repos.Store) {
	ctx := context.Background()
	collections := store.Collections()

	exists, err := collections.Exists(ctx, "org_acme")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, collections.Ensure(ctx, "org_acme"))
	require.NoError(t, collections.Ensure(ctx, "org_acme"))
	exists, err = collections.Exists(ctx, "org_acme")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, collections.Insert(ctx, "org_acme",
		tenant.Document{"name": "widget", "qty": float64(3)},
		tenant.Document{"name": "gadget", "qty": float64(7)},
	))

	n, err := collections.Count(ctx, "org_acme")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, collections.Ensure(ctx, "org_acme2"))
	copied, err := collections.Copy(ctx, "org_acme", "org_acme2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, copied)

	src, err := collections.Find(ctx, "org_acme")
	require.NoError(t, err)
	dst, err := collections.Find(ctx, "org_acme2")
	require.NoError(t, err)
	require.Len(t, dst, 2)

	names := map[interface{}]bool{}
	srcIds := map[interface{}]bool{}
	for _, doc := range src {
		srcIds[doc[tenant.IdentityField]] = true
	}
	for _, doc := range dst {
		names[doc["name"]] = true
		require.NotNil(t, doc[tenant.IdentityField])
		assert.False(t, srcIds[doc[tenant.IdentityField]], "copied document kept its identity")
	}
	assert.Equal(t, map[interface{}]bool{"widget": true, "gadget": true}, names)

	listed, err := collections.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"org_acme", "org_acme2"}, listed)

	require.NoError(t, collections.Drop(ctx, "org_acme"))
	require.NoError(t, collections.Drop(ctx, "org_acme"))
	exists, err = collections.Exists(ctx, "org_acme")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err = collections.Count(ctx, "org_acme2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
