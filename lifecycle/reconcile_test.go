package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("clean store", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.create(t, "acme", "a@acme.io")
		f.create(t, "globex", "g@globex.io")

		report, err := f.manager.Reconcile(ctx, false)
		require.NoError(t, err)
		assert.True(t, report.Clean())
		assert.Equal(t, 2, report.Organizations)
		assert.Equal(t, 2, report.Collections)
	})

	t.Run("reports every kind of inconsistency", func(t *testing.T) {
		f := newFixture(t, Options{})
		acme := f.create(t, "acme", "a@acme.io")
		f.create(t, "globex", "g@globex.io")

		require.NoError(t, f.store.Collections().Insert(ctx, "org_ghost", tenant.Document{"left": "over"}))
		require.NoError(t, f.store.Collections().Drop(ctx, "org_globex"))
		require.NoError(t, f.store.Catalog().InsertAdmin(ctx, &tenant.Admin{
			Email:     "lost@nowhere.io",
			OrgId:     "missing",
			CreatedAt: time.Now(),
		}))
		_, err := f.store.Catalog().DeleteAdminsByOrganization(ctx, acme.Organization.Id)
		require.NoError(t, err)

		report, err := f.manager.Reconcile(ctx, false)
		require.NoError(t, err)
		assert.False(t, report.Clean())
		assert.Equal(t, []string{"org_ghost"}, report.OrphanCollections)
		assert.Empty(t, report.DroppedCollections)
		assert.Equal(t, []string{"globex"}, report.DanglingOrganizations)
		assert.Equal(t, []string{"acme"}, report.OrganizationsWithoutAdmin)
		assert.Equal(t, []string{"lost@nowhere.io"}, report.OrphanAdmins)

		exists, err := f.store.Collections().Exists(ctx, "org_ghost")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("drops orphan collections", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.create(t, "acme", "a@acme.io")
		seedDocuments(t, f, "org_acme")
		require.NoError(t, f.store.Collections().Insert(ctx, "org_ghost", tenant.Document{"left": "over"}))

		report, err := f.manager.Reconcile(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"org_ghost"}, report.DroppedCollections)

		names, err := f.store.Collections().List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"org_acme"}, names)

		n, err := f.store.Collections().Count(ctx, "org_acme")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		report, err = f.manager.Reconcile(ctx, false)
		require.NoError(t, err)
		assert.True(t, report.Clean())
	})
}
