package memory

import (
	"context"
	"testing"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/automate/orgs-server/repos/repostest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	repostest.Run(t, func(t *testing.T) repos.Store {
		return NewStore()
	})
}

func TestReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	org := &tenant.Organization{OrganizationName: "acme", CollectionName: "org_acme"}
	require.NoError(t, store.Catalog().InsertOrganization(ctx, org))

	found, err := store.Catalog().FindOrganization(ctx, "acme")
	require.NoError(t, err)
	found.OrganizationName = "mutated"

	again, err := store.Catalog().FindOrganization(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", again.OrganizationName)

	require.NoError(t, store.Collections().Insert(ctx, "org_acme", tenant.Document{"k": "v"}))
	docs, err := store.Collections().Find(ctx, "org_acme")
	require.NoError(t, err)
	docs[0]["k"] = "mutated"

	docs, err = store.Collections().Find(ctx, "org_acme")
	require.NoError(t, err)
	assert.Equal(t, "v", docs[0]["k"])
}

func TestCopyHonoursContext(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Collections().Insert(context.Background(), "org_acme", tenant.Document{"k": "v"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Collections().Copy(ctx, "org_acme", "org_acme2")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Collections().Copy(context.Background(), "org_missing", "org_acme2")
	assert.ErrorIs(t, err, repos.ErrNotFound)
}
