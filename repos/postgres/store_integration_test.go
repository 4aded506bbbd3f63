//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/automate/orgs-server/repos"
	"github.com/automate/orgs-server/repos/repostest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T, ctx context.Context) string {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
}

func TestStoreIntegration(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, setupPostgres(t, ctx), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repostest.Run(t, func(t *testing.T) repos.Store {
		_, err := db.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+CatalogSchema+" CASCADE")
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+TenantSchema+" CASCADE")
		require.NoError(t, err)

		store := NewStore(db)
		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, store.Migrate(ctx))
		return store
	})
}
