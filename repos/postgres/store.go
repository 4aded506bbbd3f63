package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Store keeps the catalogs in the orgs schema and tenant collections in the tenants schema.
type Store struct {
	db          *bun.DB
	catalog     *Catalog
	collections *Collections
}

// Connect opens a bun handle over pgdriver and pings it. Query logging is enabled outside production.
func Connect(ctx context.Context, dsn string, debug bool) (*bun.DB, error) {
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(pgdb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
		log.Info().Msg("Enabled bun debug")
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}

	return db, nil
}

func NewStore(db *bun.DB) *Store {
	return &Store{
		db:          db,
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
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, schema := range []string{CatalogSchema, TenantSchema} {
			if _, err := tx.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
				return mapError(err)
			}
		}

		if _, err := tx.NewCreateTable().Model((*organizationRow)(nil)).IfNotExists().Exec(ctx); err != nil {
			return mapError(err)
		}

		_, err := tx.NewCreateTable().Model((*adminRow)(nil)).IfNotExists().
			ForeignKey(`("org_id") REFERENCES "orgs"."organizations" ("id")`).
			Exec(ctx)
		if err != nil {
			return mapError(err)
		}

		_, err = tx.NewCreateIndex().Model((*adminRow)(nil)).IfNotExists().
			Index("admins_org_id_idx").Column("org_id", "created_at").
			Exec(ctx)
		if err != nil {
			return mapError(err)
		}

		log.Info().Msg("Migrated catalog schema")
		return nil
	})
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
