package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// Collections maps every tenant collection to a jsonb table in the tenants schema.
// The bigserial id column plays the role of the document's store-assigned identity.
type Collections struct {
	db bun.IDB
}

func NewCollections(db bun.IDB) *Collections {
	return &Collections{db: db}
}

func qualified(name string) string {
	return pq.QuoteIdentifier(TenantSchema) + "." + pq.QuoteIdentifier(name)
}

func (c *Collections) Ensure(ctx context.Context, name string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id bigserial PRIMARY KEY,
		doc jsonb NOT NULL,
		created_at timestamptz NOT NULL DEFAULT current_timestamp
	)`, qualified(name))

	_, err := c.db.ExecContext(ctx, query)
	return mapError(err)
}

func (c *Collections) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, "SELECT to_regclass(?) IS NOT NULL", qualified(name)).Scan(&exists)
	return exists, mapError(err)
}

func (c *Collections) Drop(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+qualified(name))
	return mapError(err)
}

// Copy runs as a single INSERT ... SELECT, so the destination only ever sees the full set.
func (c *Collections) Copy(ctx context.Context, src, dst string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s (doc) SELECT doc - '%s' FROM %s ORDER BY id`,
		qualified(dst), tenant.IdentityField, qualified(src))

	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (c *Collections) Count(ctx context.Context, name string) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, "SELECT count(*) FROM "+qualified(name)).Scan(&count)
	return count, mapError(err)
}

func (c *Collections) List(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name", TenantSchema)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, tenant.CollectionPrefix) {
			names = append(names, name)
		}
	}
	return names, mapError(rows.Err())
}

func (c *Collections) Insert(ctx context.Context, name string, docs ...tenant.Document) error {
	if err := c.Ensure(ctx, name); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	values := make([]string, len(docs))
	args := make([]interface{}, len(docs))
	for i, doc := range docs {
		raw, err := json.Marshal(doc.WithoutIdentity())
		if err != nil {
			return err
		}
		values[i] = "(?::jsonb)"
		args[i] = string(raw)
	}

	query := fmt.Sprintf("INSERT INTO %s (doc) VALUES %s", qualified(name), strings.Join(values, ", "))
	_, err := c.db.ExecContext(ctx, query, args...)
	return mapError(err)
}

func (c *Collections) Find(ctx context.Context, name string) ([]tenant.Document, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("SELECT id, doc FROM %s ORDER BY id", qualified(name)))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]tenant.Document, 0)
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}

		doc := make(tenant.Document)
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		doc[tenant.IdentityField] = formatId(id)
		out = append(out, doc)
	}
	return out, mapError(rows.Err())
}
