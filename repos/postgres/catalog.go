package postgres

import (
	"context"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/uptrace/bun"
)

type Catalog struct {
	db bun.IDB
}

func NewCatalog(db bun.IDB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) InsertOrganization(ctx context.Context, org *tenant.Organization) error {
	row := &organizationRow{
		OrganizationName: org.OrganizationName,
		CollectionName:   org.CollectionName,
		CreatedAt:        org.CreatedAt,
	}
	if _, err := c.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	org.Id = formatId(row.Id)
	return nil
}

func (c *Catalog) FindOrganization(ctx context.Context, name string) (*tenant.Organization, error) {
	row := new(organizationRow)
	if err := c.db.NewSelect().Model(row).Where("o.organization_name = ?", name).Limit(1).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (c *Catalog) FindOrganizationById(ctx context.Context, id string) (*tenant.Organization, error) {
	parsed, ok := parseId(id)
	if !ok {
		return nil, repos.ErrNotFound
	}

	row := new(organizationRow)
	if err := c.db.NewSelect().Model(row).Where("o.id = ?", parsed).Limit(1).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (c *Catalog) ListOrganizations(ctx context.Context) ([]tenant.Organization, error) {
	rows := make([]organizationRow, 0)
	if err := c.db.NewSelect().Model(&rows).Order("o.organization_name ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}

	out := make([]tenant.Organization, len(rows))
	for i := range rows {
		out[i] = *rows[i].toModel()
	}
	return out, nil
}

func (c *Catalog) SetOrganizationAdmin(ctx context.Context, orgId, adminId string) error {
	oid, ok := parseId(orgId)
	if !ok {
		return repos.ErrNotFound
	}
	aid, ok := parseId(adminId)
	if !ok {
		return repos.ErrNotFound
	}

	res, err := c.db.NewUpdate().Model((*organizationRow)(nil)).Set("admin_id = ?", aid).Where("o.id = ?", oid).Exec(ctx)
	return affected(res, err)
}

func (c *Catalog) RenameOrganization(ctx context.Context, orgId, name, collection string) error {
	oid, ok := parseId(orgId)
	if !ok {
		return repos.ErrNotFound
	}

	res, err := c.db.NewUpdate().Model((*organizationRow)(nil)).
		Set("organization_name = ?", name).
		Set("collection_name = ?", collection).
		Where("o.id = ?", oid).
		Exec(ctx)
	return affected(res, err)
}

func (c *Catalog) DeleteOrganization(ctx context.Context, orgId string) error {
	oid, ok := parseId(orgId)
	if !ok {
		return repos.ErrNotFound
	}

	res, err := c.db.NewDelete().Model((*organizationRow)(nil)).Where("o.id = ?", oid).Exec(ctx)
	return affected(res, err)
}

func (c *Catalog) InsertAdmin(ctx context.Context, admin *tenant.Admin) error {
	oid, ok := parseId(admin.OrgId)
	if !ok {
		return repos.ErrNotFound
	}

	row := &adminRow{
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		OrgId:        oid,
		CreatedAt:    admin.CreatedAt,
	}
	if _, err := c.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return mapError(err)
	}
	admin.Id = formatId(row.Id)
	return nil
}

func (c *Catalog) FindAdminByEmail(ctx context.Context, email string) (*tenant.Admin, error) {
	row := new(adminRow)
	if err := c.db.NewSelect().Model(row).Where("a.email = ?", email).Limit(1).Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (c *Catalog) FindAdminByOrganization(ctx context.Context, orgId string) (*tenant.Admin, error) {
	oid, ok := parseId(orgId)
	if !ok {
		return nil, repos.ErrNotFound
	}

	row := new(adminRow)
	err := c.db.NewSelect().Model(row).Where("a.org_id = ?", oid).Order("a.created_at ASC", "a.id ASC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (c *Catalog) ListAdmins(ctx context.Context) ([]tenant.Admin, error) {
	rows := make([]adminRow, 0)
	if err := c.db.NewSelect().Model(&rows).Order("a.email ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}

	out := make([]tenant.Admin, len(rows))
	for i := range rows {
		out[i] = *rows[i].toModel()
	}
	return out, nil
}

func (c *Catalog) UpdateAdmin(ctx context.Context, adminId string, patch tenant.AdminPatch) error {
	aid, ok := parseId(adminId)
	if !ok {
		return repos.ErrNotFound
	}
	if patch.Empty() {
		return nil
	}

	q := c.db.NewUpdate().Model((*adminRow)(nil)).Where("a.id = ?", aid)
	if patch.Email != nil {
		q = q.Set("email = ?", *patch.Email)
	}
	if patch.PasswordHash != nil {
		q = q.Set("password_hash = ?", *patch.PasswordHash)
	}

	res, err := q.Exec(ctx)
	return affected(res, err)
}

func (c *Catalog) DeleteAdminsByOrganization(ctx context.Context, orgId string) (int64, error) {
	oid, ok := parseId(orgId)
	if !ok {
		return 0, nil
	}

	res, err := c.db.NewDelete().Model((*adminRow)(nil)).Where("a.org_id = ?", oid).Exec(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func affected(res rowsAffected, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repos.ErrNotFound
	}
	return nil
}
