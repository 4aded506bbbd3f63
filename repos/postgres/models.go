package postgres

import (
	"strconv"
	"time"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/uptrace/bun"
)

const (
	CatalogSchema = "orgs"
	TenantSchema  = "tenants"
)

type organizationRow struct {
	bun.BaseModel `bun:"orgs.organizations,alias:o"`

	Id               int64     `bun:",pk,autoincrement"`
	OrganizationName string    `bun:",notnull,unique"`
	CollectionName   string    `bun:",notnull,unique"`
	AdminId          int64     `bun:",nullzero"`
	CreatedAt        time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (r *organizationRow) toModel() *tenant.Organization {
	org := &tenant.Organization{
		Id:               formatId(r.Id),
		OrganizationName: r.OrganizationName,
		CollectionName:   r.CollectionName,
		CreatedAt:        r.CreatedAt,
	}
	if r.AdminId != 0 {
		org.AdminId = formatId(r.AdminId)
	}
	return org
}

type adminRow struct {
	bun.BaseModel `bun:"orgs.admins,alias:a"`

	Id           int64     `bun:",pk,autoincrement"`
	Email        string    `bun:",notnull,unique"`
	PasswordHash string    `bun:",notnull"`
	OrgId        int64     `bun:",notnull"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (r *adminRow) toModel() *tenant.Admin {
	return &tenant.Admin{
		Id:           formatId(r.Id),
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		OrgId:        formatId(r.OrgId),
		CreatedAt:    r.CreatedAt,
	}
}

func formatId(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseId(id string) (int64, bool) {
	parsed, err := strconv.ParseInt(id, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
