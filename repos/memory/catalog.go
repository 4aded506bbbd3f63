package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/google/uuid"
)

// Catalog is an in-memory repos.Catalog for development and testing.
type Catalog struct {
	mu            sync.RWMutex
	organizations map[string]*tenant.Organization
	admins        map[string]*tenant.Admin
}

func NewCatalog() *Catalog {
	return &Catalog{
		organizations: make(map[string]*tenant.Organization),
		admins:        make(map[string]*tenant.Admin),
	}
}

func (c *Catalog) InsertOrganization(ctx context.Context, org *tenant.Organization) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.organizations {
		if existing.OrganizationName == org.OrganizationName || existing.CollectionName == org.CollectionName {
			return repos.ErrDuplicate
		}
	}

	org.Id = uuid.NewString()
	copy := *org
	c.organizations[org.Id] = &copy
	return nil
}

func (c *Catalog) FindOrganization(ctx context.Context, name string) (*tenant.Organization, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, org := range c.organizations {
		if org.OrganizationName == name {
			copy := *org
			return &copy, nil
		}
	}
	return nil, repos.ErrNotFound
}

func (c *Catalog) FindOrganizationById(ctx context.Context, id string) (*tenant.Organization, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	org, exists := c.organizations[id]
	if !exists {
		return nil, repos.ErrNotFound
	}
	copy := *org
	return &copy, nil
}

func (c *Catalog) ListOrganizations(ctx context.Context) ([]tenant.Organization, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]tenant.Organization, 0, len(c.organizations))
	for _, org := range c.organizations {
		out = append(out, *org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrganizationName < out[j].OrganizationName })
	return out, nil
}

func (c *Catalog) SetOrganizationAdmin(ctx context.Context, orgId, adminId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	org, exists := c.organizations[orgId]
	if !exists {
		return repos.ErrNotFound
	}
	org.AdminId = adminId
	return nil
}

func (c *Catalog) RenameOrganization(ctx context.Context, orgId, name, collection string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	org, exists := c.organizations[orgId]
	if !exists {
		return repos.ErrNotFound
	}
	for id, other := range c.organizations {
		if id != orgId && (other.OrganizationName == name || other.CollectionName == collection) {
			return repos.ErrDuplicate
		}
	}
	org.OrganizationName = name
	org.CollectionName = collection
	return nil
}

func (c *Catalog) DeleteOrganization(ctx context.Context, orgId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.organizations[orgId]; !exists {
		return repos.ErrNotFound
	}
	delete(c.organizations, orgId)
	return nil
}

func (c *Catalog) InsertAdmin(ctx context.Context, admin *tenant.Admin) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.admins {
		if existing.Email == admin.Email {
			return repos.ErrDuplicate
		}
	}

	admin.Id = uuid.NewString()
	copy := *admin
	c.admins[admin.Id] = &copy
	return nil
}

func (c *Catalog) FindAdminByEmail(ctx context.Context, email string) (*tenant.Admin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, admin := range c.admins {
		if admin.Email == email {
			copy := *admin
			return &copy, nil
		}
	}
	return nil, repos.ErrNotFound
}

// FindAdminByOrganization returns the earliest admin bound to the organization.
func (c *Catalog) FindAdminByOrganization(ctx context.Context, orgId string) (*tenant.Admin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found *tenant.Admin
	for _, admin := range c.admins {
		if admin.OrgId != orgId {
			continue
		}
		if found == nil || admin.CreatedAt.Before(found.CreatedAt) {
			found = admin
		}
	}
	if found == nil {
		return nil, repos.ErrNotFound
	}
	copy := *found
	return &copy, nil
}

func (c *Catalog) ListAdmins(ctx context.Context) ([]tenant.Admin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]tenant.Admin, 0, len(c.admins))
	for _, admin := range c.admins {
		out = append(out, *admin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (c *Catalog) UpdateAdmin(ctx context.Context, adminId string, patch tenant.AdminPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	admin, exists := c.admins[adminId]
	if !exists {
		return repos.ErrNotFound
	}
	if patch.Email != nil {
		for id, other := range c.admins {
			if id != adminId && other.Email == *patch.Email {
				return repos.ErrDuplicate
			}
		}
		admin.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		admin.PasswordHash = *patch.PasswordHash
	}
	return nil
}

func (c *Catalog) DeleteAdminsByOrganization(ctx context.Context, orgId string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deleted int64
	for id, admin := range c.admins {
		if admin.OrgId == orgId {
			delete(c.admins, id)
			deleted++
		}
	}
	return deleted, nil
}
