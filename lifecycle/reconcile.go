package lifecycle

import (
	"context"
	"errors"
	"sort"

	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
)

// Report lists the inconsistencies between the catalogs and the tenant collections.
type Report struct {
	Organizations int `json:"organizations"`
	Collections   int `json:"collections"`
	// OrphanCollections have no catalog entry, typically left over from an interrupted rename.
	OrphanCollections  []string `json:"orphan_collections"`
	DroppedCollections []string `json:"dropped_collections"`
	// DanglingOrganizations have a catalog entry whose collection is missing.
	DanglingOrganizations     []string `json:"dangling_organizations"`
	OrganizationsWithoutAdmin []string `json:"organizations_without_admin"`
	// OrphanAdmins are emails of admins whose organization no longer exists.
	OrphanAdmins []string `json:"orphan_admins"`
}

func (r *Report) Clean() bool {
	return len(r.OrphanCollections) == 0 && len(r.DanglingOrganizations) == 0 &&
		len(r.OrganizationsWithoutAdmin) == 0 && len(r.OrphanAdmins) == 0
}

// Reconcile compares the catalogs with the physical collections. With dropOrphans set,
// orphan collections are dropped after re-checking the catalog under the organization lock.
func (m *Manager) Reconcile(ctx context.Context, dropOrphans bool) (*Report, error) {
	orgs, err := m.catalog.ListOrganizations(ctx)
	if err != nil {
		return nil, storeError("list organizations", err)
	}
	admins, err := m.catalog.ListAdmins(ctx)
	if err != nil {
		return nil, storeError("list admins", err)
	}
	names, err := m.collections.List(ctx)
	if err != nil {
		return nil, storeError("list collections", err)
	}

	r := &Report{
		Organizations:             len(orgs),
		Collections:               len(names),
		OrphanCollections:         []string{},
		DroppedCollections:        []string{},
		DanglingOrganizations:     []string{},
		OrganizationsWithoutAdmin: []string{},
		OrphanAdmins:              []string{},
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}

	referenced := make(map[string]bool, len(orgs))
	byId := make(map[string]tenant.Organization, len(orgs))
	for _, org := range orgs {
		referenced[org.CollectionName] = true
		byId[org.Id] = org
		if !present[org.CollectionName] {
			r.DanglingOrganizations = append(r.DanglingOrganizations, org.OrganizationName)
		}
	}

	hasAdmin := make(map[string]bool, len(orgs))
	for _, admin := range admins {
		if _, ok := byId[admin.OrgId]; !ok {
			r.OrphanAdmins = append(r.OrphanAdmins, admin.Email)
			continue
		}
		hasAdmin[admin.OrgId] = true
	}
	for _, org := range orgs {
		if !hasAdmin[org.Id] {
			r.OrganizationsWithoutAdmin = append(r.OrganizationsWithoutAdmin, org.OrganizationName)
		}
	}

	for _, name := range names {
		if !referenced[name] {
			r.OrphanCollections = append(r.OrphanCollections, name)
		}
	}

	sort.Strings(r.OrphanCollections)
	sort.Strings(r.DanglingOrganizations)
	sort.Strings(r.OrganizationsWithoutAdmin)
	sort.Strings(r.OrphanAdmins)

	if dropOrphans {
		for _, name := range r.OrphanCollections {
			dropped, err := m.dropOrphan(ctx, name)
			if err != nil {
				return r, err
			}
			if dropped {
				r.DroppedCollections = append(r.DroppedCollections, name)
			}
		}
	}

	return r, nil
}

func (m *Manager) dropOrphan(ctx context.Context, collection string) (bool, error) {
	name, ok := tenant.OrganizationFromCollection(collection)
	if !ok {
		return false, nil
	}

	unlock, err := m.lock(ctx, name)
	if err != nil {
		return false, err
	}
	defer unlock()

	// an organization may have claimed the name since the listing
	if org, err := m.catalog.FindOrganization(ctx, name); err == nil && org.CollectionName == collection {
		return false, nil
	} else if err != nil && !errors.Is(err, repos.ErrNotFound) {
		return false, storeError("find organization", err)
	}

	if err := m.collections.Drop(ctx, collection); err != nil {
		return false, storeError("drop collection", err)
	}
	log.Info().Str("collection", collection).Msg("Dropped orphan collection")
	return true, nil
}
