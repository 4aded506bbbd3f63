package lifecycle

import (
	"context"
	"errors"

	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/events"
	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
)

// Delete removes an organization's collection, its admins and its catalog entry, in that
// order. A failure part way leaves a catalog entry behind that a retry can finish.
func (m *Manager) Delete(ctx context.Context, name string, p *credentials.Principal) error {
	if name == "" {
		return newError(KindInvalid, "organization_name is required")
	}

	unlock, err := m.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	org, err := m.findOrganization(ctx, name)
	if err != nil {
		return err
	}
	if err := Authorize(p, org); err != nil {
		return err
	}

	var email string
	if admin, err := m.catalog.FindAdminByOrganization(ctx, org.Id); err == nil {
		email = admin.Email
	}

	if err := m.collections.Drop(ctx, org.CollectionName); err != nil {
		return storeError("drop collection", err)
	}

	removed, err := m.catalog.DeleteAdminsByOrganization(ctx, org.Id)
	if err != nil {
		return storeError("delete admins", err)
	}

	if err := m.catalog.DeleteOrganization(ctx, org.Id); err != nil && !errors.Is(err, repos.ErrNotFound) {
		return storeError("delete organization", err)
	}

	m.publish(events.Event{
		Type:             events.OrganizationDeleted,
		OrgId:            org.Id,
		OrganizationName: org.OrganizationName,
		CollectionName:   org.CollectionName,
		AdminEmail:       email,
		At:               m.now(),
	})

	log.Info().Str("organization", name).Int64("admins", removed).Msg("Deleted organization")
	return nil
}
