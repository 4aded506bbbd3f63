package lifecycle

import (
	"context"
	"errors"

	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/events"
	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
)

// Rename moves an organization and all of its documents to newName. Renaming to the
// current name is a no-op.
func (m *Manager) Rename(ctx context.Context, name, newName string) error {
	if name == "" || newName == "" {
		return newError(KindInvalid, "organization_name and new_organization_name are required")
	}
	if name == newName {
		_, err := m.findOrganization(ctx, name)
		return err
	}

	unlock, err := m.lock(ctx, name, newName)
	if err != nil {
		return err
	}
	defer unlock()

	return m.rename(ctx, name, newName)
}

// rename expects both names to be locked. The catalog update is the commit point: before it
// the source collection is untouched and the destination is discarded on failure, after it
// the source is dropped and a failed drop only leaves an orphan for Reconcile.
func (m *Manager) rename(ctx context.Context, name, newName string) error {
	org, err := m.findOrganization(ctx, name)
	if err != nil {
		return err
	}

	if _, err := m.catalog.FindOrganization(ctx, newName); err == nil {
		return newError(KindAlreadyExists, "New organization name already exists")
	} else if !errors.Is(err, repos.ErrNotFound) {
		return storeError("find organization", err)
	}

	src := org.CollectionName
	dst := tenant.CollectionName(newName)

	exists, err := m.collections.Exists(ctx, src)
	if err != nil {
		return storeError("check collection", err)
	}
	if !exists {
		return errorf(KindInternalInconsistency, "Collection %s of organization %s is missing", src, name)
	}

	copied, err := m.copyCollection(ctx, src, dst)
	if err != nil {
		m.discard(dst)
		return err
	}

	if err := m.catalog.RenameOrganization(ctx, org.Id, newName, dst); err != nil {
		return m.recoverCatalogUpdate(ctx, org, newName, dst, err)
	}

	m.dropSource(ctx, src)

	m.publish(events.Event{
		Type:             events.OrganizationRenamed,
		OrgId:            org.Id,
		OrganizationName: newName,
		CollectionName:   dst,
		PreviousName:     name,
		Documents:        copied,
		At:               m.now(),
	})

	log.Info().Str("from", name).Str("to", newName).Int64("documents", copied).Msg("Renamed organization")
	return nil
}

// copyCollection fills dst from src within the rename timeout and verifies the result.
func (m *Manager) copyCollection(ctx context.Context, src, dst string) (int64, error) {
	copyCtx, cancel := context.WithTimeout(ctx, m.opts.RenameTimeout)
	defer cancel()

	// a leftover from an earlier failed rename must not leak into the copy
	if err := m.collections.Drop(copyCtx, dst); err != nil {
		return 0, storeError("drop stale collection", err)
	}
	if err := m.collections.Ensure(copyCtx, dst); err != nil {
		return 0, storeError("ensure collection", err)
	}

	copied, err := m.collections.Copy(copyCtx, src, dst)
	if err != nil {
		return 0, storeError("copy documents", err)
	}

	want, err := m.collections.Count(copyCtx, src)
	if err != nil {
		return 0, storeError("count documents", err)
	}
	got, err := m.collections.Count(copyCtx, dst)
	if err != nil {
		return 0, storeError("count documents", err)
	}
	if got != want || copied != want {
		return 0, errorf(KindInternalInconsistency, "Copied %d of %d documents from %s", got, want, src)
	}

	return copied, nil
}

// recoverCatalogUpdate decides what a failed catalog rename left behind. The update may
// have been applied even though the store reported an error, so dst is only discarded
// once the catalog is known to still point at the source.
func (m *Manager) recoverCatalogUpdate(ctx context.Context, org *tenant.Organization, newName, dst string, cause error) error {
	current, err := m.catalog.FindOrganizationById(ctx, org.Id)
	switch {
	case err == nil && current.CollectionName == dst:
		log.Warn().Err(cause).Str("organization", newName).Msg("Catalog update reported failure but was applied")
		m.dropSource(ctx, org.CollectionName)
		return nil
	case err == nil:
		m.discard(dst)
	case errors.Is(err, repos.ErrNotFound):
		m.discard(dst)
		return newError(KindNotFound, "Organization not found")
	default:
		log.Error().Err(err).Str("collection", dst).Msg("Could not tell whether catalog update was applied, leaving copy in place")
	}

	if errors.Is(cause, repos.ErrDuplicate) {
		return newError(KindAlreadyExists, "New organization name already exists")
	}
	return storeError("rename organization", cause)
}

func (m *Manager) dropSource(ctx context.Context, src string) {
	if err := m.collections.Drop(ctx, src); err != nil {
		log.Error().Err(err).Str("collection", src).Msg("Could not drop renamed collection, it is left as an orphan")
	}
}

// discard drops a partially written destination. It runs detached from the request so an
// expired rename deadline does not prevent the cleanup.
func (m *Manager) discard(dst string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := m.collections.Drop(ctx, dst); err != nil {
		log.Error().Err(err).Str("collection", dst).Msg("Could not discard partial copy, it is left as an orphan")
	}
}

type UpdateRequest struct {
	OrganizationName    string
	NewOrganizationName string
	Email               string
	Password            string
	// Principal is the caller's identity, nil for anonymous callers.
	Principal *credentials.Principal
}

// Update optionally renames an organization and then changes its admin's email and/or
// password. The rename is committed even when the admin change fails afterwards.
func (m *Manager) Update(ctx context.Context, req UpdateRequest) error {
	if req.OrganizationName == "" {
		return newError(KindInvalid, "organization_name is required")
	}

	unlock, err := m.lock(ctx, req.OrganizationName, req.NewOrganizationName)
	if err != nil {
		return err
	}
	defer unlock()

	org, err := m.findOrganization(ctx, req.OrganizationName)
	if err != nil {
		return err
	}

	if req.Principal != nil || !m.opts.AllowAnonymousUpdate {
		if err := Authorize(req.Principal, org); err != nil {
			return err
		}
	}

	if req.NewOrganizationName != "" && req.NewOrganizationName != req.OrganizationName {
		if err := m.rename(ctx, req.OrganizationName, req.NewOrganizationName); err != nil {
			return err
		}
	}

	if req.Email == "" && req.Password == "" {
		return nil
	}

	admin, err := m.catalog.FindAdminByOrganization(ctx, org.Id)
	if errors.Is(err, repos.ErrNotFound) {
		return newError(KindInternalInconsistency, "Admin not found for this org")
	} else if err != nil {
		return storeError("find admin", err)
	}

	var patch tenant.AdminPatch
	if req.Email != "" && req.Email != admin.Email {
		if other, err := m.catalog.FindAdminByEmail(ctx, req.Email); err == nil && other.Id != admin.Id {
			return newError(KindAlreadyExists, "Admin email already registered")
		} else if err != nil && !errors.Is(err, repos.ErrNotFound) {
			return storeError("find admin", err)
		}
		email := req.Email
		patch.Email = &email
	}
	if req.Password != "" {
		hash, err := m.creds.Hash(req.Password)
		if err != nil {
			return storeError("hash password", err)
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return nil
	}

	if err := m.catalog.UpdateAdmin(ctx, admin.Id, patch); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return newError(KindAlreadyExists, "Admin email already registered")
		}
		return storeError("update admin", err)
	}
	return nil
}
