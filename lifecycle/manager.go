package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/events"
	"github.com/automate/orgs-server/locks"
	"github.com/automate/orgs-server/models/tenant"
	"github.com/automate/orgs-server/repos"
	"github.com/rs/zerolog/log"
)

const (
	defaultRenameTimeout = 5 * time.Minute
	defaultLockWait      = 30 * time.Second
	publishTimeout       = 30 * time.Second
)

type Options struct {
	// RenameTimeout bounds the copy phase of a rename.
	RenameTimeout time.Duration
	// LockWait bounds how long an operation waits for the per-organization lock.
	LockWait time.Duration
	// AllowAnonymousUpdate lets Update run without a principal.
	AllowAnonymousUpdate bool
}

// Manager runs organization lifecycle operations against a store. Every mutating operation
// holds the per-organization lock of each name it touches for its whole duration.
type Manager struct {
	catalog     repos.Catalog
	collections repos.Collections
	creds       *credentials.Service
	locker      locks.Locker
	publisher   events.Publisher
	opts        Options
	now         func() time.Time
	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash string
	inflight  sync.WaitGroup
}

func NewManager(store repos.Store, creds *credentials.Service, locker locks.Locker, publisher events.Publisher, opts Options) (*Manager, error) {
	if opts.RenameTimeout <= 0 {
		opts.RenameTimeout = defaultRenameTimeout
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if locker == nil {
		locker = locks.NewLocal()
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}

	dummy, err := creds.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}

	return &Manager{
		catalog:     store.Catalog(),
		collections: store.Collections(),
		creds:       creds,
		locker:      locker,
		publisher:   publisher,
		opts:        opts,
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

type CreateRequest struct {
	OrganizationName string
	Email            string
	Password         string
}

type CreateResult struct {
	Organization tenant.Organization
	Admin        tenant.Admin
}

// Create provisions the tenant collection, the catalog entry and its first admin.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.OrganizationName == "" || req.Email == "" || req.Password == "" {
		return nil, newError(KindInvalid, "organization_name, email and password are required")
	}

	unlock, err := m.lock(ctx, req.OrganizationName)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := m.catalog.FindOrganization(ctx, req.OrganizationName); err == nil {
		return nil, newError(KindAlreadyExists, "Organization name already exists")
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, storeError("find organization", err)
	}

	if _, err := m.catalog.FindAdminByEmail(ctx, req.Email); err == nil {
		return nil, newError(KindAlreadyExists, "Admin email already registered")
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, storeError("find admin", err)
	}

	hash, err := m.creds.Hash(req.Password)
	if err != nil {
		return nil, storeError("hash password", err)
	}

	org := tenant.Organization{
		OrganizationName: req.OrganizationName,
		CollectionName:   tenant.CollectionName(req.OrganizationName),
		CreatedAt:        m.now(),
	}

	// a leftover of a renamed or deleted organization must not be handed to a new tenant
	exists, err := m.collections.Exists(ctx, org.CollectionName)
	if err != nil {
		return nil, storeError("check collection", err)
	}
	if exists {
		n, err := m.collections.Count(ctx, org.CollectionName)
		if err != nil {
			return nil, storeError("count documents", err)
		}
		if n > 0 {
			log.Warn().Str("collection", org.CollectionName).Int64("documents", n).Msg("Refusing to reuse orphan collection")
			return nil, errorf(KindInternalInconsistency, "Collection %s still holds documents of a removed organization, run reconcile", org.CollectionName)
		}
	}

	if err := m.collections.Ensure(ctx, org.CollectionName); err != nil {
		return nil, storeError("ensure collection", err)
	}

	if err := m.catalog.InsertOrganization(ctx, &org); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, newError(KindAlreadyExists, "Organization name already exists")
		}
		return nil, storeError("insert organization", err)
	}

	admin := tenant.Admin{
		Email:        req.Email,
		PasswordHash: hash,
		OrgId:        org.Id,
		CreatedAt:    m.now(),
	}
	if err := m.catalog.InsertAdmin(ctx, &admin); err != nil {
		m.compensateCreate(org)
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, newError(KindAlreadyExists, "Admin email already registered")
		}
		return nil, storeError("insert admin", err)
	}

	if err := m.catalog.SetOrganizationAdmin(ctx, org.Id, admin.Id); err != nil {
		m.compensateCreate(org)
		return nil, storeError("link admin", err)
	}
	org.AdminId = admin.Id

	m.publish(events.Event{
		Type:             events.OrganizationCreated,
		OrgId:            org.Id,
		OrganizationName: org.OrganizationName,
		CollectionName:   org.CollectionName,
		AdminEmail:       admin.Email,
		At:               m.now(),
	})

	return &CreateResult{Organization: org, Admin: admin}, nil
}

// compensateCreate removes what a failed Create already wrote. The collection is only
// dropped when it is empty, it may predate this request.
func (m *Manager) compensateCreate(org tenant.Organization) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if _, err := m.catalog.DeleteAdminsByOrganization(ctx, org.Id); err != nil {
		log.Error().Err(err).Str("organization", org.OrganizationName).Msg("Could not roll back admin entry")
		return
	}

	if err := m.catalog.DeleteOrganization(ctx, org.Id); err != nil && !errors.Is(err, repos.ErrNotFound) {
		log.Error().Err(err).Str("organization", org.OrganizationName).Msg("Could not roll back organization entry")
		return
	}

	if n, err := m.collections.Count(ctx, org.CollectionName); err == nil && n == 0 {
		if err := m.collections.Drop(ctx, org.CollectionName); err != nil {
			log.Warn().Err(err).Str("collection", org.CollectionName).Msg("Could not drop collection of rolled back organization")
		}
	}
}

// Get returns the catalog entry of an organization after checking that its collection exists.
func (m *Manager) Get(ctx context.Context, name string) (*tenant.Organization, error) {
	if name == "" {
		return nil, newError(KindInvalid, "organization_name is required")
	}

	org, err := m.findOrganization(ctx, name)
	if err != nil {
		return nil, err
	}

	exists, err := m.collections.Exists(ctx, org.CollectionName)
	if err != nil {
		return nil, storeError("check collection", err)
	}
	if !exists {
		return nil, errorf(KindInternalInconsistency, "Collection %s of organization %s is missing", org.CollectionName, name)
	}

	return org, nil
}

func (m *Manager) findOrganization(ctx context.Context, name string) (*tenant.Organization, error) {
	org, err := m.catalog.FindOrganization(ctx, name)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, newError(KindNotFound, "Organization not found")
	} else if err != nil {
		return nil, storeError("find organization", err)
	}
	return org, nil
}

func (m *Manager) lock(ctx context.Context, names ...string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, m.opts.LockWait)
	defer cancel()

	unlock, err := m.locker.Lock(lockCtx, names...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = locks.ErrLockTimeout
		}
		return nil, storeError("lock organization", err)
	}
	return unlock, nil
}

// publish delivers e in the background. The change is already committed, so failures are
// only logged.
func (m *Manager) publish(e events.Event) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := m.publisher.Publish(ctx, e); err != nil {
			log.Warn().Err(err).Str("event", string(e.Type)).Str("organization", e.OrganizationName).Msg("Could not publish lifecycle event")
		}
	}()
}

// Close waits for events that are still being published, or until ctx is done.
func (m *Manager) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
