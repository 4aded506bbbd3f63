package lifecycle

import (
	"context"
	"errors"

	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/repos"
	"golang.org/x/oauth2"
)

const tokenType = "bearer"

// Login exchanges admin credentials for a session token scoped to the admin's organization.
func (m *Manager) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	if email == "" || password == "" {
		return nil, newError(KindInvalid, "email and password are required")
	}

	admin, err := m.catalog.FindAdminByEmail(ctx, email)
	if errors.Is(err, repos.ErrNotFound) {
		m.creds.Verify(password, m.dummyHash)
		return nil, newError(KindInvalidCredentials, "Invalid credentials")
	} else if err != nil {
		return nil, storeError("find admin", err)
	}

	if !m.creds.Verify(password, admin.PasswordHash) {
		return nil, newError(KindInvalidCredentials, "Invalid credentials")
	}

	raw, expiry, err := m.creds.IssueToken(credentials.Principal{AdminId: admin.Id, OrgId: admin.OrgId})
	if err != nil {
		return nil, storeError("issue token", err)
	}

	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   tokenType,
		Expiry:      expiry,
	}, nil
}
