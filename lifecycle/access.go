package lifecycle

import (
	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/models/tenant"
)

// Authorize allows a principal to manage only the organization it was issued for.
func Authorize(p *credentials.Principal, org *tenant.Organization) error {
	if p == nil || org == nil || p.OrgId == "" || p.OrgId != org.Id {
		return newError(KindForbidden, "Forbidden: you are not admin of this organization")
	}
	return nil
}
