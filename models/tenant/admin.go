package tenant

import "time"

type Admin struct {
	Id           string    `json:"admin_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	OrgId        string    `json:"org_id,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// AdminPatch carries the admin fields an update may change. Nil fields are left untouched.
type AdminPatch struct {
	Email        *string
	PasswordHash *string
}

func (p AdminPatch) Empty() bool {
	return p.Email == nil && p.PasswordHash == nil
}
