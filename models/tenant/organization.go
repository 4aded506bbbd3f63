package tenant

import "time"

const CollectionPrefix = "org_"

type Organization struct {
	Id               string    `json:"org_id,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CollectionName   string    `json:"collection_name,omitempty"`
	AdminId          string    `json:"admin_id,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// CollectionName derives the physical tenant collection for an organization name.
func CollectionName(organizationName string) string {
	return CollectionPrefix + organizationName
}

// OrganizationFromCollection reverses CollectionName. ok is false for collections
// that do not carry the tenant prefix.
func OrganizationFromCollection(collection string) (name string, ok bool) {
	if len(collection) <= len(CollectionPrefix) || collection[:len(CollectionPrefix)] != CollectionPrefix {
		return "", false
	}
	return collection[len(CollectionPrefix):], true
}
